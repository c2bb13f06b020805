// Package grpcauth applies the dispatcher's credential discipline to gRPC
// calls: attach the stored credential, refresh once on Unauthenticated,
// retry once.
package grpcauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/client/refresh"
	"github.com/dmitrijs2005/cmsclient/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

type Refresher interface {
	Refresh(ctx context.Context) refresh.Outcome
}

type Interceptor struct {
	store     credentials.Store
	refresher Refresher
	exempt    []string
	log       logging.Logger
}

type Option func(*Interceptor)

// WithExemptPrefix adds a full-method prefix (e.g. "/cms.v1.Auth/") whose
// Unauthenticated errors are returned without a refresh.
func WithExemptPrefix(p string) Option {
	return func(i *Interceptor) { i.exempt = append(i.exempt, p) }
}

func WithLogger(l logging.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.log = l
		}
	}
}

func New(store credentials.Store, refresher Refresher, opts ...Option) *Interceptor {
	i := &Interceptor{store: store, refresher: refresher, log: logging.Nop()}
	for _, o := range opts {
		o(i)
	}
	return i
}

func withCredential(ctx context.Context, c credentials.Credential) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(authorizationKey)
	if c != "" {
		md.Set(authorizationKey, "Bearer "+string(c))
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// Unary is the grpc.UnaryClientInterceptor.
func (i *Interceptor) Unary(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	cred, _, err := i.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credential: %w", err)
	}

	err = invoker(withCredential(ctx, cred), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated {
		return err
	}
	if i.isExempt(method) {
		return err
	}

	out := i.refresher.Refresh(ctx)
	if !out.OK {
		i.log.Info(ctx, "refresh failed, returning unauthenticated", "method", method)
		return err
	}

	return invoker(withCredential(ctx, out.Credential), method, req, reply, cc, opts...)
}

func (i *Interceptor) isExempt(method string) bool {
	for _, p := range i.exempt {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// Dial creates a client connection that runs every unary call through i.
func Dial(target string, i *Interceptor, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(i.Unary),
	}, opts...)
	return grpc.NewClient(target, opts...)
}

// MapError folds gRPC status codes into the api sentinels.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", api.ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", api.ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
