// Package services contains application services for the CMS client.
// This file defines the authentication service: login, logout and the
// current-user lookups built on top of the request dispatcher.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/cryptox"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoToken     = errors.New("login response carries no token")
)

// Paths names the session endpoints.
type Paths struct {
	Login  string
	Logout string
}

var DefaultPaths = Paths{
	Login:  "/v1/auth/login",
	Logout: "/v1/auth/logout",
}

// User is the subset of /v1/me the client uses.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre,omitempty"`
	Role   string `json:"role,omitempty"`
}

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Login: exchange email/password for a credential and store it.
//   - Logout: end the server session and forget the stored credential.
//   - Me: fetch the current user from the server.
//   - Whoami: decode the stored credential locally, without a request.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
	Whoami(ctx context.Context) (credentials.Info, error)
}

type authService struct {
	d     *api.Dispatcher
	store credentials.Store
	paths Paths
}

// NewAuthService binds the service to d and store. Empty paths fall back to
// DefaultPaths.
func NewAuthService(d *api.Dispatcher, store credentials.Store, paths Paths) AuthService {
	if paths.Login == "" {
		paths.Login = DefaultPaths.Login
	}
	if paths.Logout == "" {
		paths.Logout = DefaultPaths.Logout
	}
	return &authService{d: d, store: store, paths: paths}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credentials; the refresh cookie the server sets lands in
// the dispatcher's jar. The password never becomes a string: the body is
// built from its bytes and wiped after the call.
func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	body, err := loginBody(email, password)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(body)

	var out loginResponse
	err = a.d.Call(ctx, api.Request{
		Method: http.MethodPost,
		Path:   a.paths.Login,
		Body:   api.Raw(body),
	}, &out)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return ErrNoToken
	}
	if err := a.store.Set(ctx, credentials.Credential(out.Token)); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Logout always clears the local credential, even when the server call fails.
func (a *authService) Logout(ctx context.Context) error {
	callErr := a.d.Call(ctx, api.Request{Method: http.MethodPost, Path: a.paths.Logout}, nil)

	if c, ok := a.store.(credentials.Clearer); ok {
		if err := c.Clear(ctx); err != nil {
			return errors.Join(callErr, fmt.Errorf("clear credential: %w", err))
		}
	}
	if callErr != nil {
		return fmt.Errorf("logout: %w", callErr)
	}
	return nil
}

func (a *authService) Me(ctx context.Context) (*User, error) {
	var u User
	ok, err := a.d.Me(ctx, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return &u, nil
}

func (a *authService) Whoami(ctx context.Context) (credentials.Info, error) {
	c, ok, err := a.store.Get(ctx)
	if err != nil {
		return credentials.Info{}, err
	}
	if !ok {
		return credentials.Info{}, ErrNotLoggedIn
	}
	return credentials.Inspect(c)
}

// loginBody encodes {"email":...,"password":...}. The buffer is sized for
// the worst-case escaping up front so append never leaves a stale copy of
// the password behind.
func loginBody(email string, password []byte) ([]byte, error) {
	e, err := json.Marshal(email)
	if err != nil {
		return nil, fmt.Errorf("encode email: %w", err)
	}
	b := make([]byte, 0, len(e)+6*len(password)+len(`{"email":,"password":""}`))
	b = append(b, `{"email":`...)
	b = append(b, e...)
	b = append(b, `,"password":"`...)
	b = appendJSONEscaped(b, password)
	b = append(b, `"}`...)
	return b, nil
}

func appendJSONEscaped(dst, src []byte) []byte {
	const hex = "0123456789abcdef"
	for _, c := range src {
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
