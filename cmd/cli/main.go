package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/cmsclient/internal/client/api"
	"github.com/dmitrijs2005/cmsclient/internal/client/apierror"
	"github.com/dmitrijs2005/cmsclient/internal/client/cli"
	"github.com/dmitrijs2005/cmsclient/internal/client/config"
	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/client/grpcauth"
	"github.com/dmitrijs2005/cmsclient/internal/client/media"
	"github.com/dmitrijs2005/cmsclient/internal/client/refresh"
	"github.com/dmitrijs2005/cmsclient/internal/client/services"
	"github.com/dmitrijs2005/cmsclient/internal/filex"
	"github.com/dmitrijs2005/cmsclient/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	jar, err := api.NewJar()
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}

	httpClient := api.NewHTTPClient(api.HTTPOptions{
		Jar:      jar,
		Timeout:  cfg.RequestTimeout,
		Retry:    cfg.RetryTransport,
		RetryMax: cfg.RetryMax,
		Logger:   logger,
	})

	store, err := openStore(ctx, cfg, jar)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	labels := apierror.DefaultLabels()
	if cfg.LabelsFile != "" {
		if labels, err = apierror.LoadLabels(cfg.LabelsFile); err != nil {
			return err
		}
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	refreshURL, err := api.ResolveURL(base, cfg.RefreshPath)
	if err != nil {
		return fmt.Errorf("refresh url: %w", err)
	}
	coord := refresh.NewCoordinator(
		refresh.NewHTTPRefresher(httpClient, refreshURL.String()),
		store,
		refresh.WithTimeout(cfg.RefreshTimeout),
		refresh.WithLogger(logger),
	)

	d, err := api.NewDispatcher(cfg.BaseURL, store, coord,
		api.WithHTTPClient(httpClient),
		api.WithLogger(logger),
		api.WithAuthPrefix(cfg.AuthPrefix),
		api.WithPurgeOnRejectedRetry(cfg.PurgeOnRejectedRetry),
		api.WithNormalizer(apierror.NewNormalizer(labels)),
	)
	if err != nil {
		return err
	}

	auth := services.NewAuthService(d, store, services.Paths{Login: cfg.LoginPath, Logout: cfg.LogoutPath})

	uploader, err := newUploader(ctx, cfg, d)
	if err != nil {
		return err
	}

	var health cli.HealthFunc
	if cfg.GRPCAddr != "" {
		conn, err := grpcauth.Dial(cfg.GRPCAddr, grpcauth.New(store, coord,
			grpcauth.WithExemptPrefix("/grpc.health.v1.Health/"),
			grpcauth.WithLogger(logger),
		))
		if err != nil {
			return fmt.Errorf("grpc dial: %w", err)
		}
		defer conn.Close()
		health = func(ctx context.Context) (string, error) {
			return grpcauth.Health(ctx, conn, "")
		}
	}

	app := cli.NewApp(cli.Deps{
		Auth:        auth,
		API:         d,
		Uploader:    uploader,
		Health:      health,
		MaxMB:       cfg.MediaMaxMB,
		Concurrency: cfg.UploadConcurrency,
		Logger:      logger,
	})
	app.Run(ctx)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, jar http.CookieJar) (credentials.Store, error) {
	opts := credentials.Options{
		Kind:       cfg.CredentialStore,
		Jar:        jar,
		BaseURL:    cfg.BaseURL,
		Passphrase: cfg.Passphrase(),
		RedisAddr:  cfg.RedisAddr,
		RedisKey:   cfg.RedisKey,
	}
	switch cfg.CredentialStore {
	case credentials.KindFile, credentials.KindSQLite:
		opts.Path = cfg.CredentialFile()
		if _, err := filex.EnsureParentDir(opts.Path); err != nil {
			return nil, err
		}
	}

	store, err := credentials.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}
	return store, nil
}

func newUploader(ctx context.Context, cfg *config.Config, d *api.Dispatcher) (media.Uploader, error) {
	switch cfg.MediaBackend {
	case "", "none":
		return nil, nil
	case "s3":
		return media.NewS3Uploader(ctx, media.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case "cloudinary":
		return media.NewCloudinaryUploader(
			media.NewAPISigner(d),
			&http.Client{Timeout: cfg.RequestTimeout},
			cfg.CloudinaryURL,
			media.SignRequest{ResourceType: "image"},
		), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
