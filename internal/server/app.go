// Package server initializes and runs the account service: it wires the
// blob-backed user directory, the token codec, the mailer and the HTTP
// endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solward/accountd/internal/logging"
	"github.com/solward/accountd/internal/server/accounts"
	"github.com/solward/accountd/internal/server/blob"
	"github.com/solward/accountd/internal/server/config"
	"github.com/solward/accountd/internal/server/directory"
	"github.com/solward/accountd/internal/server/httpapi"
	"github.com/solward/accountd/internal/server/mail"
	"github.com/solward/accountd/internal/server/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON()

	bucket, err := blob.NewS3Bucket(ctx, blob.S3Options{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Bucket:       cfg.S3Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	store := directory.NewStore(bucket, directory.Options{
		Key:         cfg.DirectoryKey,
		BcryptCost:  cfg.BcryptCost,
		MaxAttempts: cfg.MaxWriteAttempts,
	}, logger)

	codec := token.NewCodec([]byte(cfg.SecretKey), cfg.SignupTokenTTL, cfg.ResetTokenTTL)
	renderer := mail.NewRenderer(cfg.AppBaseURL, cfg.APIBaseURL)

	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail)
	} else {
		logger.Warn(ctx, "no SMTP host configured, mail is log-only")
		sender = mail.NewLogSender(logger)
	}

	svc := accounts.NewService(store, codec, sender, renderer, cfg.AdminOrg, cfg.SuperAdminOrg, logger)
	handler := httpapi.NewHandler(svc, cfg.AppBaseURL, logger)
	router := httpapi.NewRouter(handler, logger)

	return &App{config: cfg, logger: logger, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.router,
	}

	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server failed", "error", err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err.Error())
	}
}
