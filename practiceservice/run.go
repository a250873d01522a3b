// Package practiceservice is the composition root: it spawns the actors,
// starts the expiry sweep, and serves HTTP until shutdown.
package practiceservice

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peerpractice/server/internal/api"
	"github.com/peerpractice/server/internal/config"
	"github.com/peerpractice/server/internal/health"
	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/logger"
	"github.com/peerpractice/server/internal/mailer"
	"github.com/peerpractice/server/internal/pending"
	"github.com/peerpractice/server/internal/posts"
	"github.com/peerpractice/server/internal/snapshot"
	"github.com/peerpractice/server/internal/sweep"
	"github.com/peerpractice/server/internal/users"
)

// Run starts the peer-practice backend and blocks until shutdown or error.
func Run() error {
	log := logger.New("peer-practice")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Error().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Actors, leaves first. The users and posts actors block on their
	// snapshot retrieve before serving, so they come after storage.
	store := snapshot.NewStore(cfg.DataDir, log)
	connHub := hub.NewHub(log)
	pendingLogins := pending.NewLogins()
	userRegistry := users.NewRegistry(store, connHub, log)
	postRegistry := posts.NewRegistry(store, connHub, log)
	loginMailer := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
		ReplyTo:  cfg.MailReplyTo,
	}, log)

	sweeper := sweep.New(postRegistry, time.Duration(cfg.SweepIntervalMinutes)*time.Minute, log)
	go func() { _ = sweeper.Run(ctx) }()

	healthSvc := health.NewService(log, health.NewDataDirChecker(cfg.DataDir, log))
	go healthSvc.Start(ctx, 30*time.Second)

	router := api.NewRouter(api.Deps{
		Users:   userRegistry,
		Posts:   postRegistry,
		Pending: pendingLogins,
		Mailer:  loginMailer,
		Hub:     connHub,
		Health:  healthSvc,
		Config:  cfg,
		Log:     log,
	})

	server := &http.Server{
		Addr:        cfg.GetHTTPAddr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}
