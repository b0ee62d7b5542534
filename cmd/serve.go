package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	httpapi "github.com/immxrtalbeast/codecollab/internal/api/http"
	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/immxrtalbeast/codecollab/internal/identity"
	"github.com/immxrtalbeast/codecollab/internal/service"
	"github.com/immxrtalbeast/codecollab/lib/logger/sl"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the collaboration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), config.MustLoad(opts.configPath))
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	log := setupLogger(cfg.Env, cfg.Log.Backend)
	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	restored, err := a.sessions.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	log.Info("sessions restored", slog.Int("count", restored))

	maxFrame := int64(cfg.Sessions.MaxDocumentBytes)
	router := httpapi.SetupRouter(httpapi.RouterDeps{
		Sessions:       httpapi.NewSessionController(a.sessions, log, cfg.HTTP.AllowedOrigins, maxFrame),
		Users:          httpapi.NewUserController(),
		WebRTC:         httpapi.NewWebRTCController(cfg.WebRTC.STUNServers),
		Identity:       identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
	})

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// websocket handlers stop with the server
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.persister.Run(gctx)
	})
	g.Go(func() error {
		return service.NewSweeper(a.sessions, cfg.Sessions.SweepInterval, log).Run(gctx)
	})

	err = g.Wait()

	// requests finishing during shutdown may have queued more records
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if n := a.persister.Flush(flushCtx); n > 0 {
		log.Info("flushed pending sessions", slog.Int("count", n))
	}

	if err != nil {
		log.Error("application stopped with error", sl.Err(err))
		return err
	}
	log.Info("application stopped")
	return nil
}
