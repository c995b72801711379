package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/nacp/internal/database"
	"github.com/dukerupert/nacp/internal/email"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const cleanupInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	geoClient := geo.NewClient(geo.Config{
		IPInfoURL:    cfg.Geo.IPInfoURL,
		NominatimURL: cfg.Geo.NominatimURL,
		UserAgent:    cfg.Geo.UserAgent,
		CacheTTL:     cfg.Geo.CacheTTL,
	}, logger.With("component", "geo"))
	emailClient := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From, cfg.Server.BaseURL)
	if !emailClient.Configured() {
		logger.Warn("postmark not configured, confirmation emails are disabled")
	}
	archiver := newArchiver()
	if !cfg.ArchiveEnabled() {
		logger.Warn("archive storage not configured, exports cannot be archived")
	}

	srv, err := server.New(db, cfg, geoClient, emailClient, archiver, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("NACP census running", "addr", httpServer.Addr, "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runCleanup(gctx, cleanupInterval, cleanupTasks(srv), logger.With("component", "cleanup"))
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

type cleanupTask struct {
	name string
	run  func() (int64, error)
}

func cleanupTasks(srv *server.Server) []cleanupTask {
	return []cleanupTask{
		{"sessions", srv.SessionStore().DeleteExpired},
		{"wizard sessions", srv.WizardStore().DeleteExpired},
		{"rate limiter", func() (int64, error) {
			return int64(srv.RateLimiter().Cleanup()), nil
		}},
	}
}

// runCleanup runs every task once per interval until ctx is done.
func runCleanup(ctx context.Context, interval time.Duration, tasks []cleanupTask, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, t := range tasks {
				n, err := t.run()
				if err != nil {
					logger.Error("cleanup failed", "task", t.name, "error", err)
					continue
				}
				if n > 0 {
					logger.Info("cleaned up", "task", t.name, "removed", n)
				}
			}
		}
	}
}
