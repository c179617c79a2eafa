package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/securenet/dyngroups/controller"
	"github.com/securenet/dyngroups/router"
	"github.com/securenet/dyngroups/scheduler"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin API and run scheduled reconciliation",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cfg, log)
		if err != nil {
			return err
		}
		defer app.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if _, err := app.services.Rule.SetupDefaultRules(ctx); err != nil {
			return err
		}

		opts := router.Options{
			RateLimitRequests: cfg.Server.RateLimit,
			RateLimitDuration: cfg.Server.RateLimitWindow,
			JWTSecret:         cfg.Server.JWTSecret,
			AdminGroup:        cfg.Server.AdminGroup,
			Metrics:           app.metrics,
		}
		if app.redis != nil && cfg.Server.RateLimit > 0 {
			opts.Limiter = app.redis
		}

		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           router.SetupRouter(controller.InitializeControllers(app.services, log), opts, log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if cfg.Reconcile.Schedule != "" {
			sched, err := scheduler.New(cfg.Reconcile.Schedule, app.services.Membership, log)
			if err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			g.Go(func() error {
				sched.Start(gctx)
				<-gctx.Done()
				sched.Stop()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}
		log.Info("Server exiting")
		return nil
	},
}
