package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/jadwalin/jadwal/internal/http"
	"github.com/jadwalin/jadwal/internal/maintenance"
)

func (a *App) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the session maintenance job",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if cmd.Flags().Changed("port") {
				rt.cfg.HTTPPort = port
			}
			return serve(cmd.Context(), rt)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides JADWAL_HTTP_PORT)")

	return cmd
}

func newHandler(rt *runtime) http.Handler {
	logger := rt.logger
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(rt.auth, logger),
		Users:     httptransport.NewUserHandler(rt.users, logger),
		Subjects:  httptransport.NewSubjectHandler(rt.subjects, logger),
		Schedules: httptransport.NewScheduleHandler(rt.schedule, rt.location, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(rt.auth, logger, "/login"),
		},
	})
}

func serve(ctx context.Context, rt *runtime) error {
	logger := rt.logger

	pruner, err := maintenance.NewScheduler(rt.cfg.SessionPruneCron, rt.auth, logger)
	if err != nil {
		return err
	}
	pruner.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.cfg.HTTPPort),
		Handler:           newHandler(rt),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		pruner.Stop(shutdownCtx)
	}()

	logger.Info("jadwal API listening", "addr", server.Addr, "timezone", rt.location.String(), "storage", rt.cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}
