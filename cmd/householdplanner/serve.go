package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"household-planner/internal/api"
	"household-planner/internal/logx"
	"household-planner/internal/service"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic jobs, the HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) jobs() map[string]service.Job {
	return map[string]service.Job{
		"overdue": func(ctx context.Context, now time.Time) error {
			_, err := a.sweeper.OverdueSweep(ctx, now)
			return err
		},
		"due-soon": func(ctx context.Context, now time.Time) error {
			_, err := a.sweeper.DueSoonSweep(ctx, now)
			return err
		},
		"generate": func(ctx context.Context, now time.Time) error {
			_, err := a.sweeper.GenerateUpcoming(ctx, now)
			return err
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	runner := service.JobRunner{
		Timeout: a.cfg.Jobs.Timeout,
		Metrics: a.metrics,
		Log:     logx.Component(a.log, "jobs"),
	}
	jobs := a.jobs()

	scheduler := service.NewSchedulerService(loc, logx.Component(a.log, "cron"))
	if _, err := scheduler.ScheduleInterval(a.cfg.Jobs.OverdueInterval, runner.Wrap("overdue", jobs["overdue"])); err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}
	if _, err := scheduler.ScheduleInterval(a.cfg.Jobs.DueSoonInterval, runner.Wrap("due-soon", jobs["due-soon"])); err != nil {
		return fmt.Errorf("schedule due-soon sweep: %w", err)
	}
	if _, err := scheduler.ScheduleDaily(a.cfg.Jobs.GenerateAt, runner.Wrap("generate", jobs["generate"])); err != nil {
		return fmt.Errorf("schedule generation: %w", err)
	}

	// Catch up on anything missed while the process was down.
	_ = runner.Run(ctx, "generate", jobs["generate"])
	_ = runner.Run(ctx, "overdue", jobs["overdue"])

	scheduler.Start()
	defer scheduler.Stop()

	if a.log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: api.NewRouter(api.Deps{
			Schedule:     a.schedule,
			Materializer: a.materializer,
			Rotation:     a.rotation,
			Sweeper:      a.sweeper,
			Members:      a.members,
			Ping: func(ctx context.Context) error {
				sqlDB, err := a.db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			Gatherer:       a.registry,
			DefaultHorizon: a.cfg.Horizon.Generation,
			Log:            logx.Component(a.log, "http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if a.bot != nil {
		go func() {
			if err := a.bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	a.log.Info().Int("jobs", scheduler.Entries()).Msg("household planner started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.log.Error().Err(runErr).Msg("component stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("http shutdown")
	}
	a.log.Info().Msg("shutdown complete")
	return runErr
}
