package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/polkiloo/rewardengine/internal/config"
	"github.com/polkiloo/rewardengine/internal/scheduler"
	"github.com/polkiloo/rewardengine/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewRewardsFacade,
		newHTTPServer,
		newRetryProcessor,
		newScheduler,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *RewardsFacade
	Config *config.Config
	Logger *slog.Logger
}

func newRetryProcessor(p workerParams) *worker.AccrualRetryProcessor {
	return worker.NewAccrualRetryProcessor(
		p.Facade,
		p.Config.RetryPollInterval,
		p.Config.RetryBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type schedulerParams struct {
	fx.In

	Facade *RewardsFacade
	Config *config.Config
	Logger *slog.Logger
}

func newScheduler(p schedulerParams) (*cron.Cron, error) {
	job := scheduler.NewLedgerStatsJob(p.Facade, 0, p.Logger)
	return scheduler.New(p.Config.StatsSchedule, job, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.AccrualRetryProcessor
	Cron       *cron.Cron
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting rewardengine", slog.String("addr", p.Server.Addr))
			// OnStart ctx is cancelled once startup completes.
			p.Worker.Start(context.WithoutCancel(ctx))
			p.Cron.Start()
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			var serverErr error
			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr = err
			}

			p.Worker.Stop()

			select {
			case <-p.Cron.Stop().Done():
			case <-shutdownCtx.Done():
				p.Logger.Warn("scheduler did not stop in time")
			}

			if serverErr != nil {
				return serverErr
			}
			p.Logger.Info("rewardengine stopped")
			return nil
		},
	})
}
