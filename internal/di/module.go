package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/rewardengine/internal/adapter/storefront"
	"github.com/polkiloo/rewardengine/internal/app"
	"github.com/polkiloo/rewardengine/internal/config"
	"github.com/polkiloo/rewardengine/internal/logger"
	"github.com/polkiloo/rewardengine/internal/pkg/auth"
	"github.com/polkiloo/rewardengine/internal/server/http/handlers"
	"github.com/polkiloo/rewardengine/internal/server/http/router"
	"github.com/polkiloo/rewardengine/internal/storage/postgres"
	"github.com/polkiloo/rewardengine/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		storefront.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.RewardsFacade) handlers.RewardsFacade { return f },
			func(s *postgres.Storage) handlers.HealthChecker { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
