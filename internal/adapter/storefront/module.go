package storefront

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/rewardengine/internal/config"
)

// Module exposes storefront client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.StorefrontAddress, p.Logger)
}
