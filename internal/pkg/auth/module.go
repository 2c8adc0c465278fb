package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/rewardengine/internal/config"
)

// Module provides the bearer token strategy via fx.
var Module = fx.Provide(newTokenStrategy)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.TokenSecret, Options{})
}
