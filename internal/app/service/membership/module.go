package membership

import (
	"go.uber.org/fx"

	"github.com/fatflowers/memberlink/internal/platform/whop"
)

// Module exposes the membership service via Fx.
var Module = fx.Options(
	fx.Provide(NewGormStore),
	fx.Provide(func(c *whop.Client) ProviderClient { return c }),
	fx.Provide(NewService),
)
