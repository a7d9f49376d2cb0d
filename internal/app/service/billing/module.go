package billing

import "go.uber.org/fx"

// Module exposes the billing adapter via Fx.
var Module = fx.Options(
	fx.Provide(NewAdapter),
)
