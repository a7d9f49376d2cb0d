package subscription

import (
	"go.uber.org/fx"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/billing"
)

// Module wires the record store and orchestrator via Fx.
var Module = fx.Options(
	fx.Provide(NewGormRecordStore),
	fx.Provide(func(a *billing.Adapter) BillingAdapter { return a }),
	fx.Provide(NewService),
)
