package gate

import (
	"go.uber.org/fx"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
)

var Module = fx.Options(
	fx.Provide(func(s *subscription.Service) RecordSource { return s }),
	fx.Provide(NewService),
)
