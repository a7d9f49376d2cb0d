package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/api/server"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/billing"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/eventlog"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/gate"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/statistics"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/webhook"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/db"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	billing.Module,
	subscription.Module,
	paywall.Module,
	gate.Module,
	eventlog.Module,
	webhook.Module,
	statistics.Module,
)
