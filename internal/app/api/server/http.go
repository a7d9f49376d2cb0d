package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/docs"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/api/handlers"
	mw "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/api/middleware"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/billing"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/gate"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/statistics"
	subsvc "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/webhook"
	cfgpkg "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	metrics "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Trace only here; request logger & access log are attached per group
	// in registerRoutes so auth can run first on protected groups.
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	adapter *billing.Adapter,
	sub *subsvc.Service,
	g *gate.Service,
	pw *paywall.Container,
	wh *webhook.Handler,
	stats *statistics.Service,
) {
	// Prometheus metrics on a separate listener
	if cfg != nil && cfg.MetricsAddr != "" {
		r.Use(metrics.GinMiddleware())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
				log.Errorf("metrics listener error: %v", err)
			}
		}()
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Signed-in user APIs
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.AuthMiddleware(cfg), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterSubscriptionRoutes(apiV1.Group("/subscription"), sub, adapter)
	handlers.RegisterPaywallRoutes(apiV1, g, pw)

	// Admin APIs
	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminRequired())
	handlers.RegisterAdminRoutes(admin, sub, stats)

	// Billing platform webhooks authenticate with a shared secret, not a
	// user token.
	apiV2Billing := r.Group("/api/v2/billing/webhook")
	apiV2Billing.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterBillingWebhookRoutes(apiV2Billing, wh)
}

// initBilling brings the billing adapter up on app start. A missing
// credential disables billing rather than failing startup.
func initBilling(lc fx.Lifecycle, log *zap.SugaredLogger, adapter *billing.Adapter) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !adapter.Initialize(ctx) {
				log.Warnw("billing disabled", "state", adapter.State().String())
			}
			return nil
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(initBilling),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
