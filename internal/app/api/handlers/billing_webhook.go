package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/webhook"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
)

// @Summary      RevenueCat Webhook
// @Description  Handles RevenueCat webhook deliveries. The Authorization header must carry the configured shared secret.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v2/billing/webhook/revenuecat [post]
func ApiRevenueCatWebhook(h *webhook.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		logctx.FromGin(c, h.Logger).Infow("webhook_revenuecat_received")

		if err := h.HandleEvent(c); err != nil {
			if errors.Is(err, webhook.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
				return
			}
			logctx.FromGin(c, h.Logger).Errorw("webhook_revenuecat_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		logctx.FromGin(c, h.Logger).Infow("webhook_revenuecat_handled")
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterBillingWebhookRoutes(r gin.IRouter, h *webhook.Handler) {
	r.POST("/revenuecat", ApiRevenueCatWebhook(h))
}
