package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/gate"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
)

type CheckFeatureRequest struct {
	Feature string `json:"feature"`
}

type CheckFeatureResponse struct {
	Allowed bool          `json:"allowed"`
	Paywall paywall.State `json:"paywall"`
}

// @Summary      Paywall state
// @Description  Returns whether a paywall should be presented and why.
// @Tags         Paywall
// @Produce      json
// @Success      200  {object}  handlers.RespPaywallState
// @Router       /api/v1/paywall [get]
func ApiPaywallState(pw *paywall.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(pw.Current(c.GetString(logctx.UserIDKey))))
	}
}

// @Summary      Close paywall
// @Description  Dismisses the paywall and clears its type and context.
// @Tags         Paywall
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/paywall/close [post]
func ApiClosePaywall(pw *paywall.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		pw.Close(c.GetString(logctx.UserIDKey))
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Check feature access
// @Description  Checks whether the user's membership unlocks a feature; a denial opens an upgrade paywall.
// @Tags         Paywall
// @Accept       json
// @Produce      json
// @Param        request body CheckFeatureRequest true "Feature check request"
// @Success      200  {object}  handlers.RespCheckFeature
// @Router       /api/v1/features/check [post]
func ApiCheckFeature(g *gate.Service, pw *paywall.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckFeatureRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Feature == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing feature"))
			return
		}

		userID := c.GetString(logctx.UserIDKey)
		allowed, err := g.Require(c.Request.Context(), userID, req.Feature)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CheckFeatureResponse{
			Allowed: allowed,
			Paywall: pw.Current(userID),
		}))
	}
}

func RegisterPaywallRoutes(r gin.IRouter, g *gate.Service, pw *paywall.Container) {
	r.GET("/paywall", ApiPaywallState(pw))
	r.POST("/paywall/close", ApiClosePaywall(pw))
	r.POST("/features/check", ApiCheckFeature(g, pw))
}
