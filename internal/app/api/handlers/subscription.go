package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	subsvc "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// SubscriptionManager is the slice of the subscription service the HTTP
// layer depends on.
type SubscriptionManager interface {
	Subscribe(ctx context.Context, userID, packageID string, receipt types.Receipt) (bool, error)
	Restore(ctx context.Context, userID string, receipt types.Receipt) (bool, error)
	RefreshEntitlements(ctx context.Context, userID string)
	ReconcileToBackend(ctx context.Context, userID string, reason types.SubscriptionChangeReason) error
	Record(ctx context.Context, userID string) (*models.UserBillingRecord, error)
	LogOut(ctx context.Context, userID string)
}

// PackageCatalog lists what is purchasable right now.
type PackageCatalog interface {
	Packages(ctx context.Context, userID string, platform types.BillingPlatform) ([]*types.Package, error)
}

type SubscribeRequest struct {
	PackageID  string                `json:"package_id"`
	Platform   types.BillingPlatform `json:"platform"`
	FetchToken string                `json:"fetch_token"`
}

type SubscribeResponse struct {
	Purchased bool `json:"purchased"`
}

type RestoreRequest struct {
	Platform   types.BillingPlatform `json:"platform"`
	FetchToken string                `json:"fetch_token"`
}

type RestoreResponse struct {
	Restored bool `json:"restored"`
}

type MembershipStatusResponse struct {
	Tier      types.MembershipTier       `json:"tier"`
	Status    types.SubscriptionStatus   `json:"status"`
	ExpiresAt *time.Time                 `json:"expires_at,omitempty"`
	Provider  types.SubscriptionProvider `json:"provider,omitempty"`
}

func membershipStatus(rec *models.UserBillingRecord) *MembershipStatusResponse {
	if rec == nil {
		return &MembershipStatusResponse{Tier: types.TierFree, Status: types.SubscriptionStatusNone}
	}
	return &MembershipStatusResponse{
		Tier:      rec.Tier(),
		Status:    rec.SubscriptionStatus,
		ExpiresAt: rec.SubscriptionExpiresAt,
		Provider:  rec.SubscriptionProvider,
	}
}

// @Summary      Subscribe
// @Description  Purchases a package from the current offering. purchased=false without an error means the user cancelled at the store.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body SubscribeRequest true "Purchase request"
// @Success      200  {object}  handlers.RespSubscribe
// @Router       /api/v1/subscription/subscribe [post]
func ApiSubscribe(mgr SubscriptionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.PackageID == "" || req.FetchToken == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing package_id or fetch_token"))
			return
		}

		userID := c.GetString(logctx.UserIDKey)
		purchased, err := mgr.Subscribe(c.Request.Context(), userID, req.PackageID, types.Receipt{
			Platform:   req.Platform,
			FetchToken: req.FetchToken,
		})
		if err != nil {
			if errors.Is(err, subsvc.ErrPackageNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&SubscribeResponse{Purchased: purchased}))
	}
}

// @Summary      Restore purchases
// @Description  Replays the store receipt and reports whether any active entitlement came back.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body RestoreRequest true "Restore request"
// @Success      200  {object}  handlers.RespRestore
// @Router       /api/v1/subscription/restore [post]
func ApiRestore(mgr SubscriptionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RestoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.FetchToken == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing fetch_token"))
			return
		}

		userID := c.GetString(logctx.UserIDKey)
		restored, err := mgr.Restore(c.Request.Context(), userID, types.Receipt{
			Platform:   req.Platform,
			FetchToken: req.FetchToken,
		})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&RestoreResponse{Restored: restored}))
	}
}

// @Summary      Refresh entitlements
// @Description  Re-reads the billing snapshot, reconciles it to the backend best-effort, and returns the current membership status.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/subscription/refresh [post]
func ApiRefreshEntitlements(mgr SubscriptionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(logctx.UserIDKey)
		mgr.RefreshEntitlements(c.Request.Context(), userID)
		if err := mgr.ReconcileToBackend(c.Request.Context(), userID, types.SubscriptionChangeReasonReconcile); err != nil {
			logctx.FromGin(c, zap.NewNop().Sugar()).Warnw("refresh reconcile failed", "err", err)
		}

		rec, err := mgr.Record(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(membershipStatus(rec)))
	}
}

// @Summary      Membership status
// @Description  Returns the reconciled membership tier and subscription status.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/subscription/status [get]
func ApiMembershipStatus(mgr SubscriptionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(logctx.UserIDKey)
		rec, err := mgr.Record(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(membershipStatus(rec)))
	}
}

// @Summary      List packages
// @Description  Lists the purchasable packages of the current offering for the given platform.
// @Tags         Subscription
// @Produce      json
// @Param        platform query string false "ios or android"
// @Success      200  {object}  handlers.RespPackages
// @Router       /api/v1/subscription/packages [get]
func ApiListPackages(catalog PackageCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		platform := types.BillingPlatform(c.Query("platform"))
		if platform == "" {
			platform = types.BillingPlatformApple
		}

		userID := c.GetString(logctx.UserIDKey)
		pkgs, err := catalog.Packages(c.Request.Context(), userID, platform)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if pkgs == nil {
			pkgs = []*types.Package{}
		}
		c.JSON(http.StatusOK, response.OKT(pkgs))
	}
}

// @Summary      Log out
// @Description  Detaches the billing identity and clears cached billing state.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscription/logout [post]
func ApiLogOut(mgr SubscriptionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr.LogOut(c.Request.Context(), c.GetString(logctx.UserIDKey))
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, mgr SubscriptionManager, catalog PackageCatalog) {
	r.POST("/subscribe", ApiSubscribe(mgr))
	r.POST("/restore", ApiRestore(mgr))
	r.POST("/refresh", ApiRefreshEntitlements(mgr))
	r.GET("/status", ApiMembershipStatus(mgr))
	r.GET("/packages", ApiListPackages(catalog))
	r.POST("/logout", ApiLogOut(mgr))
}
