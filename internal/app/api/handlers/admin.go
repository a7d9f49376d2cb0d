package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/statistics"
	subsvc "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// MembershipAdmin is the slice of the subscription service the admin
// endpoints depend on.
type MembershipAdmin interface {
	Grant(ctx context.Context, userID string, tier types.MembershipTier, grantedBy string, expiresAt *time.Time) (*models.UserBillingRecord, error)
	ReconcileToBackend(ctx context.Context, userID string, reason types.SubscriptionChangeReason) error
	Record(ctx context.Context, userID string) (*models.UserBillingRecord, error)
}

type GrantMembershipRequest struct {
	UserID     string               `json:"user_id"`
	Tier       types.MembershipTier `json:"tier"`
	OperatorID string               `json:"operator_id"`
	ExpiresAt  *time.Time           `json:"expires_at"`
}

// @Summary      Grant Membership (Admin)
// @Description  Grants a paid membership tier to a user outside the billing platform.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body GrantMembershipRequest true "Grant membership request"
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/admin/grant_membership [post]
func ApiGrantMembership(admin MembershipAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantMembershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.UserID == "" || req.OperatorID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id or operator_id"))
			return
		}

		rec, err := admin.Grant(c.Request.Context(), req.UserID, req.Tier, req.OperatorID, req.ExpiresAt)
		if err != nil {
			if errors.Is(err, subsvc.ErrInvalidGrant) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(membershipStatus(rec)))
	}
}

type ReconcileUserRequest struct {
	UserID string `json:"user_id"`
}

// @Summary      Reconcile User (Admin)
// @Description  Forces a reconcile of a user's billing record against the billing platform.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ReconcileUserRequest true "Reconcile request"
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/admin/reconcile_user [post]
func ApiReconcileUser(admin MembershipAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileUserRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}

		if err := admin.ReconcileToBackend(c.Request.Context(), req.UserID, types.SubscriptionChangeReasonReconcile); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		rec, err := admin.Record(c.Request.Context(), req.UserID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(membershipStatus(rec)))
	}
}

// @Summary      Get Membership Statistics (Admin)
// @Description  Retrieves membership counts and tier distributions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.MembershipStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespMembershipStatistic
// @Router       /api/v1/admin/get_membership_statistic [post]
func ApiGetMembershipStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.MembershipStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetMembershipStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, admin MembershipAdmin, stats *statistics.Service) {
	r.POST("/grant_membership", ApiGrantMembership(admin))
	r.POST("/reconcile_user", ApiReconcileUser(admin))
	r.POST("/get_membership_statistic", ApiGetMembershipStatistic(stats))
}
