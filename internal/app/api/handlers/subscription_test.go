package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	subsvc "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

type stubSubMgr struct {
	purchased      bool
	subscribeErr   error
	restored       bool
	record         *models.UserBillingRecord
	logOutCalls    int
	refreshCalls   int
	reconcileCalls int
	reconcileErr   error
}

func (s *stubSubMgr) Subscribe(_ context.Context, _, _ string, _ types.Receipt) (bool, error) {
	return s.purchased, s.subscribeErr
}

func (s *stubSubMgr) Restore(_ context.Context, _ string, _ types.Receipt) (bool, error) {
	return s.restored, nil
}

func (s *stubSubMgr) RefreshEntitlements(_ context.Context, _ string) { s.refreshCalls++ }

func (s *stubSubMgr) ReconcileToBackend(_ context.Context, _ string, _ types.SubscriptionChangeReason) error {
	s.reconcileCalls++
	return s.reconcileErr
}

func (s *stubSubMgr) Record(_ context.Context, _ string) (*models.UserBillingRecord, error) {
	return s.record, nil
}

func (s *stubSubMgr) LogOut(_ context.Context, _ string) { s.logOutCalls++ }

type stubCatalog struct {
	pkgs []*types.Package
}

func (s *stubCatalog) Packages(_ context.Context, _ string, _ types.BillingPlatform) ([]*types.Package, error) {
	return s.pkgs, nil
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func subscriptionRouter(mgr SubscriptionManager, catalog PackageCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSubscriptionRoutes(r.Group("/api/v1/subscription"), mgr, catalog)
	return r
}

func TestApiSubscribe_ReportsPurchase(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{purchased: true}, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/subscribe", map[string]any{
		"package_id": "$rc_annual", "platform": "ios", "fetch_token": "receipt",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"purchased":true`)
}

func TestApiSubscribe_MissingFields(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{}, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/subscribe", map[string]any{"package_id": "$rc_annual"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":40000`)
}

func TestApiSubscribe_UnknownPackageIsBadRequest(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{subscribeErr: subsvc.ErrPackageNotFound}, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/subscribe", map[string]any{
		"package_id": "$rc_gone", "platform": "ios", "fetch_token": "receipt",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":40000`)
}

func TestApiSubscribe_CancellationIsNotAnError(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{purchased: false}, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/subscribe", map[string]any{
		"package_id": "$rc_annual", "platform": "ios", "fetch_token": "receipt",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":0`)
	require.Contains(t, w.Body.String(), `"purchased":false`)
}

func TestApiMembershipStatus_NoRecordMeansFree(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{}, &stubCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"tier":"free"`)
	require.Contains(t, w.Body.String(), `"status":"none"`)
}

func TestApiMembershipStatus_ReturnsReconciledRecord(t *testing.T) {
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := &stubSubMgr{record: &models.UserBillingRecord{
		UserID:                "user-1",
		MembershipTier:        types.TierTrailLeader,
		SubscriptionProvider:  types.SubscriptionProviderRevenueCat,
		SubscriptionStatus:    types.SubscriptionStatusActive,
		SubscriptionExpiresAt: &expires,
	}}
	r := subscriptionRouter(mgr, &stubCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Contains(t, w.Body.String(), `"tier":"trailLeader"`)
	require.Contains(t, w.Body.String(), `"status":"active"`)
}

func TestApiRefreshEntitlements_ReconcileFailureIsBestEffort(t *testing.T) {
	mgr := &stubSubMgr{reconcileErr: errors.New("backend down")}
	r := subscriptionRouter(mgr, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/refresh", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":0`)
	require.Contains(t, w.Body.String(), `"tier":"free"`)
	require.Equal(t, 1, mgr.refreshCalls)
	require.Equal(t, 1, mgr.reconcileCalls)
}

func TestApiListPackages_EmptyCatalogYieldsEmptyList(t *testing.T) {
	r := subscriptionRouter(&stubSubMgr{}, &stubCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription/packages?platform=android", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"data":[]`)
}

func TestApiLogOut(t *testing.T) {
	mgr := &stubSubMgr{}
	r := subscriptionRouter(mgr, &stubCatalog{})

	w := postJSON(t, r, "/api/v1/subscription/logout", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, mgr.logOutCalls)
}

func TestRegisterSubscriptionRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSubscriptionRoutes(r.Group("/api/v1/subscription"), &stubSubMgr{}, &stubCatalog{})

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/subscription/subscribe"))
	require.True(t, contains("POST /api/v1/subscription/restore"))
	require.True(t, contains("POST /api/v1/subscription/refresh"))
	require.True(t, contains("GET /api/v1/subscription/status"))
	require.True(t, contains("GET /api/v1/subscription/packages"))
	require.True(t, contains("POST /api/v1/subscription/logout"))
}
