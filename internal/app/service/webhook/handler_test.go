package webhook

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
)

func webhookContext(t *testing.T, body string, authorization string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook/revenuecat", bytes.NewBufferString(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req
	return c
}

func TestHandleEvent_RejectsMissingSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.RevenueCat.WebhookSecret = "whsec_test"
	h := NewHandler(cfg, nil, nil, zap.NewNop().Sugar())

	err := h.HandleEvent(webhookContext(t, `{"event":{"type":"TEST"}}`, ""))
	require.ErrorIs(t, err, ErrUnauthorized)

	err = h.HandleEvent(webhookContext(t, `{"event":{"type":"TEST"}}`, "wrong"))
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestHandleEvent_RejectsMalformedPayload(t *testing.T) {
	cfg := &config.Config{}
	cfg.RevenueCat.WebhookSecret = "whsec_test"
	h := NewHandler(cfg, nil, nil, zap.NewNop().Sugar())

	err := h.HandleEvent(webhookContext(t, `not json`, "whsec_test"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
}
