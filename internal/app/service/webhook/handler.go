package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/eventlog"
	subscription "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/subscription"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

const providerName = "revenuecat"

// ErrUnauthorized means the delivery did not carry the shared secret.
var ErrUnauthorized = errors.New("webhook authorization failed")

// Handler ingests RevenueCat webhook deliveries. Every state-changing
// event is answered by re-reading the subscriber and reconciling; the
// event payload itself is only logged, never trusted.
type Handler struct {
	cfg      *config.Config
	eventSvc *eventlog.Service
	subSvc   *subscription.Service
	Logger   *zap.SugaredLogger
}

func NewHandler(cfg *config.Config, events *eventlog.Service, sub *subscription.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, eventSvc: events, subSvc: sub, Logger: log}
}

func (h *Handler) HandleEvent(c *gin.Context) (resErr error) {
	if secret := h.cfg.RevenueCat.WebhookSecret; secret != "" {
		if c.GetHeader("Authorization") != secret {
			return ErrUnauthorized
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("failed to read webhook body: %w", err)
	}

	event, err := ParseEvent(body)
	if err != nil {
		return err
	}

	var traceID string
	if v, ok := c.Get("traceID"); ok {
		if s, ok2 := v.(string); ok2 {
			traceID = s
		}
	}
	userID := func() *string {
		if event.AppUserID == "" {
			return nil
		}
		return lo.ToPtr(event.AppUserID)
	}

	h.eventSvc.Save(c.Request.Context(), &models.BillingEventLog{
		Provider:  providerName,
		UserID:    userID(),
		TraceID:   traceID,
		EventID:   event.ID,
		EventType: event.Type,
		EventTime: event.EventTime(),
		Data:      datatypes.JSON(body),
		Status:    models.BillingEventLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{"reconciled": resErr == nil && event.NeedsReconcile()}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.BillingEventLogStatusHandled
		if resErr != nil {
			status = models.BillingEventLogStatusHandleFailed
		}
		h.eventSvc.Save(c.Request.Context(), &models.BillingEventLog{
			Provider:  providerName,
			UserID:    userID(),
			TraceID:   traceID,
			EventID:   event.ID,
			EventType: event.Type,
			EventTime: event.EventTime(),
			Data:      datatypes.JSON(body),
			Result:    func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:    status,
		})
	}()

	if !event.NeedsReconcile() {
		h.Logger.Infow("ignoring webhook event", "type", event.Type, "id", event.ID)
		return nil
	}

	if event.AppUserID == "" {
		resErr = fmt.Errorf("event %s has no app user id", event.ID)
		return resErr
	}

	h.Logger.Infow("got billing event", "type", event.Type, "user_id", event.AppUserID)
	resErr = h.subSvc.ReconcileToBackend(c.Request.Context(), event.AppUserID, types.SubscriptionChangeReasonWebhook)
	return resErr
}
