package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types RevenueCat delivers. Lifecycle events all trigger a
// reconcile; the server re-reads the subscriber instead of trusting the
// event payload.
const (
	EventInitialPurchase = "INITIAL_PURCHASE"
	EventRenewal         = "RENEWAL"
	EventCancellation    = "CANCELLATION"
	EventUncancellation  = "UNCANCELLATION"
	EventExpiration      = "EXPIRATION"
	EventProductChange   = "PRODUCT_CHANGE"
	EventBillingIssue    = "BILLING_ISSUE"
	EventTest            = "TEST"
)

// Event is the inner payload of a RevenueCat webhook delivery.
type Event struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	AppUserID        string `json:"app_user_id"`
	ProductID        string `json:"product_id"`
	EntitlementID    string `json:"entitlement_id"`
	EventTimestampMs int64  `json:"event_timestamp_ms"`
	Store            string `json:"store"`
	Environment      string `json:"environment"`
}

type payload struct {
	APIVersion string `json:"api_version"`
	Event      Event  `json:"event"`
}

// EventTime converts the millisecond timestamp, falling back to now for
// events that carry none.
func (e *Event) EventTime() time.Time {
	if e.EventTimestampMs == 0 {
		return time.Now()
	}
	return time.UnixMilli(e.EventTimestampMs)
}

// NeedsReconcile reports whether the event type changes subscription
// state. Test pings and unknown future types do not.
func (e *Event) NeedsReconcile() bool {
	switch e.Type {
	case EventInitialPurchase, EventRenewal, EventCancellation,
		EventUncancellation, EventExpiration, EventProductChange, EventBillingIssue:
		return true
	}
	return false
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if p.Event.Type == "" {
		return nil, fmt.Errorf("webhook payload has no event type")
	}
	return &p.Event, nil
}
