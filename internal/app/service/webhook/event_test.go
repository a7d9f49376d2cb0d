package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"api_version": "1.0",
		"event": {
			"id": "evt-123",
			"type": "RENEWAL",
			"app_user_id": "user-1",
			"product_id": "camp_trail_monthly",
			"event_timestamp_ms": 1750000000000,
			"store": "APP_STORE",
			"environment": "PRODUCTION"
		}
	}`)

	event, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt-123", event.ID)
	assert.Equal(t, EventRenewal, event.Type)
	assert.Equal(t, "user-1", event.AppUserID)
	assert.Equal(t, time.UnixMilli(1750000000000), event.EventTime())
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = ParseEvent([]byte(`{"event": {}}`))
	require.Error(t, err)
}

func TestEvent_NeedsReconcile(t *testing.T) {
	reconciling := []string{
		EventInitialPurchase, EventRenewal, EventCancellation,
		EventUncancellation, EventExpiration, EventProductChange, EventBillingIssue,
	}
	for _, typ := range reconciling {
		assert.True(t, (&Event{Type: typ}).NeedsReconcile(), typ)
	}

	assert.False(t, (&Event{Type: EventTest}).NeedsReconcile())
	assert.False(t, (&Event{Type: "SOME_FUTURE_TYPE"}).NeedsReconcile())
}

func TestEvent_EventTimeFallsBackToNow(t *testing.T) {
	e := &Event{}
	assert.WithinDuration(t, time.Now(), e.EventTime(), time.Second)
}
