package revenuecat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSubscriber_ParsesEntitlements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscribers/user-1", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"request_date_ms": 1735689600000,
			"subscriber": {
				"original_app_user_id": "user-1",
				"entitlements": {
					"trailLeader": {
						"expires_date": "2030-01-01T00:00:00Z",
						"purchase_date": "2025-01-01T00:00:00Z",
						"product_identifier": "camp_trail_monthly"
					},
					"weekendCamper": {
						"expires_date": "2023-01-01T00:00:00Z",
						"purchase_date": "2022-12-01T00:00:00Z",
						"product_identifier": "camp_weekend_monthly"
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	resp, err := c.GetSubscriber(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, resp.Subscriber.Entitlements, 2)

	trail := resp.Subscriber.Entitlements["trailLeader"]
	require.Equal(t, "camp_trail_monthly", trail.ProductIdentifier)
	require.NotNil(t, trail.ExpiresDate)
	require.Equal(t, 2030, trail.ExpiresDate.Year())
}

func TestPostReceipt_SetsPlatformHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/receipts", r.URL.Path)
		require.Equal(t, "ios", r.Header.Get("X-Platform"))
		_, _ = w.Write([]byte(`{"subscriber": {"entitlements": {}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	resp, err := c.PostReceipt(context.Background(), &PostReceiptRequest{
		AppUserID:  "user-1",
		FetchToken: "receipt-data",
		Platform:   "ios",
	})
	require.NoError(t, err)
	require.Empty(t, resp.Subscriber.Entitlements)
}

func TestPostReceipt_RequiresFetchToken(t *testing.T) {
	c := NewClient("http://unused", "sk_test")
	_, err := c.PostReceipt(context.Background(), &PostReceiptRequest{AppUserID: "user-1"})
	require.Error(t, err)
}

func TestDo_MapsVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": 7103, "message": "The purchase was cancelled."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	_, err := c.GetSubscriber(context.Background(), "user-1")
	require.Error(t, err)
	require.True(t, IsPurchaseCancelled(err))
	require.False(t, IsConfigurationPending(err))
}

func TestIsConfigurationPending_MatchesKnownMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "dashboard not set up",
			err:  &APIError{StatusCode: 404, Message: "There are no products registered in the RevenueCat dashboard for offering default"},
			want: true,
		},
		{
			name: "offerings empty",
			err:  &APIError{StatusCode: 200, Message: "offerings is empty"},
			want: true,
		},
		{
			name: "unrelated vendor error",
			err:  &APIError{StatusCode: 401, Message: "Invalid API key."},
			want: false,
		},
		{
			name: "plain error",
			err:  context.DeadlineExceeded,
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsConfigurationPending(tc.err))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.GetSubscriber(context.Background(), "user-1")
	require.Error(t, err)
}
