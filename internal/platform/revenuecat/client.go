package revenuecat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// API is the subset of the vendor's REST surface the billing adapter
// needs. Kept as an interface so the adapter can be tested against stubs.
type API interface {
	// GetSubscriber fetches (and implicitly creates) the subscriber record.
	GetSubscriber(ctx context.Context, appUserID string) (*SubscriberResponse, error)
	// PostReceipt submits a store receipt, granting whatever it entitles.
	PostReceipt(ctx context.Context, req *PostReceiptRequest) (*SubscriberResponse, error)
	// GetOfferings returns the purchasable packages currently offered.
	GetOfferings(ctx context.Context, appUserID string) (*OfferingsResponse, error)
	// UpdateSubscriberAttributes sets reserved or custom attributes.
	UpdateSubscriberAttributes(ctx context.Context, appUserID string, attrs map[string]AttributeValue) error
}

type PostReceiptRequest struct {
	AppUserID  string `json:"app_user_id"`
	FetchToken string `json:"fetch_token"`
	// Platform is sent as the X-Platform header: "ios" or "android".
	Platform  string `json:"-"`
	IsRestore bool   `json:"is_restore,omitempty"`
}

type AttributeValue struct {
	Value string `json:"value"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetSubscriber(ctx context.Context, appUserID string) (*SubscriberResponse, error) {
	var out SubscriberResponse
	path := "/subscribers/" + url.PathEscape(appUserID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PostReceipt(ctx context.Context, req *PostReceiptRequest) (*SubscriberResponse, error) {
	if req == nil || req.AppUserID == "" || req.FetchToken == "" {
		return nil, fmt.Errorf("post receipt: app_user_id and fetch_token are required")
	}
	headers := map[string]string{"X-Platform": req.Platform}
	var out SubscriberResponse
	if err := c.do(ctx, http.MethodPost, "/receipts", req, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOfferings(ctx context.Context, appUserID string) (*OfferingsResponse, error) {
	var out OfferingsResponse
	path := "/subscribers/" + url.PathEscape(appUserID) + "/offerings"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSubscriberAttributes(ctx context.Context, appUserID string, attrs map[string]AttributeValue) error {
	path := "/subscribers/" + url.PathEscape(appUserID) + "/attributes"
	body := map[string]any{"attributes": attrs}
	return c.do(ctx, http.MethodPost, path, body, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("revenuecat request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
