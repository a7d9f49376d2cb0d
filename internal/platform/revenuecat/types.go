package revenuecat

import (
	"fmt"
	"strings"
	"time"
)

// SubscriberResponse is the envelope returned by subscriber-scoped
// endpoints.
type SubscriberResponse struct {
	RequestDateMs int64      `json:"request_date_ms"`
	Subscriber    Subscriber `json:"subscriber"`
}

type Subscriber struct {
	OriginalAppUserID string                 `json:"original_app_user_id"`
	FirstSeen         string                 `json:"first_seen"`
	Entitlements      map[string]Entitlement `json:"entitlements"`
}

// Entitlement is the vendor's view of one grant. ExpiresDate is null for
// lifetime grants; a past ExpiresDate means the grant has lapsed.
type Entitlement struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	PurchaseDate      time.Time  `json:"purchase_date"`
	ProductIdentifier string     `json:"product_identifier"`
}

type OfferingsResponse struct {
	CurrentOfferingID string     `json:"current_offering_id"`
	Offerings         []Offering `json:"offerings"`
}

type Offering struct {
	Identifier string           `json:"identifier"`
	Packages   []OfferingTariff `json:"packages"`
}

type OfferingTariff struct {
	Identifier                string `json:"identifier"`
	PlatformProductIdentifier string `json:"platform_product_identifier"`
}

// APIError is a non-2xx response from the vendor, carrying its backend
// error code and message.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("revenuecat: %s (code=%d, status=%d)", e.Message, e.Code, e.StatusCode)
}

// offeringsPendingPatterns are the messages the vendor returns while
// product/offering setup on the dashboard side is unfinished. This
// condition is expected during onboarding and must not surface as an
// error.
var offeringsPendingPatterns = []string{
	"no products registered",
	"could not be fetched from the RevenueCat backend",
	"offerings is empty",
}

// IsConfigurationPending reports whether err is the vendor's known-benign
// "not yet configured on the platform side" condition.
func IsConfigurationPending(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	for _, p := range offeringsPendingPatterns {
		if strings.Contains(apiErr.Message, p) {
			return true
		}
	}
	return false
}

// IsPurchaseCancelled reports whether err represents a purchase the user
// abandoned at the store. Cancellation is not an error outcome.
func IsPurchaseCancelled(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	return apiErr.Code == codePurchaseCancelled ||
		strings.Contains(strings.ToLower(apiErr.Message), "purchase was cancelled")
}

const codePurchaseCancelled = 7103
