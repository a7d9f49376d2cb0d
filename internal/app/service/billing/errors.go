package billing

import "errors"

var (
	// ErrNotConfigured is returned when a purchase, restore or identify is
	// attempted while the adapter is not enabled. This is an integration
	// mistake and fails fast rather than silently no-oping.
	ErrNotConfigured = errors.New("billing adapter is not configured")

	// ErrIdentify wraps failures binding the platform subscriber to the
	// signed-in identity.
	ErrIdentify = errors.New("failed to identify billing user")

	// ErrPurchase wraps non-cancellation purchase failures.
	ErrPurchase = errors.New("purchase failed")

	// ErrRestore wraps non-cancellation restore failures.
	ErrRestore = errors.New("restore failed")

	// ErrInvalidReceipt marks store payloads rejected at the adapter
	// boundary before reaching the billing platform.
	ErrInvalidReceipt = errors.New("invalid store receipt")
)
