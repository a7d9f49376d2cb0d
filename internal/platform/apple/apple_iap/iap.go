package apple_iap

import (
	"context"
	"errors"
	"fmt"

	"github.com/awa/go-iap/appstore"
)

// ErrMalformedReceipt marks store payloads the App Store could not decode.
// Checked at the adapter boundary so broken client submissions fail at the
// edge instead of deep inside entitlement mapping.
var ErrMalformedReceipt = errors.New("malformed apple receipt")

type VerifyOptions struct {
	SharedSecret string
	Sandbox      bool
}

type ReceiptInfo struct {
	ProductID             string `json:"product_id"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	PurchaseDateMs        string `json:"purchase_date_ms"`
	ExpiresDateMs         string `json:"expires_date_ms"`
}

type Receipt struct {
	Status            int            `json:"status"`
	LatestReceiptInfo []*ReceiptInfo `json:"latest_receipt_info"`
}

// HasTransactions reports whether the receipt carries at least one
// completed purchase. A valid receipt with zero transactions means the
// purchase never completed at the store.
func (r *Receipt) HasTransactions() bool {
	return r != nil && len(r.LatestReceiptInfo) > 0
}

const statusMalformedReceipt = 21002

// VerifyReceipt validates a base64 receipt with the App Store verify
// endpoint and returns the decoded transactions.
func VerifyReceipt(ctx context.Context, receiptData string, opts *VerifyOptions) (*Receipt, error) {
	if opts == nil {
		return nil, errors.New("opts is nil")
	}

	client := appstore.New()
	if opts.Sandbox {
		client.ProductionURL = client.SandboxURL
	}

	var result Receipt
	err := client.Verify(ctx, appstore.IAPRequest{
		ReceiptData:            receiptData,
		Password:               opts.SharedSecret,
		ExcludeOldTransactions: true,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to verify receipt: %w", err)
	}

	if result.Status == statusMalformedReceipt {
		return nil, fmt.Errorf("%w: status=%d", ErrMalformedReceipt, result.Status)
	}
	if result.Status != 0 {
		return nil, fmt.Errorf("receipt verification rejected: status=%d", result.Status)
	}

	return &result, nil
}
