// Package payment defines the gateway contract and its two adapters: a
// popup-widget provider and an embedded-button provider. Adapters mint
// orders and verify completions through the remote data store; they never
// hold session state, so the checkout controller stays the single owner
// of the processing flag.
package payment

import (
	"context"

	"github.com/pvandermeer/luma/internal/domain"
)

// CreateOrderParams contains everything an adapter needs to mint an order.
type CreateOrderParams struct {
	Contact    domain.Contact
	Product    domain.ProductRef
	Amount     int64
	Currency   string
	CouponCode string

	// IdempotencyKey is minted once per payment attempt. A retry after a
	// failed attempt gets a fresh key and a fresh order.
	IdempotencyKey string
}

// Order is a provider-side order reference.
type Order struct {
	ProviderOrderID string `json:"provider_order_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// WidgetResponse is the token set a provider widget hands back on a
// successful payment. One-shot: it must be forwarded for verification
// exactly once and never resubmitted.
type WidgetResponse struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// CompletePaymentParams carries a provider completion back to the server
// for verification or capture.
type CompletePaymentParams struct {
	OrderID string
	Widget  WidgetResponse
	Contact domain.Contact
	Product domain.ProductRef
}

// Verification is the outcome of a successful server-side verification.
type Verification struct {
	ReceiptID       string
	ProviderOrderID string
}

// Gateway is the contract both payment providers implement.
type Gateway interface {
	// Name identifies the provider for method selection and logging.
	Name() domain.PaymentMethod

	// CreateOrder mints a provider order for the given amount. Failures
	// come back as EPAYMENT or EUNAVAILABLE domain errors.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)

	// CompletePayment verifies or captures a provider completion. One-shot
	// per attempt; on failure the caller must start over with a new order.
	CompletePayment(ctx context.Context, params CompletePaymentParams) (*Verification, error)
}

// WidgetHandlers are the continuations a provider widget invokes. Exactly
// one of them fires per widget open.
type WidgetHandlers struct {
	OnSuccess func(WidgetResponse)
	OnDismiss func()
}

// WidgetOptions configures one widget open.
type WidgetOptions struct {
	KeyID       string
	OrderID     string
	Amount      int64
	Currency    string
	Name        string
	Description string
	Prefill     domain.Contact
}

// WidgetFactory opens the provider-owned checkout widget. The real widget
// lives outside this process; the factory is the seam that lets callback
// endpoints and tests stand in for it.
type WidgetFactory interface {
	Open(ctx context.Context, opts WidgetOptions, handlers WidgetHandlers) error
}

// WidgetGateway is a gateway whose completion arrives through a widget it
// opens itself, rather than through a direct caller.
type WidgetGateway interface {
	Gateway

	// OpenWidget hands a minted order to the provider widget. The handlers
	// carry the session guard; the gateway never calls them itself.
	OpenWidget(ctx context.Context, order *Order, params CreateOrderParams, handlers WidgetHandlers) error
}
