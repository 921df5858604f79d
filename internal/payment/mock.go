package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pvandermeer/luma/internal/domain"
)

// MockGateway is a mock payment gateway for testing.
// Simulates successful order and verification flows without a provider.
type MockGateway struct {
	// GatewayName is the method this mock reports from Name
	GatewayName domain.PaymentMethod

	// CreateOrderFunc allows customizing order creation behavior
	CreateOrderFunc func(ctx context.Context, params CreateOrderParams) (*Order, error)

	// CompletePaymentFunc allows customizing completion behavior
	CompletePaymentFunc func(ctx context.Context, params CompletePaymentParams) (*Verification, error)

	// OpenWidgetFunc allows customizing widget-open behavior
	OpenWidgetFunc func(ctx context.Context, order *Order, params CreateOrderParams, handlers WidgetHandlers) error

	// Orders stores created orders for retrieval
	Orders map[string]*Order

	// LastHandlers holds the handlers from the most recent OpenWidget call
	// so tests can fire widget callbacks themselves
	LastHandlers WidgetHandlers

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway(name domain.PaymentMethod) *MockGateway {
	return &MockGateway{
		GatewayName: name,
		Orders:      make(map[string]*Order),
		CallLog:     []string{},
	}
}

func (m *MockGateway) Name() domain.PaymentMethod {
	return m.GatewayName
}

// CreateOrder creates a mock order.
func (m *MockGateway) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateOrder(%d, %s)", params.Amount, params.Currency))

	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}

	order := &Order{
		ProviderOrderID: "order_" + uuid.New().String(),
		Amount:          params.Amount,
		Currency:        params.Currency,
	}
	m.Orders[order.ProviderOrderID] = order
	return order, nil
}

// OpenWidget records the handlers for the test to fire.
func (m *MockGateway) OpenWidget(ctx context.Context, order *Order, params CreateOrderParams, handlers WidgetHandlers) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("OpenWidget(%s)", order.ProviderOrderID))
	m.LastHandlers = handlers

	if m.OpenWidgetFunc != nil {
		return m.OpenWidgetFunc(ctx, order, params, handlers)
	}
	return nil
}

// CompletePayment completes a mock payment successfully.
func (m *MockGateway) CompletePayment(ctx context.Context, params CompletePaymentParams) (*Verification, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CompletePayment(%s)", params.OrderID))

	if m.CompletePaymentFunc != nil {
		return m.CompletePaymentFunc(ctx, params)
	}

	orderID := params.OrderID
	if orderID == "" {
		orderID = params.Widget.OrderID
	}
	return &Verification{
		ReceiptID:       "receipt_" + uuid.New().String(),
		ProviderOrderID: orderID,
	}, nil
}

// MockWidgetFactory is a mock widget for testing the popup adapter.
type MockWidgetFactory struct {
	// OpenFunc allows customizing open behavior
	OpenFunc func(ctx context.Context, opts WidgetOptions, handlers WidgetHandlers) error

	// LastOptions holds the options from the most recent Open call
	LastOptions WidgetOptions

	// LastHandlers holds the handlers from the most recent Open call
	LastHandlers WidgetHandlers

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockWidgetFactory creates a new mock widget factory.
func NewMockWidgetFactory() *MockWidgetFactory {
	return &MockWidgetFactory{CallLog: []string{}}
}

// Open records the open and parks the handlers for the test to fire.
func (m *MockWidgetFactory) Open(ctx context.Context, opts WidgetOptions, handlers WidgetHandlers) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("Open(%s)", opts.OrderID))
	m.LastOptions = opts
	m.LastHandlers = handlers

	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, opts, handlers)
	}
	return nil
}
