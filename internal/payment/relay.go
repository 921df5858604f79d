package payment

import (
	"context"
	"log/slog"
	"sync"
)

// CallbackRelay is the production WidgetFactory. The real widget runs in
// the customer's browser; its success and dismiss events arrive as HTTP
// callbacks. Open parks the handlers keyed by provider order id, and the
// callback endpoints relay into them.
type CallbackRelay struct {
	mu       sync.Mutex
	handlers map[string]WidgetHandlers
	logger   *slog.Logger
}

// NewCallbackRelay creates a callback relay.
func NewCallbackRelay(logger *slog.Logger) *CallbackRelay {
	return &CallbackRelay{
		handlers: make(map[string]WidgetHandlers),
		logger:   logger,
	}
}

// Open registers the handlers for one widget session. Re-opening the same
// order replaces the previous handlers.
func (r *CallbackRelay) Open(ctx context.Context, opts WidgetOptions, handlers WidgetHandlers) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[opts.OrderID] = handlers
	r.logger.Info("payment widget opened",
		slog.String("order_id", opts.OrderID),
		slog.Int64("amount", opts.Amount))
	return nil
}

// Success relays a widget success callback. The handlers are consumed;
// a second callback for the same order is an unknown-order error.
func (r *CallbackRelay) Success(resp WidgetResponse) error {
	h, ok := r.take(resp.OrderID)
	if !ok {
		return ErrUnknownOrder
	}
	if h.OnSuccess != nil {
		h.OnSuccess(resp)
	}
	return nil
}

// Dismiss relays a widget dismiss callback.
func (r *CallbackRelay) Dismiss(orderID string) error {
	h, ok := r.take(orderID)
	if !ok {
		return ErrUnknownOrder
	}
	if h.OnDismiss != nil {
		h.OnDismiss()
	}
	return nil
}

func (r *CallbackRelay) take(orderID string) (WidgetHandlers, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handlers[orderID]
	if ok {
		delete(r.handlers, orderID)
	}
	return h, ok
}
