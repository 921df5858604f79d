package payment

import "errors"

var (
	// ErrUnknownOrder is returned when a widget callback references an
	// order no handler is registered for.
	ErrUnknownOrder = errors.New("payment: unknown order")

	// ErrWidgetUnavailable is returned when the provider widget cannot be
	// opened.
	ErrWidgetUnavailable = errors.New("payment: widget unavailable")
)
