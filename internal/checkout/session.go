package checkout

import (
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/payment"
)

// Session is the state of the checkout wizard. There is only ever one
// live session; opening a new one replaces the old.
type Session struct {
	// Epoch identifies this session instance. Async callbacks carry the
	// epoch they were issued under; a mismatch means the session was reset
	// while the call was in flight and the callback must be discarded.
	Epoch int64 `json:"epoch"`

	// Active reports whether the wizard is visible. A closed session may
	// still hold state until the delayed reset fires.
	Active bool `json:"active"`

	Step    domain.Step          `json:"step"`
	Product domain.ProductRef    `json:"product"`
	Contact domain.Contact       `json:"contact"`
	Quote   domain.PriceQuote    `json:"quote"`
	Method  domain.PaymentMethod `json:"method"`

	// Processing is true from the moment a gateway call is issued until a
	// terminal outcome arrives. It gates the pay action so a second order
	// can never be created while one is in flight.
	Processing bool `json:"processing"`

	// Order is the in-flight provider order, if any.
	Order *payment.Order `json:"order,omitempty"`

	// ReceiptID is set once a payment has been verified.
	ReceiptID string `json:"receipt_id,omitempty"`
}

func (s *Session) reset(epoch int64) {
	*s = Session{Epoch: epoch, Step: domain.StepDetails, Method: domain.MethodRazorpay}
}
