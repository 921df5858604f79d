package domain

import (
	"regexp"
	"strings"
)

// Step identifies the wizard step a checkout session is on.
// Transitions are linear: Details -> Method -> Pay. Backward navigation is
// always allowed and never loses entered data.
type Step string

const (
	StepDetails Step = "details"
	StepMethod  Step = "method"
	StepPay     Step = "pay"
)

// PaymentMethod identifies which gateway adapter completes the purchase.
type PaymentMethod string

const (
	// MethodRazorpay is the redirect/popup style gateway.
	MethodRazorpay PaymentMethod = "razorpay"

	// MethodPayPal is the embedded-button style gateway.
	MethodPayPal PaymentMethod = "paypal"
)

// ProductRef identifies the thing being purchased.
// Immutable once checkout begins; owned by the caller.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Contact holds the customer details collected on the first wizard step.
// Free text until the wizard advances past Details, immutable afterwards.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// emailPattern is deliberately loose: the server re-validates on order
// creation, this only catches obvious typos before the Method step.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the Details-step invariants.
// Failures are field-scoped so the customer can correct one field at a time.
func (c Contact) Validate() error {
	var err error
	if strings.TrimSpace(c.Name) == "" {
		err = AddFieldError(err, "name", "Please enter your name")
	}
	if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
		err = AddFieldError(err, "email", "Please enter a valid email address")
	}
	if strings.TrimSpace(c.Phone) == "" {
		err = AddFieldError(err, "phone", "Please enter your phone number")
	}
	return err
}

// AppliedDiscount describes a coupon discount accepted by the server.
// Exactly one of AmountOff or Percent is normally set; when both are set
// AmountOff wins.
type AppliedDiscount struct {
	Code      string  `json:"code"`
	AmountOff int64   `json:"amount_off,omitempty"`
	Percent   float64 `json:"percent,omitempty"`
}

// PriceQuote is the currently-applicable price for the session's product.
// Invariant: FinalAmount <= BaseAmount whenever Discount is set,
// FinalAmount == BaseAmount otherwise. Amounts are whole units of the
// single configured currency.
type PriceQuote struct {
	BaseAmount  int64            `json:"base_amount"`
	FinalAmount int64            `json:"final_amount"`
	Discount    *AppliedDiscount `json:"discount,omitempty"`
}

// NewQuote returns an undiscounted quote for the given base price.
func NewQuote(base int64) PriceQuote {
	return PriceQuote{BaseAmount: base, FinalAmount: base}
}

// Apply recomputes the final price from the base price and the discount.
// The result is clamped to [0, BaseAmount] so a misbehaving server can
// never produce a final price above the base price.
func (q *PriceQuote) Apply(d AppliedDiscount) {
	final := q.BaseAmount
	switch {
	case d.AmountOff > 0:
		final = q.BaseAmount - d.AmountOff
	case d.Percent > 0:
		final = q.BaseAmount - int64(float64(q.BaseAmount)*d.Percent/100.0)
	}
	if final < 0 {
		final = 0
	}
	if final > q.BaseAmount {
		final = q.BaseAmount
	}
	q.FinalAmount = final
	q.Discount = &d
}

// Reset removes any discount and restores the exact base price.
func (q *PriceQuote) Reset() {
	q.FinalAmount = q.BaseAmount
	q.Discount = nil
}

// Discounted reports whether a coupon discount is currently applied.
func (q PriceQuote) Discounted() bool {
	return q.Discount != nil
}
