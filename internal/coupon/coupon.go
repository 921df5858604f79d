// Package coupon wraps the backend's coupon adjudication in a stateless,
// side-effect-free validator. The tri-state result lets the UI distinguish
// "this code is bad" from "validation itself failed, try again".
package coupon

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/domain"
)

// Status is the outcome of one validation attempt.
type Status string

const (
	// StatusValid carries a discount and the recomputed quote.
	StatusValid Status = "valid"

	// StatusInvalid is a definitive rejection; retrying the same code is
	// pointless.
	StatusInvalid Status = "invalid"

	// StatusError is a transient failure; the code may well be fine.
	StatusError Status = "error"
)

// Result is the outcome of validating one code against one product.
// Created per attempt, discarded on coupon removal or checkout close.
type Result struct {
	Status   Status                  `json:"status"`
	Reason   string                  `json:"reason,omitempty"`
	Discount *domain.AppliedDiscount `json:"discount,omitempty"`
	Quote    domain.PriceQuote       `json:"quote"`
}

// decider is the slice of the remote data store client the validator needs.
type decider interface {
	ValidateCoupon(ctx context.Context, params api.ValidateCouponParams) (*api.CouponDecision, error)
}

// Validator adjudicates coupon codes against the backend.
type Validator struct {
	client decider
	logger *slog.Logger
}

// NewValidator creates a coupon validator.
func NewValidator(client decider, logger *slog.Logger) *Validator {
	return &Validator{client: client, logger: logger}
}

// Validate normalizes code and asks the backend whether it applies to the
// product. The returned quote is recomputed from the given quote's base
// price; the input quote is never mutated. Safe to call repeatedly with
// the same inputs.
func (v *Validator) Validate(ctx context.Context, code string, product domain.ProductRef, quote domain.PriceQuote) Result {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Result{
			Status: StatusInvalid,
			Reason: "Please enter a coupon code",
			Quote:  quote,
		}
	}

	decision, err := v.client.ValidateCoupon(ctx, api.ValidateCouponParams{
		Code:      normalized,
		ProductID: product.ID,
	})
	if err != nil {
		v.logger.Warn("coupon validation failed",
			slog.String("code", normalized), slog.String("error", err.Error()))
		return Result{
			Status: StatusError,
			Reason: "Failed to validate coupon",
			Quote:  quote,
		}
	}

	if !decision.Valid {
		reason := decision.Reason
		if reason == "" {
			reason = "Invalid coupon code"
		}
		return Result{
			Status: StatusInvalid,
			Reason: reason,
			Quote:  quote,
		}
	}

	discount := domain.AppliedDiscount{
		Code:      normalized,
		AmountOff: decision.DiscountAmount,
		Percent:   decision.DiscountPercent,
	}
	discounted := domain.NewQuote(quote.BaseAmount)
	discounted.Apply(discount)

	return Result{
		Status:   StatusValid,
		Discount: &discount,
		Quote:    discounted,
	}
}
