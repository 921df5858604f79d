package coupon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/domain"
)

type mockDecider struct {
	decision   *api.CouponDecision
	err        error
	lastParams api.ValidateCouponParams
	calls      int
}

func (m *mockDecider) ValidateCoupon(ctx context.Context, params api.ValidateCouponParams) (*api.CouponDecision, error) {
	m.calls++
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.decision, nil
}

func newTestValidator(client decider) *Validator {
	return NewValidator(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testProduct = domain.ProductRef{ID: "p1", Name: "Go Bootcamp", Category: "programming"}

func TestValidate_EmptyCodeRejectedLocally(t *testing.T) {
	client := &mockDecider{}
	v := newTestValidator(client)

	res := v.Validate(context.Background(), "   ", testProduct, domain.NewQuote(1000))

	if res.Status != StatusInvalid {
		t.Errorf("Expected StatusInvalid, got: %s", res.Status)
	}
	if res.Reason != "Please enter a coupon code" {
		t.Errorf("Unexpected reason: %s", res.Reason)
	}
	if client.calls != 0 {
		t.Errorf("Expected no network call for empty code, got: %d", client.calls)
	}
}

func TestValidate_NormalizesCode(t *testing.T) {
	client := &mockDecider{decision: &api.CouponDecision{Valid: true, DiscountAmount: 100}}
	v := newTestValidator(client)

	res := v.Validate(context.Background(), "  save10 ", testProduct, domain.NewQuote(1000))

	if client.lastParams.Code != "SAVE10" {
		t.Errorf("Expected trimmed uppercase code sent, got: %q", client.lastParams.Code)
	}
	if client.lastParams.ProductID != "p1" {
		t.Errorf("Expected product id sent, got: %q", client.lastParams.ProductID)
	}
	if res.Discount == nil || res.Discount.Code != "SAVE10" {
		t.Errorf("Expected normalized code in discount, got: %+v", res.Discount)
	}
}

func TestValidate_ValidRecomputesQuote(t *testing.T) {
	client := &mockDecider{decision: &api.CouponDecision{Valid: true, DiscountAmount: 100}}
	v := newTestValidator(client)

	quote := domain.NewQuote(1000)
	res := v.Validate(context.Background(), "SAVE10", testProduct, quote)

	if res.Status != StatusValid {
		t.Fatalf("Expected StatusValid, got: %s (%s)", res.Status, res.Reason)
	}
	if res.Quote.FinalAmount != 900 {
		t.Errorf("Expected final 900, got: %d", res.Quote.FinalAmount)
	}
	if res.Quote.FinalAmount > res.Quote.BaseAmount {
		t.Error("Final price must never exceed base price")
	}
	// Input quote is never mutated.
	if quote.FinalAmount != 1000 || quote.Discounted() {
		t.Errorf("Input quote mutated: %+v", quote)
	}
}

func TestValidate_InvalidUsesServerReason(t *testing.T) {
	client := &mockDecider{decision: &api.CouponDecision{Valid: false, Reason: "Coupon expired"}}
	v := newTestValidator(client)

	res := v.Validate(context.Background(), "OLD", testProduct, domain.NewQuote(1000))

	if res.Status != StatusInvalid {
		t.Errorf("Expected StatusInvalid, got: %s", res.Status)
	}
	if res.Reason != "Coupon expired" {
		t.Errorf("Expected server reason, got: %s", res.Reason)
	}
	if res.Quote.FinalAmount != 1000 {
		t.Errorf("Invalid coupon must not touch the quote, got: %d", res.Quote.FinalAmount)
	}
}

func TestValidate_InvalidFallsBackToGenericReason(t *testing.T) {
	client := &mockDecider{decision: &api.CouponDecision{Valid: false}}
	v := newTestValidator(client)

	res := v.Validate(context.Background(), "BADCODE", testProduct, domain.NewQuote(1000))

	if res.Reason != "Invalid coupon code" {
		t.Errorf("Expected generic reason, got: %s", res.Reason)
	}
}

func TestValidate_TransportFailureIsErrorNotInvalid(t *testing.T) {
	client := &mockDecider{err: errors.New("connection reset")}
	v := newTestValidator(client)

	res := v.Validate(context.Background(), "SAVE10", testProduct, domain.NewQuote(1000))

	if res.Status != StatusError {
		t.Errorf("Expected StatusError, got: %s", res.Status)
	}
	if res.Reason != "Failed to validate coupon" {
		t.Errorf("Unexpected reason: %s", res.Reason)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	client := &mockDecider{decision: &api.CouponDecision{Valid: true, DiscountAmount: 100}}
	v := newTestValidator(client)

	first := v.Validate(context.Background(), "SAVE10", testProduct, domain.NewQuote(1000))
	second := v.Validate(context.Background(), "SAVE10", testProduct, domain.NewQuote(1000))

	if first.Status != second.Status {
		t.Errorf("Expected identical status, got: %s vs %s", first.Status, second.Status)
	}
	if first.Quote.FinalAmount != second.Quote.FinalAmount {
		t.Errorf("Expected identical quote, got: %d vs %d", first.Quote.FinalAmount, second.Quote.FinalAmount)
	}
}
