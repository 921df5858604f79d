package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvandermeer/luma/internal/catalog"
	"github.com/pvandermeer/luma/internal/checkout"
	"github.com/pvandermeer/luma/internal/coupon"
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/intake"
	"github.com/pvandermeer/luma/internal/notify"
	"github.com/pvandermeer/luma/internal/payment"
	"github.com/pvandermeer/luma/internal/router"
)

type stubCatalog struct {
	courses []catalog.Course
	pricing json.RawMessage
}

func (s *stubCatalog) Courses(ctx context.Context) ([]catalog.Course, error) {
	return s.courses, nil
}

func (s *stubCatalog) Course(ctx context.Context, id string) (*catalog.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return &s.courses[i], nil
		}
	}
	return nil, domain.NotFound("catalog.course", "course", id)
}

func (s *stubCatalog) Pricing(ctx context.Context) (json.RawMessage, error) {
	return s.pricing, nil
}

func (s *stubCatalog) FAQ(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

type stubIntake struct {
	result *intake.InquiryResult
	err    error
}

func (s *stubIntake) SubmitInquiry(ctx context.Context, params intake.InquiryParams) (*intake.InquiryResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubValidator struct {
	result coupon.Result
}

func (s *stubValidator) Validate(ctx context.Context, code string, product domain.ProductRef, quote domain.PriceQuote) coupon.Result {
	res := s.result
	res.Quote = quote
	return res
}

type fixture struct {
	server   *httptest.Server
	razorpay *payment.MockGateway
	relay    *payment.CallbackRelay
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	relay := payment.NewCallbackRelay(logger)

	razorpay := payment.NewMockGateway(domain.MethodRazorpay)
	razorpay.OpenWidgetFunc = func(ctx context.Context, order *payment.Order, params payment.CreateOrderParams, handlers payment.WidgetHandlers) error {
		return relay.Open(ctx, payment.WidgetOptions{OrderID: order.ProviderOrderID}, handlers)
	}
	paypal := payment.NewMockGateway(domain.MethodPayPal)

	notes := &notify.Recorder{}
	controller := checkout.NewController(map[domain.PaymentMethod]payment.Gateway{
		domain.MethodRazorpay: razorpay,
		domain.MethodPayPal:   paypal,
	}, &stubValidator{result: coupon.Result{Status: coupon.StatusInvalid, Reason: "Invalid coupon code"}},
		notes, nil, "INR", logger)

	cat := &stubCatalog{
		courses: []catalog.Course{{ID: "p1", Name: "Go Bootcamp", Category: "programming", Price: 1000}},
		pricing: json.RawMessage(`{"plans":[]}`),
	}

	h := New(cat, controller, &stubIntake{result: &intake.InquiryResult{Message: "Thank you!"}}, relay, notes, logger)
	r := router.New(router.Recovery(logger))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &fixture{server: srv, razorpay: razorpay, relay: relay}
}

func (f *fixture) post(t *testing.T, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func sessionFrom(t *testing.T, decoded map[string]json.RawMessage) checkout.Session {
	t.Helper()

	var s checkout.Session
	require.NoError(t, json.Unmarshal(decoded["session"], &s))
	return s
}

var validDetails = map[string]string{
	"name": "Priya Sharma", "email": "priya@example.com", "phone": "9876543210",
}

func TestListCourses(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/api/courses")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Go Bootcamp")
}

func TestOpenCheckoutUnknownCourse(t *testing.T) {
	f := newFixture(t)

	resp, decoded := f.post(t, "/api/checkout/open", map[string]string{"product_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, `"not_found"`, string(decoded["error"]))
}

func TestSubmitDetailsValidationFields(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/checkout/open", map[string]string{"product_id": "p1"})

	resp, decoded := f.post(t, "/api/checkout/details", map[string]string{
		"name": "Priya Sharma", "email": "bad", "phone": "9876543210",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(decoded["fields"], &fields))
	assert.Contains(t, fields, "email")
	assert.Len(t, fields, 1)
}

func TestFullPopupPaymentFlow(t *testing.T) {
	f := newFixture(t)

	_, decoded := f.post(t, "/api/checkout/open", map[string]string{"product_id": "p1"})
	s := sessionFrom(t, decoded)
	assert.Equal(t, int64(1000), s.Quote.BaseAmount)

	resp, _ := f.post(t, "/api/checkout/details", validDetails)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.post(t, "/api/checkout/method", map[string]string{"method": "razorpay"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, decoded = f.post(t, "/api/checkout/pay", nil)
	s = sessionFrom(t, decoded)
	assert.True(t, s.Processing)
	require.NotNil(t, s.Order)

	_, decoded = f.post(t, "/api/payments/razorpay/success", map[string]string{
		"order_id": s.Order.ProviderOrderID, "payment_id": "pay_1", "signature": "sig",
	})
	s = sessionFrom(t, decoded)
	assert.False(t, s.Processing)

	var notes []notify.Notification
	require.NoError(t, json.Unmarshal(decoded["notifications"], &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, notify.KindSuccess, notes[0].Kind)
	assert.Equal(t, "Welcome to Go Bootcamp!", notes[0].Message)
}

func TestWidgetDismissCallback(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/checkout/open", map[string]string{"product_id": "p1"})
	f.post(t, "/api/checkout/details", validDetails)
	f.post(t, "/api/checkout/method", map[string]string{"method": "razorpay"})
	_, decoded := f.post(t, "/api/checkout/pay", nil)
	s := sessionFrom(t, decoded)

	resp, decoded := f.post(t, "/api/payments/razorpay/dismiss", map[string]string{
		"order_id": s.Order.ProviderOrderID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s = sessionFrom(t, decoded)
	assert.False(t, s.Processing)
	assert.Equal(t, domain.StepPay, s.Step)
}

func TestDismissUnknownOrder(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/api/payments/razorpay/dismiss", map[string]string{"order_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEmbeddedButtonCancelCallback(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/checkout/open", map[string]string{"product_id": "p1"})
	f.post(t, "/api/checkout/details", validDetails)
	f.post(t, "/api/checkout/method", map[string]string{"method": "paypal"})
	_, decoded := f.post(t, "/api/checkout/pay", nil)
	s := sessionFrom(t, decoded)

	_, decoded = f.post(t, "/api/payments/paypal/cancel", map[string]int64{"epoch": s.Epoch})
	s = sessionFrom(t, decoded)
	assert.False(t, s.Processing)

	var notes []notify.Notification
	require.NoError(t, json.Unmarshal(decoded["notifications"], &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, notify.KindInfo, notes[0].Kind)
}

func TestSubmitLead(t *testing.T) {
	f := newFixture(t)

	resp, decoded := f.post(t, "/api/leads", map[string]string{
		"name": "Priya Sharma", "email": "priya@example.com", "phone": "9876543210",
		"product_id": "p1", "source": "pricing_page",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"Thank you!"`, string(decoded["message"]))
}

func TestCloseThenSessionResets(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/checkout/open", map[string]string{"product_id": "p1"})

	resp, _ := f.post(t, "/api/checkout/close", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The reset fires after the close grace delay.
	assert.Eventually(t, func() bool {
		resp, err := http.Get(f.server.URL + "/api/checkout/session")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var decoded struct {
			Session checkout.Session `json:"session"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return false
		}
		s := decoded.Session
		return !s.Active && s.Step == domain.StepDetails && s.Quote.BaseAmount == 0
	}, 2*time.Second, 20*time.Millisecond)
}
