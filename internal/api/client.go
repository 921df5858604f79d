// Package api is the HTTP client for the remote data store: the backend
// that serves catalog content, adjudicates coupons, and mints/verifies
// payment orders. The backend is treated as untrusted, possibly slow and
// possibly failing; every method translates transport faults into domain
// errors so raw transport errors never cross a component boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pvandermeer/luma/internal/domain"
)

// Client talks to the remote data store.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a remote data store client.
// The 30s timeout covers the whole request; expiry surfaces as an
// EUNAVAILABLE domain error like any other transport failure.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// FetchResource retrieves one catalog/content payload by its logical key.
// The payload shape varies by key; callers decode what they need.
func (c *Client) FetchResource(ctx context.Context, key string) (json.RawMessage, error) {
	var payload json.RawMessage
	path := "/content/" + url.PathEscape(key)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ValidateCoupon asks the backend whether a code is valid for a product.
// A server-reported invalid code is NOT an error: it comes back as a
// decision with Valid=false so the caller can distinguish "bad code" from
// "validation service unreachable".
func (c *Client) ValidateCoupon(ctx context.Context, params ValidateCouponParams) (*CouponDecision, error) {
	var resp couponResponse
	if err := c.postJSON(ctx, "/coupons/validate", couponRequest{
		Code:      params.Code,
		ProductID: params.ProductID,
	}, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, domain.Unavailable(fmt.Errorf("server reported failure: %s", resp.Error),
			"api.validate_coupon", "Failed to validate coupon")
	}

	return &CouponDecision{
		Valid:           resp.Valid,
		DiscountAmount:  resp.Discount.Amount,
		DiscountPercent: resp.Discount.Percent,
		Reason:          resp.Error,
	}, nil
}

// CreateRazorpayOrder mints a server-side order for the popup gateway.
func (c *Client) CreateRazorpayOrder(ctx context.Context, params RazorpayOrderParams) (*RazorpayOrder, error) {
	var resp razorpayOrderResponse
	if err := c.postJSON(ctx, "/payments/razorpay/orders", razorpayOrderRequest{
		ProductID:   params.Product.ID,
		ProductName: params.Product.Name,
		Amount:      params.Amount,
		Currency:    params.Currency,
		Contact:     params.Contact,
		CouponCode:  params.CouponCode,
	}, &resp); err != nil {
		return nil, err
	}

	if !resp.Success || resp.OrderID == "" {
		return nil, domain.Errorf(domain.EPAYMENT, "api.create_razorpay_order",
			"Could not start payment. Please try again.")
	}

	return &RazorpayOrder{
		OrderID:  resp.OrderID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
	}, nil
}

// VerifyRazorpayPayment forwards the widget's payment token for server-side
// signature verification and capture. One-shot per payment attempt: the
// caller must never resubmit a token against the same order.
func (c *Client) VerifyRazorpayPayment(ctx context.Context, params RazorpayVerifyParams) error {
	var resp statusResponse
	if err := c.postJSON(ctx, "/payments/razorpay/verify", razorpayVerifyRequest{
		OrderID:     params.OrderID,
		PaymentID:   params.PaymentID,
		Signature:   params.Signature,
		Contact:     params.Contact,
		ProductID:   params.Product.ID,
		ProductName: params.Product.Name,
	}, &resp); err != nil {
		return err
	}

	if !resp.Success {
		return domain.Errorf(domain.EPAYMENT, "api.verify_razorpay_payment",
			"%s", verificationFailureMessage(resp.Error))
	}
	return nil
}

// CreatePayPalOrder mints a provider-side order id for the embedded button.
func (c *Client) CreatePayPalOrder(ctx context.Context, params PayPalOrderParams) (string, error) {
	var resp paypalOrderResponse
	if err := c.postJSON(ctx, "/payments/paypal/orders", paypalOrderRequest{
		ProductID:  params.Product.ID,
		Contact:    params.Contact,
		CouponCode: params.CouponCode,
	}, &resp); err != nil {
		return "", err
	}

	if !resp.Success || resp.OrderID == "" {
		return "", domain.Errorf(domain.EPAYMENT, "api.create_paypal_order",
			"Could not start payment. Please try again.")
	}
	return resp.OrderID, nil
}

// CapturePayPalOrder confirms an approved embedded-button payment.
func (c *Client) CapturePayPalOrder(ctx context.Context, orderID string) error {
	var resp statusResponse
	path := "/payments/paypal/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return err
	}

	if !resp.Success {
		return domain.Errorf(domain.EPAYMENT, "api.capture_paypal_order",
			"%s", verificationFailureMessage(resp.Error))
	}
	return nil
}

// SubmitLead records an installment inquiry lead.
func (c *Client) SubmitLead(ctx context.Context, params LeadParams) (*LeadResult, error) {
	var resp leadResponse
	if err := c.postJSON(ctx, "/leads", leadRequest{
		Contact:     params.Contact,
		ProductID:   params.ProductID,
		ProductName: params.ProductName,
		Source:      params.Source,
	}, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, domain.Unavailable(fmt.Errorf("server reported failure: %s", resp.Message),
			"api.submit_lead", "Could not submit your inquiry. Please try again.")
	}

	msg := resp.Message
	if msg == "" {
		msg = "Thank you! We will contact you shortly."
	}
	return &LeadResult{Message: msg}, nil
}

// verificationFailureMessage directs the customer to support: money may have
// moved on the provider side even though verification failed, and only the
// server can reconcile that.
func verificationFailureMessage(serverError string) string {
	if serverError != "" {
		return serverError
	}
	return "Payment verification failed. Please contact support before retrying."
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.Internal(err, "api.get", "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Internal(err, "api.post", "failed to marshal request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.Internal(err, "api.post", "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("remote data store request failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return domain.Unavailable(err, "api.do", "The server could not be reached. Please try again.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Unavailable(err, "api.do", "The server could not be reached. Please try again.")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("remote data store returned error status",
			slog.String("path", path), slog.Int("status", resp.StatusCode))
		return domain.Unavailable(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
			"api.do", "The server could not be reached. Please try again.")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Internal(err, "api.do", "failed to decode server response")
	}
	return nil
}
