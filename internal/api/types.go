package api

import (
	"github.com/pvandermeer/luma/internal/domain"
)

// ValidateCouponParams contains parameters for coupon validation.
type ValidateCouponParams struct {
	Code      string
	ProductID string
}

// CouponDecision is the backend's verdict on a coupon code.
// Valid=false with a Reason is a definitive rejection, not a fault.
type CouponDecision struct {
	Valid           bool
	DiscountAmount  int64
	DiscountPercent float64
	Reason          string
}

// RazorpayOrderParams contains parameters for creating a popup-gateway order.
type RazorpayOrderParams struct {
	Product    domain.ProductRef
	Amount     int64
	Currency   string
	Contact    domain.Contact
	CouponCode string
}

// RazorpayOrder is a server-minted order for the popup gateway.
type RazorpayOrder struct {
	OrderID  string
	Amount   int64
	Currency string
}

// RazorpayVerifyParams contains the widget's payment token plus the
// customer and product context the server needs to verify and record it.
type RazorpayVerifyParams struct {
	OrderID   string
	PaymentID string
	Signature string
	Contact   domain.Contact
	Product   domain.ProductRef
}

// PayPalOrderParams contains parameters for creating an embedded-button order.
type PayPalOrderParams struct {
	Product    domain.ProductRef
	Contact    domain.Contact
	CouponCode string
}

// LeadParams contains an installment inquiry submission.
type LeadParams struct {
	Contact     domain.Contact
	ProductID   string
	ProductName string
	Source      string
}

// LeadResult carries the backend's acknowledgement message.
type LeadResult struct {
	Message string
}

// Wire types. Field names follow the backend contract; the exported types
// above are what the rest of the core sees.

type couponRequest struct {
	Code      string `json:"code"`
	ProductID string `json:"product_id"`
}

type couponDiscount struct {
	Amount  int64   `json:"amount"`
	Percent float64 `json:"percent"`
}

type couponResponse struct {
	Success  bool           `json:"success"`
	Valid    bool           `json:"valid"`
	Discount couponDiscount `json:"discount"`
	Error    string         `json:"error"`
}

type razorpayOrderRequest struct {
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Contact     domain.Contact `json:"contact"`
	CouponCode  string         `json:"coupon_code,omitempty"`
}

type razorpayOrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type razorpayVerifyRequest struct {
	OrderID     string         `json:"razorpay_order_id"`
	PaymentID   string         `json:"razorpay_payment_id"`
	Signature   string         `json:"razorpay_signature"`
	Contact     domain.Contact `json:"contact"`
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
}

type paypalOrderRequest struct {
	ProductID  string         `json:"product_id"`
	Contact    domain.Contact `json:"contact"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

type paypalOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type leadRequest struct {
	Contact     domain.Contact `json:"contact"`
	ProductID   string         `json:"product_id"`
	ProductName string         `json:"product_name"`
	Source      string         `json:"source"`
}

type leadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
