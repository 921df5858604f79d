// Package handler is the JSON facade over the checkout core: catalog
// reads, the checkout wizard, gateway callbacks and lead capture.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pvandermeer/luma/internal/catalog"
	"github.com/pvandermeer/luma/internal/checkout"
	"github.com/pvandermeer/luma/internal/coupon"
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/intake"
	"github.com/pvandermeer/luma/internal/notify"
	"github.com/pvandermeer/luma/internal/payment"
	"github.com/pvandermeer/luma/internal/router"
)

// Handler exposes the checkout core over HTTP.
type Handler struct {
	catalog    CatalogService
	controller *checkout.Controller
	intake     IntakeService
	relay      *payment.CallbackRelay
	notes      *notify.Recorder
	logger     *slog.Logger
}

// CatalogService is the catalog surface the facade needs.
type CatalogService interface {
	Courses(ctx context.Context) ([]catalog.Course, error)
	Course(ctx context.Context, id string) (*catalog.Course, error)
	Pricing(ctx context.Context) (json.RawMessage, error)
	FAQ(ctx context.Context) (json.RawMessage, error)
}

// IntakeService is the intake surface the facade needs.
type IntakeService interface {
	SubmitInquiry(ctx context.Context, params intake.InquiryParams) (*intake.InquiryResult, error)
}

// New creates the HTTP facade.
func New(catalog CatalogService, controller *checkout.Controller, intakeSvc IntakeService,
	relay *payment.CallbackRelay, notes *notify.Recorder, logger *slog.Logger) *Handler {

	return &Handler{
		catalog:    catalog,
		controller: controller,
		intake:     intakeSvc,
		relay:      relay,
		notes:      notes,
		logger:     logger,
	}
}

// Routes registers every endpoint on the router.
func (h *Handler) Routes(r *router.Router) {
	r.Get("/api/courses", h.listCourses)
	r.Get("/api/pricing", h.pricing)
	r.Get("/api/faq", h.faq)

	r.Get("/api/checkout/session", h.getSession)
	r.Post("/api/checkout/open", h.openCheckout)
	r.Post("/api/checkout/close", h.closeCheckout)
	r.Post("/api/checkout/details", h.submitDetails)
	r.Post("/api/checkout/method", h.confirmMethod)
	r.Post("/api/checkout/back", h.back)
	r.Post("/api/checkout/coupon/apply", h.applyCoupon)
	r.Post("/api/checkout/coupon/remove", h.removeCoupon)
	r.Post("/api/checkout/pay", h.pay)

	r.Post("/api/payments/razorpay/success", h.razorpaySuccess)
	r.Post("/api/payments/razorpay/dismiss", h.razorpayDismiss)
	r.Post("/api/payments/paypal/approve", h.paypalApprove)
	r.Post("/api/payments/paypal/cancel", h.paypalCancel)
	r.Post("/api/payments/paypal/error", h.paypalError)

	r.Post("/api/leads", h.submitLead)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.Courses(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

func (h *Handler) pricing(w http.ResponseWriter, r *http.Request) {
	payload, err := h.catalog.Pricing(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) faq(w http.ResponseWriter, r *http.Request) {
	payload, err := h.catalog.FAQ(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// sessionResponse is the session snapshot plus any notifications produced
// since the last drain. Single-client design: draining into whichever
// response goes out next is safe because there is only one consumer.
type sessionResponse struct {
	Session       checkout.Session      `json:"session"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

func (h *Handler) sessionResponse(s checkout.Session) sessionResponse {
	return sessionResponse{Session: s, Notifications: h.notes.Drain()}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) openCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.catalog.Course(r.Context(), req.ProductID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	s := h.controller.Open(course.Ref(), course.Price)
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) closeCheckout(w http.ResponseWriter, r *http.Request) {
	h.controller.Close()
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) submitDetails(w http.ResponseWriter, r *http.Request) {
	var req domain.Contact
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.controller.SubmitDetails(req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) confirmMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method domain.PaymentMethod `json:"method"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.controller.ConfirmMethod(req.Method)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step domain.Step `json:"step"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.controller.Back(req.Step)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.controller.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		coupon.Result
		Session checkout.Session `json:"session"`
	}{Result: res, Session: h.controller.Session()})
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	s := h.controller.RemoveCoupon()
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	s, err := h.controller.Pay(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(s))
}

func (h *Handler) razorpaySuccess(w http.ResponseWriter, r *http.Request) {
	var req payment.WidgetResponse
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.relay.Success(req); err != nil {
		h.respondError(w, domain.WrapError(err, domain.ENOTFOUND, "handler.razorpay_success",
			"No payment is waiting for this order"))
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) razorpayDismiss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.relay.Dismiss(req.OrderID); err != nil {
		h.respondError(w, domain.WrapError(err, domain.ENOTFOUND, "handler.razorpay_dismiss",
			"No payment is waiting for this order"))
		return
	}
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) paypalApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Epoch   int64  `json:"epoch"`
		OrderID string `json:"order_id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	h.controller.HandleApproval(r.Context(), req.Epoch, req.OrderID)
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) paypalCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Epoch int64 `json:"epoch"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	h.controller.HandleCancel(req.Epoch)
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) paypalError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Epoch   int64  `json:"epoch"`
		Message string `json:"message"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	h.controller.HandleFailure(req.Epoch, req.Message)
	respondJSON(w, http.StatusOK, h.sessionResponse(h.controller.Session()))
}

func (h *Handler) submitLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		domain.Contact
		ProductID string `json:"product_id"`
		Source    string `json:"source"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.intake.SubmitInquiry(r.Context(), intake.InquiryParams{
		Contact:   req.Contact,
		ProductID: req.ProductID,
		Source:    req.Source,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": result.Message})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, domain.Invalid("handler.decode", "Invalid request body"))
		return false
	}
	return true
}
