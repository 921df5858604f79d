// Package checkout owns the wizard state machine: Details -> Method ->
// Pay, with coupon application on the first step and payment delegated to
// a gateway adapter on the last. The controller is the single writer of
// session state; async gateway callbacks re-enter through epoch-guarded
// handlers so a late response can never mutate a session that has since
// been reset.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pvandermeer/luma/internal/coupon"
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/notify"
	"github.com/pvandermeer/luma/internal/payment"
	"github.com/pvandermeer/luma/internal/telemetry"
)

// closeResetDelay is how long a closed session keeps its state before the
// reset fires. The delay exists so a close-then-immediately-reopen does
// not flash default content while the close animation runs.
const closeResetDelay = 300 * time.Millisecond

// validator is the slice of the coupon validator the controller needs.
type validator interface {
	Validate(ctx context.Context, code string, product domain.ProductRef, quote domain.PriceQuote) coupon.Result
}

// Controller drives the single checkout session.
type Controller struct {
	mu       sync.Mutex
	session  Session
	gateways map[domain.PaymentMethod]payment.Gateway
	coupons  validator
	notifier notify.Notifier
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	currency string

	// delay schedules the post-close reset. Tests replace it to fire
	// synchronously.
	delay func(d time.Duration, fn func())
}

// NewController creates the checkout controller.
func NewController(gateways map[domain.PaymentMethod]payment.Gateway, coupons validator,
	notifier notify.Notifier, metrics *telemetry.Metrics, currency string, logger *slog.Logger) *Controller {

	c := &Controller{
		gateways: gateways,
		coupons:  coupons,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		currency: currency,
		delay: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	c.session.reset(1)
	return c
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Open starts a checkout for a product at the given base price. Any
// previous session is replaced.
func (c *Controller) Open(product domain.ProductRef, basePrice int64) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.reset(c.session.Epoch + 1)
	c.session.Active = true
	c.session.Product = product
	c.session.Quote = domain.NewQuote(basePrice)

	c.metrics.CheckoutStarted()
	c.logger.Info("checkout opened",
		slog.String("product_id", product.ID), slog.Int64("base_price", basePrice))
	return c.session
}

// Close hides the wizard immediately and schedules the state reset. The
// reset is skipped if a new session opened in the meantime.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.session.Active {
		c.mu.Unlock()
		return
	}
	c.session.Active = false
	if c.session.ReceiptID == "" {
		c.metrics.CheckoutAbandoned()
	}
	epoch := c.session.Epoch
	c.mu.Unlock()

	c.delay(closeResetDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session.Epoch != epoch {
			return
		}
		c.session.reset(epoch + 1)
	})
}

// SubmitDetails validates the contact and advances to the Method step.
// On failure the session stays in Details and the field errors come back
// to the caller; nothing is partially applied.
func (c *Controller) SubmitDetails(contact domain.Contact) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Step != domain.StepDetails {
		return c.session, domain.Errorf(domain.EINVALID, "checkout.submit_details",
			"details can only be submitted from the details step")
	}
	if err := contact.Validate(); err != nil {
		return c.session, err
	}

	c.session.Contact = contact
	c.session.Step = domain.StepMethod
	c.metrics.CheckoutStep(string(domain.StepMethod))
	return c.session, nil
}

// ConfirmMethod records the chosen payment method and advances to Pay.
// Unguarded beyond method validity; a default method is always selected.
func (c *Controller) ConfirmMethod(method domain.PaymentMethod) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Step != domain.StepMethod {
		return c.session, domain.Errorf(domain.EINVALID, "checkout.confirm_method",
			"method can only be chosen from the method step")
	}
	if _, ok := c.gateways[method]; !ok {
		return c.session, domain.Errorf(domain.EINVALID, "checkout.confirm_method",
			"unknown payment method: %s", method)
	}

	c.session.Method = method
	c.session.Step = domain.StepPay
	c.metrics.CheckoutStep(string(domain.StepPay))
	return c.session, nil
}

// Back navigates to an earlier step. Always allowed, never loses entered
// data or the applied coupon.
func (c *Controller) Back(step domain.Step) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order := map[domain.Step]int{domain.StepDetails: 0, domain.StepMethod: 1, domain.StepPay: 2}
	target, ok := order[step]
	if !ok {
		return c.session, domain.Errorf(domain.EINVALID, "checkout.back", "unknown step: %s", step)
	}
	if target > order[c.session.Step] {
		return c.session, domain.Errorf(domain.EINVALID, "checkout.back",
			"cannot skip forward to %s", step)
	}

	c.session.Step = step
	return c.session, nil
}

// ApplyCoupon validates a code and, if valid, applies the discount to the
// session quote. Only available on the Details step. An invalid code or a
// validation error leaves the quote untouched.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) (coupon.Result, error) {
	c.mu.Lock()
	if c.session.Step != domain.StepDetails {
		defer c.mu.Unlock()
		return coupon.Result{}, domain.Errorf(domain.EINVALID, "checkout.apply_coupon",
			"coupons can only be applied on the details step")
	}
	epoch := c.session.Epoch
	product := c.session.Product
	quote := c.session.Quote
	c.mu.Unlock()

	res := c.coupons.Validate(ctx, code, product, quote)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Epoch != epoch {
		c.logger.Info("discarding coupon result for reset session")
		return res, nil
	}
	if res.Status == coupon.StatusValid {
		c.session.Quote = res.Quote
	}
	return res, nil
}

// RemoveCoupon reverts the quote to the unmodified base price.
func (c *Controller) RemoveCoupon() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Quote.Reset()
	return c.session
}

// UpdateBasePrice repoints the session at a new base price. Any applied
// coupon is cleared; its discount was adjudicated against the old price
// and must be re-validated.
func (c *Controller) UpdateBasePrice(basePrice int64) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Quote.BaseAmount != basePrice {
		c.session.Quote = domain.NewQuote(basePrice)
	}
	return c.session
}

// Pay creates a provider order through the selected gateway and, for the
// popup provider, opens its widget. The processing flag is raised before
// the gateway call and stays up until a terminal callback; every failure
// path drops it.
func (c *Controller) Pay(ctx context.Context) (Session, error) {
	c.mu.Lock()
	if c.session.Step != domain.StepPay {
		defer c.mu.Unlock()
		return c.session, domain.Errorf(domain.EINVALID, "checkout.pay",
			"payment can only start from the pay step")
	}
	if c.session.Processing {
		defer c.mu.Unlock()
		return c.session, domain.Errorf(domain.EINVALID, "checkout.pay",
			"a payment is already in progress")
	}

	gateway, ok := c.gateways[c.session.Method]
	if !ok {
		defer c.mu.Unlock()
		return c.session, domain.Errorf(domain.EINTERNAL, "checkout.pay",
			"no gateway registered for method: %s", c.session.Method)
	}

	c.session.Processing = true
	c.session.Order = nil
	epoch := c.session.Epoch
	params := payment.CreateOrderParams{
		Contact:        c.session.Contact,
		Product:        c.session.Product,
		Amount:         c.session.Quote.FinalAmount,
		Currency:       c.currency,
		IdempotencyKey: uuid.NewString(),
	}
	if d := c.session.Quote.Discount; d != nil {
		params.CouponCode = d.Code
	}
	c.mu.Unlock()

	c.metrics.PaymentAttempt(string(gateway.Name()))

	order, err := gateway.CreateOrder(ctx, params)
	if err != nil {
		c.metrics.PaymentFailed(string(gateway.Name()), "order")
		c.notifier.Error(domain.ErrorMessage(err))
		c.settle(epoch, func(s *Session) { s.Processing = false })
		return c.Session(), err
	}

	if wg, ok := gateway.(payment.WidgetGateway); ok {
		handlers := payment.WidgetHandlers{
			OnSuccess: func(resp payment.WidgetResponse) {
				c.completeWidgetPayment(epoch, wg, resp)
			},
			OnDismiss: func() {
				c.handleDismiss(epoch)
			},
		}
		if err := wg.OpenWidget(ctx, order, params, handlers); err != nil {
			c.metrics.PaymentFailed(string(gateway.Name()), "widget")
			c.notifier.Error(domain.ErrorMessage(err))
			c.settle(epoch, func(s *Session) { s.Processing = false })
			return c.Session(), err
		}
	}

	c.settle(epoch, func(s *Session) { s.Order = order })
	return c.Session(), nil
}

// HandleApproval completes an embedded-button payment after the customer
// approved it. The order id comes from the provider's approval callback.
func (c *Controller) HandleApproval(ctx context.Context, epoch int64, orderID string) {
	c.mu.Lock()
	if c.session.Epoch != epoch {
		c.mu.Unlock()
		c.logger.Info("discarding approval for reset session", slog.String("order_id", orderID))
		return
	}
	gateway := c.gateways[c.session.Method]
	contact := c.session.Contact
	product := c.session.Product
	c.mu.Unlock()

	if gateway == nil {
		c.logger.Error("approval arrived with no gateway selected", slog.String("order_id", orderID))
		return
	}

	verification, err := gateway.CompletePayment(ctx, payment.CompletePaymentParams{
		OrderID: orderID,
		Contact: contact,
		Product: product,
	})
	if err != nil {
		c.metrics.PaymentFailed(string(gateway.Name()), "capture")
		c.notifier.Error(domain.ErrorMessage(err))
		c.settle(epoch, func(s *Session) { s.Processing = false })
		return
	}

	c.finishPayment(epoch, gateway.Name(), verification)
}

// HandleCancel handles the embedded button's cancel callback. Not an
// error; the customer stays on the Pay step with everything intact.
func (c *Controller) HandleCancel(epoch int64) {
	if !c.settle(epoch, func(s *Session) { s.Processing = false }) {
		return
	}
	c.notifier.Info("Payment cancelled")
}

// HandleFailure handles the embedded button's SDK error callback.
func (c *Controller) HandleFailure(epoch int64, message string) {
	if !c.settle(epoch, func(s *Session) { s.Processing = false }) {
		return
	}
	if message == "" {
		message = "Payment failed. Please try again."
	}
	c.mu.Lock()
	gateway := string(c.session.Method)
	c.mu.Unlock()
	c.metrics.PaymentFailed(gateway, "sdk")
	c.notifier.Error(message)
}

// completeWidgetPayment forwards the popup widget's token for server-side
// verification. One-shot: a failed verification sends the customer back
// to the Pay step for a fresh attempt, never a token resubmission.
func (c *Controller) completeWidgetPayment(epoch int64, gateway payment.WidgetGateway, resp payment.WidgetResponse) {
	c.mu.Lock()
	if c.session.Epoch != epoch {
		c.mu.Unlock()
		c.logger.Info("discarding widget success for reset session",
			slog.String("order_id", resp.OrderID))
		return
	}
	contact := c.session.Contact
	product := c.session.Product
	c.mu.Unlock()

	verification, err := gateway.CompletePayment(context.Background(), payment.CompletePaymentParams{
		Widget:  resp,
		Contact: contact,
		Product: product,
	})
	if err != nil {
		c.metrics.PaymentFailed(string(gateway.Name()), "verify")
		c.notifier.Error(domain.ErrorMessage(err))
		c.settle(epoch, func(s *Session) { s.Processing = false })
		return
	}

	c.finishPayment(epoch, gateway.Name(), verification)
}

// handleDismiss handles the popup widget being closed without paying.
// Not an error and not worth a notification; the processing flag drops so
// the customer can try again.
func (c *Controller) handleDismiss(epoch int64) {
	if c.settle(epoch, func(s *Session) { s.Processing = false }) {
		c.logger.Info("payment widget dismissed")
	}
}

// finishPayment records a verified payment, notifies the customer and
// closes the session.
func (c *Controller) finishPayment(epoch int64, method domain.PaymentMethod, v *payment.Verification) {
	c.mu.Lock()
	if c.session.Epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.session.Processing = false
	c.session.ReceiptID = v.ReceiptID
	product := c.session.Product
	c.mu.Unlock()

	c.metrics.PaymentSucceeded(string(method))
	c.metrics.CheckoutCompleted(string(method))
	c.notifier.Success(fmt.Sprintf("Welcome to %s!", product.Name))
	c.logger.Info("payment completed",
		slog.String("method", string(method)),
		slog.String("receipt_id", v.ReceiptID),
		slog.String("provider_order_id", v.ProviderOrderID))

	c.Close()
}

// settle applies a mutation to the session if it is still the same epoch.
// Returns false when the session was reset and the mutation was dropped.
func (c *Controller) settle(epoch int64, fn func(*Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Epoch != epoch {
		return false
	}
	fn(&c.session)
	return true
}
