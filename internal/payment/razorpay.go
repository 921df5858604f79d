package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/domain"
)

// razorpayClient is the slice of the remote data store client the popup
// adapter needs.
type razorpayClient interface {
	CreateRazorpayOrder(ctx context.Context, params api.RazorpayOrderParams) (*api.RazorpayOrder, error)
	VerifyRazorpayPayment(ctx context.Context, params api.RazorpayVerifyParams) error
}

// RazorpayGateway is the popup-widget adapter. The order is minted server
// side, the provider widget collects the payment, and the widget's token
// is verified server side before the payment counts.
type RazorpayGateway struct {
	client  razorpayClient
	factory WidgetFactory
	keyID   string
	logger  *slog.Logger
}

// NewRazorpayGateway creates the popup-widget adapter.
func NewRazorpayGateway(client razorpayClient, factory WidgetFactory, keyID string, logger *slog.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		client:  client,
		factory: factory,
		keyID:   keyID,
		logger:  logger,
	}
}

func (g *RazorpayGateway) Name() domain.PaymentMethod {
	return domain.MethodRazorpay
}

// CreateOrder mints a server-side order for the widget to collect against.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	order, err := g.client.CreateRazorpayOrder(ctx, api.RazorpayOrderParams{
		Product:    params.Product,
		Amount:     params.Amount,
		Currency:   params.Currency,
		Contact:    params.Contact,
		CouponCode: params.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("razorpay order created",
		slog.String("order_id", order.OrderID),
		slog.Int64("amount", order.Amount))

	return &Order{
		ProviderOrderID: order.OrderID,
		Amount:          order.Amount,
		Currency:        order.Currency,
	}, nil
}

// OpenWidget hands the minted order to the provider widget. The widget is
// provider-owned; after this returns, the next event is one of the
// handlers firing, or nothing at all if the customer walks away.
func (g *RazorpayGateway) OpenWidget(ctx context.Context, order *Order, params CreateOrderParams, handlers WidgetHandlers) error {
	if g.factory == nil {
		return domain.WrapError(ErrWidgetUnavailable, domain.EPAYMENT, "payment.razorpay.open_widget",
			"Payment is temporarily unavailable. Please try again later.")
	}

	return g.factory.Open(ctx, WidgetOptions{
		KeyID:       g.keyID,
		OrderID:     order.ProviderOrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        "Luma Academy",
		Description: params.Product.Name,
		Prefill:     params.Contact,
	}, handlers)
}

// CompletePayment forwards the widget's token for server-side signature
// verification. One-shot: on failure the token is dead and the customer
// must re-attempt from a fresh order.
func (g *RazorpayGateway) CompletePayment(ctx context.Context, params CompletePaymentParams) (*Verification, error) {
	err := g.client.VerifyRazorpayPayment(ctx, api.RazorpayVerifyParams{
		OrderID:   params.Widget.OrderID,
		PaymentID: params.Widget.PaymentID,
		Signature: params.Widget.Signature,
		Contact:   params.Contact,
		Product:   params.Product,
	})
	if err != nil {
		return nil, err
	}

	return &Verification{
		ReceiptID:       uuid.NewString(),
		ProviderOrderID: params.Widget.OrderID,
	}, nil
}
