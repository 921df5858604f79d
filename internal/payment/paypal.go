package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/domain"
)

// paypalClient is the slice of the remote data store client the
// embedded-button adapter needs.
type paypalClient interface {
	CreatePayPalOrder(ctx context.Context, params api.PayPalOrderParams) (string, error)
	CapturePayPalOrder(ctx context.Context, orderID string) error
}

// PayPalGateway is the embedded-button adapter. The adapter only mints an
// order id for the button component to render; approval and cancel arrive
// as direct callbacks carrying that id.
type PayPalGateway struct {
	client   paypalClient
	clientID string
	logger   *slog.Logger
}

// NewPayPalGateway creates the embedded-button adapter.
func NewPayPalGateway(client paypalClient, clientID string, logger *slog.Logger) *PayPalGateway {
	return &PayPalGateway{
		client:   client,
		clientID: clientID,
		logger:   logger,
	}
}

func (g *PayPalGateway) Name() domain.PaymentMethod {
	return domain.MethodPayPal
}

// ClientID is the public identifier the embedding page needs to load the
// provider's button SDK.
func (g *PayPalGateway) ClientID() string {
	return g.clientID
}

// CreateOrder mints a provider order id for the button component.
// The provider computes the charge from the product and coupon server
// side; Amount is not forwarded.
func (g *PayPalGateway) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	orderID, err := g.client.CreatePayPalOrder(ctx, api.PayPalOrderParams{
		Product:    params.Product,
		Contact:    params.Contact,
		CouponCode: params.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("paypal order created", slog.String("order_id", orderID))

	return &Order{
		ProviderOrderID: orderID,
		Amount:          params.Amount,
		Currency:        params.Currency,
	}, nil
}

// CompletePayment captures an approved order.
func (g *PayPalGateway) CompletePayment(ctx context.Context, params CompletePaymentParams) (*Verification, error) {
	if params.OrderID == "" {
		return nil, domain.Errorf(domain.EPAYMENT, "payment.paypal.complete",
			"Payment approval was missing its order reference. Please contact support.")
	}

	if err := g.client.CapturePayPalOrder(ctx, params.OrderID); err != nil {
		return nil, err
	}

	return &Verification{
		ReceiptID:       uuid.NewString(),
		ProviderOrderID: params.OrderID,
	}, nil
}
