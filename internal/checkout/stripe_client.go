package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/playgate-app/playgate-backend/pkg/stripe"
)

// GatewayClient exposes the subset of gateway operations the checkout and
// refund flows require.
type GatewayClient interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type gatewayClientWrapper struct{}

// NewGatewayClient wraps the configured Stripe client so services can be tested.
func NewGatewayClient(api *pkgstripe.Client) GatewayClient {
	if api == nil {
		return nil
	}
	return &gatewayClientWrapper{}
}

func (w *gatewayClientWrapper) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}

func (w *gatewayClientWrapper) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params != nil {
		params.Context = ctx
	}
	return refund.New(params)
}
