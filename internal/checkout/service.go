package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

const checkoutCurrency = "usd"

type contentReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
}

type purchaseReader interface {
	FindCompletedByUserContent(ctx context.Context, userID, contentID uuid.UUID) (*models.Purchase, error)
}

// Session is the client-facing handle for a created checkout.
type Session struct {
	SessionID   string
	CheckoutURL string
}

// Service creates gateway checkout sessions with the authoritative price.
type Service interface {
	CreateSession(ctx context.Context, userID, contentID uuid.UUID) (*Session, error)
}

type ServiceParams struct {
	ContentRepo  contentReader
	PurchaseRepo purchaseReader
	Gateway      GatewayClient
	Config       config.GatewayConfig
	Logger       *logger.Logger
}

type service struct {
	contents  contentReader
	purchases purchaseReader
	gateway   GatewayClient
	cfg       config.GatewayConfig
	logg      *logger.Logger
}

// NewService wires the checkout flow.
func NewService(params ServiceParams) (Service, error) {
	if params.ContentRepo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	if params.PurchaseRepo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	return &service{
		contents:  params.ContentRepo,
		purchases: params.PurchaseRepo,
		gateway:   params.Gateway,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// CreateSession looks up the content's price server-side, rejects free
// content and double purchases, and opens a gateway session carrying the
// user and content ids in metadata for the webhook to read back.
func (s *service) CreateSession(ctx context.Context, userID, contentID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if contentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}

	content, err := s.contents.FindByID(ctx, contentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content")
	}
	if content == nil || content.Status != enums.ContentStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}
	if content.IsFree() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free content has no checkout")
	}

	existing, err := s.purchases.FindCompletedByUserContent(ctx, userID, contentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing purchase")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "content already purchased")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:  stripe.String(s.cfg.CheckoutCancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(checkoutCurrency),
					UnitAmount: stripe.Int64(*content.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(content.Title),
					},
				},
			},
		},
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("content_id", contentID.String())

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":    userID.String(),
			"content_id": contentID.String(),
			"session_id": session.ID,
		})
		s.logg.Info(logCtx, "checkout.session_created")
	}

	return &Session{SessionID: session.ID, CheckoutURL: session.URL}, nil
}
