package paymentwebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/playgate-app/playgate-backend/internal/purchases"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

// Event types this system acts on. Everything else is acknowledged and
// dropped by the router.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventChargeRefunded           = "charge.refunded"
)

const (
	metadataUserID    = "user_id"
	metadataContentID = "content_id"
)

type purchaseLedger interface {
	RecordCompletedPurchase(ctx context.Context, input purchases.RecordPurchaseInput) (*models.Purchase, error)
	RefundByProviderTransactionID(ctx context.Context, providerTransactionID string) (*models.Purchase, error)
}

// HandlerFunc processes a single verified event.
type HandlerFunc func(ctx context.Context, event *stripe.Event) error

type ServiceParams struct {
	Ledger purchaseLedger
	Logger *logger.Logger
}

// Service routes verified gateway events to registered handlers by exact
// type match. Unknown types return nil so the transport acks with 200 and
// the gateway stops retrying.
type Service struct {
	ledger   purchaseLedger
	logg     *logger.Logger
	handlers map[string]HandlerFunc
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase ledger required")
	}
	s := &Service{
		ledger:   params.Ledger,
		logg:     params.Logger,
		handlers: map[string]HandlerFunc{},
	}
	s.Register(EventCheckoutSessionCompleted, s.handleCheckoutCompleted)
	s.Register(EventChargeRefunded, s.handleChargeRefunded)
	return s, nil
}

// Register binds a handler to an exact event type string.
func (s *Service) Register(eventType string, handler HandlerFunc) {
	if eventType == "" || handler == nil {
		return
	}
	s.handlers[eventType] = handler
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	handler, ok := s.handlers[string(event.Type)]
	if !ok {
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{"event_type": string(event.Type)})
			s.logg.Info(ctx, "webhook.event_ignored")
		}
		return nil
	}
	return handler(ctx, event)
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	userID, contentID, err := parseSessionMetadata(session.Metadata)
	if err != nil {
		return err
	}

	transactionID := ""
	if session.PaymentIntent != nil {
		transactionID = session.PaymentIntent.ID
	}
	if transactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	sessionID := session.ID
	input := purchases.RecordPurchaseInput{
		ProviderTransactionID: transactionID,
		UserID:                userID,
		ContentID:             contentID,
		AmountCents:           session.AmountTotal,
	}
	if sessionID != "" {
		input.ProviderCheckoutSessionID = &sessionID
	}

	_, err = s.ledger.RecordCompletedPurchase(ctx, input)
	return err
}

func (s *Service) handleChargeRefunded(ctx context.Context, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge")
	}

	transactionID := ""
	if charge.PaymentIntent != nil {
		transactionID = charge.PaymentIntent.ID
	}
	if transactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	_, err := s.ledger.RefundByProviderTransactionID(ctx, transactionID)
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		// A refund for a charge this system never recorded. Ack and move on;
		// retrying will never make the row appear.
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{"provider_transaction_id": transactionID})
			s.logg.Warn(ctx, "webhook.refund_for_unknown_transaction")
		}
		return nil
	}
	return err
}

func parseSessionMetadata(metadata map[string]string) (uuid.UUID, uuid.UUID, error) {
	rawUser := metadata[metadataUserID]
	rawContent := metadata[metadataContentID]
	if rawUser == "" || rawContent == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata missing user or content id")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id in metadata")
	}
	contentID, err := uuid.Parse(rawContent)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content id in metadata")
	}
	return userID, contentID, nil
}
