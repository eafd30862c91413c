package purchases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/logger"
	"github.com/playgate-app/playgate-backend/pkg/outbox"
	"github.com/playgate-app/playgate-backend/pkg/pagination"
)

const manualTransactionPrefix = "manual_"

type contentReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the purchase ledger: the only write path for purchase rows.
type Service interface {
	RecordCompletedPurchase(ctx context.Context, input RecordPurchaseInput) (*models.Purchase, error)
	GrantManualAccess(ctx context.Context, input GrantAccessInput) (*models.Purchase, error)
	RefundPurchase(ctx context.Context, purchaseID uuid.UUID, actor *outbox.ActorRef) (*models.Purchase, error)
	RefundByProviderTransactionID(ctx context.Context, providerTransactionID string) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Purchase, string, error)
}

// RecordPurchaseInput captures a completed payment as reported by the
// gateway. AmountCents comes from the gateway's transaction object, never
// from client input.
type RecordPurchaseInput struct {
	ProviderTransactionID     string
	ProviderCheckoutSessionID *string
	UserID                    uuid.UUID
	ContentID                 uuid.UUID
	AmountCents               int64
}

// GrantAccessInput describes an administrator-created zero-amount purchase.
type GrantAccessInput struct {
	UserID          uuid.UUID
	ContentID       uuid.UUID
	GrantedByUserID uuid.UUID
	Reason          string
}

type ServiceParams struct {
	Repo              Repository
	ContentRepo       contentReader
	OrganizationRepo  organizationReader
	TransactionRunner txRunner
	Outbox            outboxEmitter
	Fees              config.FeeConfig
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	contents contentReader
	orgs     organizationReader
	txRunner txRunner
	outbox   outboxEmitter
	fees     config.FeeConfig
	logg     *logger.Logger
}

// NewService wires the purchase ledger with its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.ContentRepo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	if params.OrganizationRepo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     params.Repo,
		contents: params.ContentRepo,
		orgs:     params.OrganizationRepo,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
		fees:     params.Fees,
		logg:     params.Logger,
	}, nil
}

func (s *service) RecordCompletedPurchase(ctx context.Context, input RecordPurchaseInput) (*models.Purchase, error) {
	txID := strings.TrimSpace(input.ProviderTransactionID)
	if txID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ContentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-negative")
	}

	content, err := s.contents.FindByID(ctx, input.ContentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content")
	}
	if content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}

	platformBps, orgBps, err := s.resolveRates(ctx, content.OrganizationID)
	if err != nil {
		return nil, err
	}
	split, err := ComputeSplit(input.AmountCents, platformBps, orgBps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute split")
	}

	purchase := &models.Purchase{
		ID:                        uuid.New(),
		UserID:                    input.UserID,
		OrganizationID:            content.OrganizationID,
		ContentID:                 input.ContentID,
		AmountCents:               input.AmountCents,
		PlatformFeeCents:          split.PlatformFeeCents,
		OrganizationFeeCents:      split.OrganizationFeeCents,
		CreatorPayoutCents:        split.CreatorPayoutCents,
		Status:                    enums.PurchaseStatusCompleted,
		ProviderTransactionID:     txID,
		ProviderCheckoutSessionID: input.ProviderCheckoutSessionID,
	}

	inserted := false
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, createErr := repo.CreateConflictSafe(ctx, purchase)
		if createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "insert purchase")
		}
		inserted = ok
		if !inserted {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventPurchaseRecorded,
			AggregateType: enums.OutboxAggregatePurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Data: outbox.PurchaseRecordedData{
				PurchaseID:            purchase.ID,
				UserID:                purchase.UserID,
				OrganizationID:        purchase.OrganizationID,
				ContentID:             purchase.ContentID,
				AmountCents:           purchase.AmountCents,
				PlatformFeeCents:      purchase.PlatformFeeCents,
				OrganizationFeeCents:  purchase.OrganizationFeeCents,
				CreatorPayoutCents:    purchase.CreatorPayoutCents,
				ProviderTransactionID: purchase.ProviderTransactionID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if !inserted {
		// Duplicate delivery: hand back the row the first delivery created.
		existing, findErr := s.repo.FindByProviderTransactionID(ctx, txID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load existing purchase")
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchase row missing after conflict")
		}
		s.logPurchase(ctx, existing, "purchase.duplicate_delivery")
		return existing, nil
	}

	s.logPurchase(ctx, purchase, "purchase.recorded")
	return purchase, nil
}

func (s *service) GrantManualAccess(ctx context.Context, input GrantAccessInput) (*models.Purchase, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ContentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content id is required")
	}
	if input.GrantedByUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "granting admin id is required")
	}

	content, err := s.contents.FindByID(ctx, input.ContentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load content")
	}
	if content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}

	existing, err := s.repo.FindCompletedByUserContent(ctx, input.UserID, input.ContentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing purchase")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has access to this content")
	}

	reason := strings.TrimSpace(input.Reason)
	granted := input.GrantedByUserID
	purchase := &models.Purchase{
		ID:                    uuid.New(),
		UserID:                input.UserID,
		OrganizationID:        content.OrganizationID,
		ContentID:             input.ContentID,
		AmountCents:           0,
		Status:                enums.PurchaseStatusCompleted,
		ProviderTransactionID: manualTransactionPrefix + uuid.NewString(),
		GrantedByUserID:       &granted,
	}
	if reason != "" {
		purchase.GrantReason = &reason
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, createErr := repo.CreateConflictSafe(ctx, purchase); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "insert manual grant")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventPurchaseRecorded,
			AggregateType: enums.OutboxAggregatePurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.GrantedByUserID, Role: string(enums.UserRoleAdmin)},
			Data: outbox.PurchaseRecordedData{
				PurchaseID:            purchase.ID,
				UserID:                purchase.UserID,
				OrganizationID:        purchase.OrganizationID,
				ContentID:             purchase.ContentID,
				ProviderTransactionID: purchase.ProviderTransactionID,
				ManualGrant:           true,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logPurchase(ctx, purchase, "purchase.manual_grant")
	return purchase, nil
}

func (s *service) RefundPurchase(ctx context.Context, purchaseID uuid.UUID, actor *outbox.ActorRef) (*models.Purchase, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}

	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	if purchase.Status == enums.PurchaseStatusRefunded {
		return purchase, nil
	}

	refundedAt := time.Now().UTC()
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if markErr := repo.MarkRefunded(ctx, purchase.ID, refundedAt); markErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, markErr, "mark refunded")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventPurchaseRefunded,
			AggregateType: enums.OutboxAggregatePurchase,
			AggregateID:   purchase.ID,
			Version:       1,
			Actor:         actor,
			Data: outbox.PurchaseRefundedData{
				PurchaseID:            purchase.ID,
				UserID:                purchase.UserID,
				ContentID:             purchase.ContentID,
				AmountCents:           purchase.AmountCents,
				ProviderTransactionID: purchase.ProviderTransactionID,
				RefundedAt:            refundedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	purchase.Status = enums.PurchaseStatusRefunded
	purchase.RefundedAt = &refundedAt
	s.logPurchase(ctx, purchase, "purchase.refunded")
	return purchase, nil
}

func (s *service) RefundByProviderTransactionID(ctx context.Context, providerTransactionID string) (*models.Purchase, error) {
	txID := strings.TrimSpace(providerTransactionID)
	if txID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id is required")
	}
	purchase, err := s.repo.FindByProviderTransactionID(ctx, txID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found for transaction")
	}
	return s.RefundPurchase(ctx, purchase.ID, nil)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Purchase, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) resolveRates(ctx context.Context, organizationID uuid.UUID) (int, int, error) {
	platformBps := s.fees.PlatformRateBps
	orgBps := s.fees.OrganizationRateBps

	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org != nil {
		if org.PlatformRateBps != nil {
			platformBps = *org.PlatformRateBps
		}
		if org.OrganizationRateBps != nil {
			orgBps = *org.OrganizationRateBps
		}
	}
	return platformBps, orgBps, nil
}

func (s *service) logPurchase(ctx context.Context, purchase *models.Purchase, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"purchase_id":             purchase.ID.String(),
		"user_id":                 purchase.UserID.String(),
		"content_id":              purchase.ContentID.String(),
		"provider_transaction_id": purchase.ProviderTransactionID,
		"amount_cents":            purchase.AmountCents,
		"status":                  string(purchase.Status),
	})
	s.logg.Info(ctx, msg)
}
