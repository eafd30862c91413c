package purchases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
	"github.com/playgate-app/playgate-backend/pkg/outbox"
	"github.com/playgate-app/playgate-backend/pkg/pagination"
)

type fakeRepo struct {
	byID         map[uuid.UUID]*models.Purchase
	byTxID       map[string]*models.Purchase
	insertExists bool
	created      []*models.Purchase
	refunded     []uuid.UUID
	listRows     []models.Purchase
	err          error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:   map[uuid.UUID]*models.Purchase{},
		byTxID: map[string]*models.Purchase{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateConflictSafe(ctx context.Context, purchase *models.Purchase) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.insertExists {
		return false, nil
	}
	f.created = append(f.created, purchase)
	f.byID[purchase.ID] = purchase
	f.byTxID[purchase.ProviderTransactionID] = purchase
	return true, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeRepo) FindByProviderTransactionID(ctx context.Context, txID string) (*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTxID[txID], nil
}

func (f *fakeRepo) FindCompletedByUserContent(ctx context.Context, userID, contentID uuid.UUID) (*models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.byID {
		if p.UserID == userID && p.ContentID == contentID && p.Status == enums.PurchaseStatusCompleted {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) MarkRefunded(ctx context.Context, id uuid.UUID, refundedAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.refunded = append(f.refunded, id)
	if p, ok := f.byID[id]; ok {
		p.Status = enums.PurchaseStatusRefunded
		p.RefundedAt = &refundedAt
	}
	return nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	rows := f.listRows
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

type fakeContentReader struct {
	content *models.Content
	err     error
}

func (f *fakeContentReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	return f.content, f.err
}

type fakeOrgReader struct {
	org *models.Organization
	err error
}

func (f *fakeOrgReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return f.org, f.err
}

type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, contents *fakeContentReader, orgs *fakeOrgReader, emitter *fakeEmitter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:              repo,
		ContentRepo:       contents,
		OrganizationRepo:  orgs,
		TransactionRunner: &fakeTxRunner{},
		Outbox:            emitter,
		Fees:              config.FeeConfig{PlatformRateBps: 1000},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testContent(orgID uuid.UUID) *models.Content {
	price := int64(2999)
	return &models.Content{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          "Live Set",
		Status:         enums.ContentStatusPublished,
		Visibility:     enums.ContentVisibilityPurchasedOnly,
		PriceCents:     &price,
	}
}

func TestRecordCompletedPurchaseSplitsAndEmits(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{}, emitter)

	got, err := svc.RecordCompletedPurchase(context.Background(), RecordPurchaseInput{
		ProviderTransactionID: "pi_123",
		UserID:                uuid.New(),
		ContentID:             content.ID,
		AmountCents:           2999,
	})
	if err != nil {
		t.Fatalf("RecordCompletedPurchase: %v", err)
	}

	if got.PlatformFeeCents != 300 || got.OrganizationFeeCents != 0 || got.CreatorPayoutCents != 2699 {
		t.Fatalf("split = %d/%d/%d, want 300/0/2699",
			got.PlatformFeeCents, got.OrganizationFeeCents, got.CreatorPayoutCents)
	}
	if got.Status != enums.PurchaseStatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.OrganizationID != orgID {
		t.Fatal("organization id should come from the content row")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.OutboxEventPurchaseRecorded {
		t.Fatalf("event type = %s", emitter.events[0].EventType)
	}
}

func TestRecordCompletedPurchaseUsesOrganizationRateOverrides(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	platform := 2000
	orgRate := 500
	org := &models.Organization{ID: orgID, PlatformRateBps: &platform, OrganizationRateBps: &orgRate}
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{org: org}, &fakeEmitter{})

	got, err := svc.RecordCompletedPurchase(context.Background(), RecordPurchaseInput{
		ProviderTransactionID: "pi_override",
		UserID:                uuid.New(),
		ContentID:             content.ID,
		AmountCents:           10000,
	})
	if err != nil {
		t.Fatalf("RecordCompletedPurchase: %v", err)
	}
	if got.PlatformFeeCents != 2000 || got.OrganizationFeeCents != 500 || got.CreatorPayoutCents != 7500 {
		t.Fatalf("split = %d/%d/%d, want 2000/500/7500",
			got.PlatformFeeCents, got.OrganizationFeeCents, got.CreatorPayoutCents)
	}
}

func TestRecordCompletedPurchaseDuplicateDeliveryReturnsExistingRow(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	repo := newFakeRepo()
	existing := &models.Purchase{
		ID:                    uuid.New(),
		ProviderTransactionID: "pi_dup",
		Status:                enums.PurchaseStatusCompleted,
		AmountCents:           2999,
	}
	repo.insertExists = true
	repo.byTxID["pi_dup"] = existing
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{}, emitter)

	got, err := svc.RecordCompletedPurchase(context.Background(), RecordPurchaseInput{
		ProviderTransactionID: "pi_dup",
		UserID:                uuid.New(),
		ContentID:             content.ID,
		AmountCents:           2999,
	})
	if err != nil {
		t.Fatalf("RecordCompletedPurchase: %v", err)
	}
	if got.ID != existing.ID {
		t.Fatal("duplicate delivery should return the original row")
	}
	if len(emitter.events) != 0 {
		t.Fatal("duplicate delivery must not emit an event")
	}
}

func TestRecordCompletedPurchaseUnknownContent(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeContentReader{}, &fakeOrgReader{}, &fakeEmitter{})

	_, err := svc.RecordCompletedPurchase(context.Background(), RecordPurchaseInput{
		ProviderTransactionID: "pi_missing",
		UserID:                uuid.New(),
		ContentID:             uuid.New(),
		AmountCents:           100,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGrantManualAccess(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{}, emitter)

	adminID := uuid.New()
	got, err := svc.GrantManualAccess(context.Background(), GrantAccessInput{
		UserID:          uuid.New(),
		ContentID:       content.ID,
		GrantedByUserID: adminID,
		Reason:          "support ticket 4821",
	})
	if err != nil {
		t.Fatalf("GrantManualAccess: %v", err)
	}
	if got.AmountCents != 0 {
		t.Fatal("manual grant must be zero amount")
	}
	if !got.IsManualGrant() || *got.GrantedByUserID != adminID {
		t.Fatal("granted_by_user_id not recorded")
	}
	if len(got.ProviderTransactionID) <= len(manualTransactionPrefix) ||
		got.ProviderTransactionID[:len(manualTransactionPrefix)] != manualTransactionPrefix {
		t.Fatalf("synthetic transaction id %q lacks prefix", got.ProviderTransactionID)
	}
	if len(emitter.events) != 1 || emitter.events[0].Actor == nil {
		t.Fatal("manual grant event should carry the acting admin")
	}
}

func TestGrantManualAccessConflictsWithExistingPurchase(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	userID := uuid.New()
	repo := newFakeRepo()
	existing := &models.Purchase{
		ID:        uuid.New(),
		UserID:    userID,
		ContentID: content.ID,
		Status:    enums.PurchaseStatusCompleted,
	}
	repo.byID[existing.ID] = existing
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{}, &fakeEmitter{})

	_, err := svc.GrantManualAccess(context.Background(), GrantAccessInput{
		UserID:          userID,
		ContentID:       content.ID,
		GrantedByUserID: uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestGrantManualAccessAllowedAfterRefund(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	userID := uuid.New()
	repo := newFakeRepo()
	refundedAt := time.Now()
	old := &models.Purchase{
		ID:         uuid.New(),
		UserID:     userID,
		ContentID:  content.ID,
		Status:     enums.PurchaseStatusRefunded,
		RefundedAt: &refundedAt,
	}
	repo.byID[old.ID] = old
	svc := newTestService(t, repo, &fakeContentReader{content: content}, &fakeOrgReader{}, &fakeEmitter{})

	if _, err := svc.GrantManualAccess(context.Background(), GrantAccessInput{
		UserID:          userID,
		ContentID:       content.ID,
		GrantedByUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("refunded purchase should not block a new grant: %v", err)
	}
}

func TestRefundPurchase(t *testing.T) {
	repo := newFakeRepo()
	purchase := &models.Purchase{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		ContentID:             uuid.New(),
		Status:                enums.PurchaseStatusCompleted,
		ProviderTransactionID: "pi_refund",
		AmountCents:           2999,
	}
	repo.byID[purchase.ID] = purchase
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, &fakeContentReader{}, &fakeOrgReader{}, emitter)

	got, err := svc.RefundPurchase(context.Background(), purchase.ID, nil)
	if err != nil {
		t.Fatalf("RefundPurchase: %v", err)
	}
	if got.Status != enums.PurchaseStatusRefunded || got.RefundedAt == nil {
		t.Fatal("purchase should be marked refunded")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.OutboxEventPurchaseRefunded {
		t.Fatal("refund should emit purchase.refunded")
	}
}

func TestRefundPurchaseIdempotent(t *testing.T) {
	repo := newFakeRepo()
	refundedAt := time.Now()
	purchase := &models.Purchase{
		ID:         uuid.New(),
		Status:     enums.PurchaseStatusRefunded,
		RefundedAt: &refundedAt,
	}
	repo.byID[purchase.ID] = purchase
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, &fakeContentReader{}, &fakeOrgReader{}, emitter)

	got, err := svc.RefundPurchase(context.Background(), purchase.ID, nil)
	if err != nil {
		t.Fatalf("RefundPurchase: %v", err)
	}
	if got.Status != enums.PurchaseStatusRefunded {
		t.Fatal("status should stay refunded")
	}
	if len(repo.refunded) != 0 || len(emitter.events) != 0 {
		t.Fatal("second refund must be a no-op")
	}
}

func TestRefundByProviderTransactionIDUnknown(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeContentReader{}, &fakeOrgReader{}, &fakeEmitter{})

	_, err := svc.RefundByProviderTransactionID(context.Background(), "pi_unknown")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListByUserPaginates(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	for i := 0; i < 3; i++ {
		repo.listRows = append(repo.listRows, models.Purchase{
			ID:        uuid.New(),
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	svc := newTestService(t, repo, &fakeContentReader{}, &fakeOrgReader{}, &fakeEmitter{})

	rows, next, err := svc.ListByUser(context.Background(), uuid.New(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if next == "" {
		t.Fatal("expected a next cursor when more rows remain")
	}

	cursor, err := pagination.ParseCursor(next)
	if err != nil {
		t.Fatalf("returned cursor does not parse: %v", err)
	}
	if cursor.ID != rows[1].ID {
		t.Fatal("cursor should point at the last returned row")
	}
}

func TestListByUserRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeContentReader{}, &fakeOrgReader{}, &fakeEmitter{})

	_, _, err := svc.ListByUser(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestRecordCompletedPurchaseOutboxFailureRollsUp(t *testing.T) {
	orgID := uuid.New()
	content := testContent(orgID)
	emitter := &fakeEmitter{err: errors.New("insert outbox: disk full")}
	svc := newTestService(t, newFakeRepo(), &fakeContentReader{content: content}, &fakeOrgReader{}, emitter)

	_, err := svc.RecordCompletedPurchase(context.Background(), RecordPurchaseInput{
		ProviderTransactionID: "pi_outbox",
		UserID:                uuid.New(),
		ContentID:             content.ID,
		AmountCents:           100,
	})
	if err == nil {
		t.Fatal("outbox failure must fail the whole operation")
	}
}
