package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	"github.com/playgate-app/playgate-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
	drained   bool
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.drained {
		return nil, nil
	}
	f.drained = true
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePubSub struct {
	pingErr error
}

func (f *fakePubSub) Ping(context.Context) error { return f.pingErr }

func (f *fakePubSub) PurchasePublisher() *gcppubsub.Publisher { return nil }

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-id", nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

func purchaseEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.OutboxAggregatePurchase,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"purchase_id":"p"}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		PubSub:     &fakePubSub{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			purchaseEvent(enums.OutboxEventPurchaseRecorded),
			purchaseEvent(enums.OutboxEventPurchaseRefunded),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("batch with rows must report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed rows = %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("published rows = %v", repo.published)
	}
}

func TestServiceProcessBatchEmpty(t *testing.T) {
	repo := &fakeRepo{drained: true}
	service := newTestService(t, repo, &fakePublisher{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("empty batch must not report processed")
	}
}

func TestServiceProcessBatchSetsMessageAttributes(t *testing.T) {
	event := purchaseEvent(enums.OutboxEventPurchaseRecorded)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages", len(pub.messages))
	}
	msg := pub.messages[0]
	if string(msg.Data) != `{"purchase_id":"p"}` {
		t.Fatalf("payload = %s", msg.Data)
	}
	attrs := msg.Attributes
	if attrs["event_type"] != string(enums.OutboxEventPurchaseRecorded) {
		t.Fatalf("event_type attribute = %q", attrs["event_type"])
	}
	if attrs["aggregate_type"] != string(enums.OutboxAggregatePurchase) {
		t.Fatalf("aggregate_type attribute = %q", attrs["aggregate_type"])
	}
	if attrs["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("aggregate_id attribute = %q", attrs["aggregate_id"])
	}
}

func TestServiceRunFailsWhenPingFails(t *testing.T) {
	service := newTestService(t, &fakeRepo{drained: true}, &fakePublisher{})
	service.pubsub = &fakePubSub{pingErr: errors.New("unreachable")}

	if err := service.Run(context.Background()); err == nil {
		t.Fatal("ping failure must abort the run")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	service := newTestService(t, &fakeRepo{drained: true}, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})

	if _, err := NewService(ServiceParams{Logger: logg, PubSub: &fakePubSub{}, Repository: &fakeRepo{}, Publisher: &fakePublisher{}}); err == nil {
		t.Fatal("missing config must fail")
	}
	if _, err := NewService(ServiceParams{Config: &config.Config{}, PubSub: &fakePubSub{}, Repository: &fakeRepo{}, Publisher: &fakePublisher{}}); err == nil {
		t.Fatal("missing logger must fail")
	}
	if _, err := NewService(ServiceParams{Config: &config.Config{}, Logger: logg, PubSub: &fakePubSub{}, Publisher: &fakePublisher{}}); err == nil {
		t.Fatal("missing repository must fail")
	}
	if _, err := NewService(ServiceParams{Config: &config.Config{}, Logger: logg, Repository: &fakeRepo{}, Publisher: &fakePublisher{}}); err == nil {
		t.Fatal("missing pubsub client must fail")
	}
}
