package streaming

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/playgate-app/playgate-backend/pkg/config"
	"github.com/playgate-app/playgate-backend/pkg/db/models"
	"github.com/playgate-app/playgate-backend/pkg/enums"
	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
)

type stubSigner struct {
	url      string
	failures int
	calls    int
	expires  time.Time
}

func (s *stubSigner) SignedReadURL(bucket, object string, expires time.Time) (string, error) {
	s.calls++
	s.expires = expires
	if s.calls <= s.failures {
		return "", errors.New("rsa: signing key unavailable")
	}
	return s.url, nil
}

func readyMedia() *models.MediaItem {
	return &models.MediaItem{
		ID:          uuid.New(),
		Status:      enums.MediaStatusReady,
		ManifestKey: "manifests/abc/master.m3u8",
		ContentType: "application/x-mpegURL",
	}
}

func newStreamingService(t *testing.T, signer *stubSigner, cfg config.StreamConfig, now time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Signer: signer,
		Config: cfg,
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestIssueStreamURL(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	signer := &stubSigner{url: "https://storage.googleapis.com/bucket/manifests/abc/master.m3u8?Signature=x"}
	svc := newStreamingService(t, signer, config.StreamConfig{URLTTL: 30 * time.Minute}, now)

	info, err := svc.IssueStreamURL(context.Background(), readyMedia())
	if err != nil {
		t.Fatalf("IssueStreamURL: %v", err)
	}
	if info.URL != signer.url {
		t.Fatalf("url = %q", info.URL)
	}
	if !info.ExpiresAt.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("expires = %v, want now+30m", info.ExpiresAt)
	}
	if info.ContentType != "application/x-mpegURL" {
		t.Fatalf("content type = %q", info.ContentType)
	}
}

func TestIssueStreamURLCapsLifetime(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	signer := &stubSigner{url: "https://example.test/signed"}
	svc := newStreamingService(t, signer, config.StreamConfig{URLTTL: 4 * time.Hour}, now)

	info, err := svc.IssueStreamURL(context.Background(), readyMedia())
	if err != nil {
		t.Fatalf("IssueStreamURL: %v", err)
	}
	if !info.ExpiresAt.Equal(now.Add(MaxURLLifetime)) {
		t.Fatalf("expires = %v, ttl must be capped at %v", info.ExpiresAt, MaxURLLifetime)
	}
	if !signer.expires.Equal(info.ExpiresAt) {
		t.Fatal("signer must receive the capped expiry")
	}
}

func TestIssueStreamURLRetriesTransientFailures(t *testing.T) {
	signer := &stubSigner{url: "https://example.test/signed", failures: 2}
	svc := newStreamingService(t, signer, config.StreamConfig{
		URLTTL:      time.Hour,
		SignRetries: 3,
		SignBackoff: time.Millisecond,
	}, time.Now())

	if _, err := svc.IssueStreamURL(context.Background(), readyMedia()); err != nil {
		t.Fatalf("IssueStreamURL: %v", err)
	}
	if signer.calls != 3 {
		t.Fatalf("signer called %d times, want 3", signer.calls)
	}
}

func TestIssueStreamURLExhaustedRetries(t *testing.T) {
	signer := &stubSigner{url: "https://example.test/signed", failures: 10}
	svc := newStreamingService(t, signer, config.StreamConfig{
		URLTTL:      time.Hour,
		SignRetries: 2,
		SignBackoff: time.Millisecond,
	}, time.Now())

	_, err := svc.IssueStreamURL(context.Background(), readyMedia())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("err = %v, want dependency error", err)
	}
	if signer.calls != 3 {
		t.Fatalf("signer called %d times, want initial attempt plus 2 retries", signer.calls)
	}
}

func TestIssueStreamURLRejectsUnreadyMedia(t *testing.T) {
	svc := newStreamingService(t, &stubSigner{}, config.StreamConfig{URLTTL: time.Hour}, time.Now())

	media := readyMedia()
	media.Status = enums.MediaStatusTranscoding
	if _, err := svc.IssueStreamURL(context.Background(), media); !pkgerrors.IsCode(err, pkgerrors.CodeNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}

	media = readyMedia()
	media.ManifestKey = ""
	if _, err := svc.IssueStreamURL(context.Background(), media); !pkgerrors.IsCode(err, pkgerrors.CodeNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}

	if _, err := svc.IssueStreamURL(context.Background(), nil); !pkgerrors.IsCode(err, pkgerrors.CodeNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}
}
