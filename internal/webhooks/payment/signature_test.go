package paymentwebhook

import (
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
)

const testSecret = "whsec_test_secret"

func TestVerifySignatureValid(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()
	header := Sign(testSecret, body, now)

	if err := VerifySignature(testSecret, header, body, now, DefaultTolerance); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	body := []byte(`{"id":"evt_1","amount":100}`)
	now := time.Now()
	header := Sign(testSecret, body, now)

	tampered := []byte(`{"id":"evt_1","amount":999}`)
	err := VerifySignature(testSecret, header, tampered, now, DefaultTolerance)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	header := Sign("whsec_other", body, now)

	err := VerifySignature(testSecret, header, body, now, DefaultTolerance)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestVerifySignatureTimestampDrift(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()

	stale := Sign(testSecret, body, now.Add(-6*time.Minute))
	if err := VerifySignature(testSecret, stale, body, now, DefaultTolerance); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("stale: err = %v, want unauthorized", err)
	}

	future := Sign(testSecret, body, now.Add(6*time.Minute))
	if err := VerifySignature(testSecret, future, body, now, DefaultTolerance); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("future: err = %v, want unauthorized", err)
	}

	// Inside the window on both sides.
	recent := Sign(testSecret, body, now.Add(-4*time.Minute))
	if err := VerifySignature(testSecret, recent, body, now, DefaultTolerance); err != nil {
		t.Fatalf("recent: %v", err)
	}
	ahead := Sign(testSecret, body, now.Add(4*time.Minute))
	if err := VerifySignature(testSecret, ahead, body, now, DefaultTolerance); err != nil {
		t.Fatalf("ahead: %v", err)
	}
}

func TestVerifySignatureMalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	valid := Sign(testSecret, body, now)
	v1 := valid[strings.Index(valid, "v1="):]

	headers := []string{
		"",
		"garbage",
		"t=abc," + v1,
		"t=123",
		v1,
		"t=123,v1=nothex",
	}
	for _, header := range headers {
		err := VerifySignature(testSecret, header, body, now, DefaultTolerance)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("header %q: err = %v, want unauthorized", header, err)
		}
	}
}

func TestVerifySignatureAcceptsAnyMatchingV1Entry(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	valid := Sign(testSecret, body, now)
	header := valid + ",v1=deadbeef"

	if err := VerifySignature(testSecret, header, body, now, DefaultTolerance); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureMissingSecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	header := Sign(testSecret, body, now)

	err := VerifySignature("", header, body, now, DefaultTolerance)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}
