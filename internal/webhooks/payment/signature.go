package paymentwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/playgate-app/playgate-backend/pkg/errors"
)

// SignatureHeader is the request header carrying the gateway signature.
const SignatureHeader = "Payment-Signature"

// DefaultTolerance bounds how far the signed timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks an inbound delivery against the shared webhook
// secret. The header format is "t=<unix>,v1=<hex>"; the signed payload is
// "<t>.<raw body>". Multiple v1 entries are accepted as long as one matches.
// Every failure maps to CodeUnauthorized so the transport answers 401.
func VerifySignature(secret string, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if secret == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook secret not configured")
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	drift := now.Sub(time.Unix(timestamp, 0))
	if drift > tolerance || drift < -tolerance {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "signature timestamp outside tolerance")
	}

	expected := computeSignature(secret, timestamp, body)
	for _, candidate := range signatures {
		if subtle.ConstantTimeCompare(candidate, expected) == 1 {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "signature mismatch")
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing signature header")
	}

	var timestamp int64 = -1
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed signature timestamp")
			}
			timestamp = parsed
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, decoded)
		}
	}

	if timestamp < 0 {
		return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing signature timestamp")
	}
	if len(signatures) == 0 {
		return 0, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing v1 signature")
	}
	return timestamp, signatures, nil
}

func computeSignature(secret string, timestamp int64, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign produces a header value for the given body, used by tests and local
// tooling to fabricate gateway deliveries.
func Sign(secret string, body []byte, at time.Time) string {
	timestamp := at.Unix()
	sig := computeSignature(secret, timestamp, body)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}
