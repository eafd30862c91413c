package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const storageHost = "https://storage.googleapis.com"

var errSignerUnavailable = errors.New("gcs url signing requires service account credentials")

// urlSigner produces expiring read URLs signed with the service account key.
// Only available when the client was built from credentials JSON; the
// metadata token source cannot sign.
type urlSigner struct {
	accessID string
	key      *rsa.PrivateKey
}

// SignedReadURL returns a time-limited GET URL for the given object. The
// expiry is an absolute deadline; callers are responsible for clamping the
// TTL before calling.
func (c *Client) SignedReadURL(bucket, object string, expires time.Time) (string, error) {
	if c == nil || c.signer == nil {
		return "", errSignerUnavailable
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	object = strings.TrimPrefix(object, "/")
	if bucket == "" || object == "" {
		return "", errors.New("bucket and object are required")
	}

	resource := fmt.Sprintf("/%s/%s", bucket, object)
	payload := strings.Join([]string{
		"GET",
		"",
		"",
		fmt.Sprintf("%d", expires.Unix()),
		resource,
	}, "\n")

	hash := sha256.Sum256([]byte(payload))
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.signer.key, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}

	query := url.Values{}
	query.Set("GoogleAccessId", c.signer.accessID)
	query.Set("Expires", fmt.Sprintf("%d", expires.Unix()))
	query.Set("Signature", base64.StdEncoding.EncodeToString(signature))

	return fmt.Sprintf(
		"%s/%s/%s?%s",
		storageHost,
		url.PathEscape(bucket),
		escapeObjectPath(object),
		query.Encode(),
	), nil
}

// CanSign reports whether the client holds a signing key.
func (c *Client) CanSign() bool {
	return c != nil && c.signer != nil
}

func escapeObjectPath(object string) string {
	parts := strings.Split(object, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
