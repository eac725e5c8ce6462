package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrBadSignature = errors.New("security: webhook signature mismatch")

// WebhookVerifier checks the collaborator's HMAC-SHA256 signature over the
// raw request body. The signature arrives hex-encoded in a header.
type WebhookVerifier struct {
	Secret []byte
}

func (v WebhookVerifier) Verify(body []byte, signature string) error {
	if len(v.Secret) == 0 || signature == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, v.Secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
