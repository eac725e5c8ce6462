package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifier(t *testing.T) {
	secret := []byte("whsec_test")
	body := []byte(`{"type":"payment_intent.succeeded"}`)
	v := WebhookVerifier{Secret: secret}

	assert.NoError(t, v.Verify(body, sign(secret, body)))
	assert.ErrorIs(t, v.Verify(body, sign([]byte("other"), body)), ErrBadSignature)
	assert.ErrorIs(t, v.Verify(body, ""), ErrBadSignature)
	assert.ErrorIs(t, v.Verify([]byte("tampered"), sign(secret, body)), ErrBadSignature)
	assert.ErrorIs(t, WebhookVerifier{}.Verify(body, sign(secret, body)), ErrBadSignature)
}
