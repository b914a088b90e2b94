package zapsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	apierrors "github.com/firmaya/api/pkg/errors"
)

// VerifySignature checks the x-zapsign-signature header against an
// HMAC-SHA256 of the raw body under the shared secret. The comparison is
// constant time.
func VerifySignature(body []byte, header, secret string) error {
	expected := SignBody(secret, body)
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return apierrors.SignatureVerificationFailed
	}

	return nil
}

// SignBody computes the sha256=<hex> MAC the provider attaches to webhook
// deliveries.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
