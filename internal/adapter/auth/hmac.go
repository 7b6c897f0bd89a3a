package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rqhall/cowchain-farm/internal/port"
)

// HMACAuthenticator verifies request signatures computed over the principal
// and the raw request payload with a shared secret.
type HMACAuthenticator struct {
	secret []byte
}

func NewHMACAuthenticator(secret string) *HMACAuthenticator {
	return &HMACAuthenticator{secret: []byte(secret)}
}

func (a *HMACAuthenticator) Verify(principal, proof string, payload []byte) error {
	if !hmac.Equal([]byte(Sign(string(a.secret), principal, payload)), []byte(proof)) {
		return port.ErrUnauthorized
	}
	return nil
}

// Sign produces the signature a caller must attach for a request.
func Sign(secret, principal string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(principal))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
