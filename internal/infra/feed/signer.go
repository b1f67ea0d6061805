package feed

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Signer handles feed gateway authentication signatures
type Signer struct {
	accessKey string
	secretKey string
}

// NewSigner creates a new Signer instance
func NewSigner(accessKey, secretKey string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

// AuthPayload builds the authentication frame sent right after dialing.
// The gateway expects: signature = HMAC-SHA256(timestamp + accessKey)
// with the secret key, base64-encoded. Timestamp is Unix milliseconds.
func (s *Signer) AuthPayload() map[string]string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())

	return map[string]string{
		"op":         "auth",
		"access_key": s.accessKey,
		"timestamp":  timestamp,
		"signature":  computeHmacSha256(timestamp+s.accessKey, s.secretKey),
	}
}

func computeHmacSha256(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
