// Package signature provides HMAC-SHA256 webhook signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Signer computes HMAC-SHA256 signatures for webhook payloads.
type Signer struct{}

// NewSigner returns a new Signer.
func NewSigner() *Signer {
	return &Signer{}
}

// Sign generates the signature header value for the given payload.
// The signed material is the exact payload bytes being sent, so verifiers
// must recompute the digest over the unmodified body they received.
// Returns a header value in the format "t=<unix-seconds>, v1=<hex-digest>".
func (s *Signer) Sign(payload []byte, secret string, timestamp int64) string {
	return Sign(payload, secret, timestamp)
}

// Sign generates the signature header value for the given payload.
// The signed material is the exact payload bytes being sent.
// Returns a header value in the format "t=<unix-seconds>, v1=<hex-digest>".
func Sign(payload []byte, secret string, timestamp int64) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ", v1=" + Digest(payload, secret)
}

// Digest returns the hex-encoded HMAC-SHA256 of payload under secret.
func Digest(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
