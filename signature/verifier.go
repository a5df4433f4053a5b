package signature

import (
	"crypto/hmac"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Verification errors.
var (
	// ErrMalformedHeader is returned when the signature header cannot be parsed.
	ErrMalformedHeader = errors.New("signature: malformed header")

	// ErrMismatch is returned when the recomputed digest does not match.
	ErrMismatch = errors.New("signature: digest mismatch")

	// ErrClockSkew is returned when the signed timestamp is outside the tolerance window.
	ErrClockSkew = errors.New("signature: timestamp outside tolerance")
)

// ParseHeader splits a "t=<unix-seconds>, v1=<hex-digest>" header value into
// its timestamp and digest components.
func ParseHeader(header string) (timestamp int64, digest string, err error) {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp, err = strconv.ParseInt(part[2:], 10, 64)
			if err != nil {
				return 0, "", ErrMalformedHeader
			}
		case strings.HasPrefix(part, "v1="):
			digest = part[3:]
		}
	}
	if timestamp == 0 || digest == "" {
		return 0, "", ErrMalformedHeader
	}
	return timestamp, digest, nil
}

// Verify checks a received signature header against the exact payload bytes.
// tolerance bounds the allowed clock skew between signing and verification;
// zero disables the skew check.
func Verify(payload []byte, secret, header string, tolerance time.Duration) error {
	ts, digest, err := ParseHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		skew := time.Since(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return ErrClockSkew
		}
	}

	expected := Digest(payload, secret)
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return ErrMismatch
	}
	return nil
}
