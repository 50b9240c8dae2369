// Package webhook verifies and decodes payment provider webhook deliveries.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrMalformedHeader is returned when the signature header cannot be parsed.
	ErrMalformedHeader = errors.New("malformed signature header")
	// ErrMalformedEvent is returned when a payload is not a valid event envelope.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

const (
	// DefaultReplayWindow is the default replay protection window.
	DefaultReplayWindow = 5 * time.Minute

	// SignatureHeader carries the timestamp and signatures of a delivery.
	SignatureHeader = "Stripe-Signature"

	signatureScheme = "v1"
)

// GenerateSignature creates HMAC-SHA256 signature for webhook payload.
// The canonical string format is: "{timestamp}.{payload}"
func GenerateSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue builds a header value in the "t=...,v1=..." form.
func SignatureHeaderValue(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("t=%d,%s=%s", timestamp, signatureScheme, GenerateSignature(secret, timestamp, payload))
}

// ParsedHeader is the decoded form of a signature header.
type ParsedHeader struct {
	Timestamp  int64
	Signatures []string
}

// ParseHeader splits a "t=<unix>,v1=<hex>[,v1=<hex>...]" header.
// Unknown schemes are ignored so the provider can add new ones.
func ParseHeader(header string) (*ParsedHeader, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrMalformedHeader
	}

	parsed := &ParsedHeader{}
	for _, item := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return nil, ErrMalformedHeader
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, ErrMalformedHeader
			}
			parsed.Timestamp = ts
		case signatureScheme:
			parsed.Signatures = append(parsed.Signatures, value)
		}
	}

	if parsed.Timestamp == 0 || len(parsed.Signatures) == 0 {
		return nil, ErrMalformedHeader
	}

	return parsed, nil
}

// VerifyHeader checks a signature header against the raw payload with replay protection.
// Any one matching v1 signature is accepted, which allows secret rotation.
func VerifyHeader(secret, header string, payload []byte, replayWindow time.Duration, now time.Time) error {
	parsed, err := ParseHeader(header)
	if err != nil {
		return err
	}

	return ValidateSignatures(secret, parsed.Signatures, parsed.Timestamp, payload, replayWindow, now)
}

// ValidateSignatures verifies candidate signatures with replay protection.
func ValidateSignatures(secret string, signatures []string, timestamp int64, payload []byte, replayWindow time.Duration, now time.Time) error {
	if replayWindow <= 0 {
		replayWindow = DefaultReplayWindow
	}

	// Check replay window
	if abs(now.Unix()-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := []byte(GenerateSignature(secret, timestamp, payload))
	for _, sig := range signatures {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
