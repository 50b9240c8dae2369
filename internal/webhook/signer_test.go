package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		timestamp int64
		payload   []byte
	}{
		{
			name:      "basic signature",
			secret:    "whsec_test123",
			timestamp: 1736600000,
			payload:   []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`),
		},
		{
			name:      "empty payload",
			secret:    "secret",
			timestamp: 1000000000,
			payload:   []byte(`{}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := GenerateSignature(tt.secret, tt.timestamp, tt.payload)

			// Signature should be hex-encoded (64 chars for SHA256)
			if len(sig) != 64 {
				t.Errorf("signature length = %d, want 64", len(sig))
			}

			if sig != GenerateSignature(tt.secret, tt.timestamp, tt.payload) {
				t.Error("signature is not deterministic")
			}

			if sig == GenerateSignature(tt.secret, tt.timestamp+1, tt.payload) {
				t.Error("different timestamp should produce different signature")
			}

			if sig == GenerateSignature(tt.secret+"x", tt.timestamp, tt.payload) {
				t.Error("different secret should produce different signature")
			}
		})
	}
}

func TestGenerateSignature_CanonicalForm(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(`1700000000.{"a":1}`))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := GenerateSignature("secret", 1700000000, []byte(`{"a":1}`)); got != want {
		t.Errorf("GenerateSignature() = %s, want %s", got, want)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantTS   int64
		wantSigs int
		wantErr  error
	}{
		{"single signature", "t=1700000000,v1=abc", 1700000000, 1, nil},
		{"rotated secrets", "t=1700000000,v1=abc,v1=def", 1700000000, 2, nil},
		{"unknown scheme ignored", "t=1700000000,v0=zzz,v1=abc", 1700000000, 1, nil},
		{"spaces tolerated", "t=1700000000, v1=abc", 1700000000, 1, nil},
		{"empty", "", 0, 0, ErrMalformedHeader},
		{"missing timestamp", "v1=abc", 0, 0, ErrMalformedHeader},
		{"missing signature", "t=1700000000", 0, 0, ErrMalformedHeader},
		{"non-numeric timestamp", "t=yesterday,v1=abc", 0, 0, ErrMalformedHeader},
		{"no equals", "garbage", 0, 0, ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeader(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseHeader() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Timestamp != tt.wantTS {
				t.Errorf("Timestamp = %d, want %d", got.Timestamp, tt.wantTS)
			}
			if len(got.Signatures) != tt.wantSigs {
				t.Errorf("len(Signatures) = %d, want %d", len(got.Signatures), tt.wantSigs)
			}
		})
	}
}

func TestVerifyHeader(t *testing.T) {
	secret := "whsec_test"
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)
	valid := SignatureHeaderValue(secret, now.Unix(), payload)

	old := now.Add(-10 * time.Minute).Unix()
	future := now.Add(10 * time.Minute).Unix()

	tests := []struct {
		name    string
		header  string
		payload []byte
		wantErr error
	}{
		{"valid", valid, payload, nil},
		{"tampered payload", valid, []byte(`{"id":"evt_2"}`), ErrInvalidSignature},
		{"wrong secret", SignatureHeaderValue("other", now.Unix(), payload), payload, ErrInvalidSignature},
		{"one of several matches", fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", now.Unix(), GenerateSignature(secret, now.Unix(), payload)), payload, nil},
		{"expired timestamp", SignatureHeaderValue(secret, old, payload), payload, ErrReplayWindowExceeded},
		{"future timestamp beyond window", SignatureHeaderValue(secret, future, payload), payload, ErrReplayWindowExceeded},
		{"malformed", "nonsense", payload, ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyHeader(secret, tt.header, tt.payload, 5*time.Minute, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSignatures_DefaultWindow(t *testing.T) {
	now := time.Now()
	ts := now.Add(-4 * time.Minute).Unix()
	payload := []byte(`{}`)
	sig := GenerateSignature("s", ts, payload)

	if err := ValidateSignatures("s", []string{sig}, ts, payload, 0, now); err != nil {
		t.Errorf("expected default window to accept 4 minute old delivery, got %v", err)
	}
}
