package webhook

import (
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_123",
		"object": "event",
		"type": "payment_intent.succeeded",
		"livemode": false,
		"data": {"object": {"id": "pi_456", "object": "payment_intent", "amount": 1000}}
	}`)

	evt, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if evt.ID != "evt_123" {
		t.Errorf("ID = %s, want evt_123", evt.ID)
	}
	if evt.Type != EventPaymentIntentSucceeded {
		t.Errorf("Type = %s, want %s", evt.Type, EventPaymentIntentSucceeded)
	}
	if evt.ObjectID != "pi_456" {
		t.Errorf("ObjectID = %s, want pi_456", evt.ObjectID)
	}
}

func TestParseEvent_OtherType(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"id":"evt_1","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`))
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if evt.Type != "charge.refunded" {
		t.Errorf("Type = %s", evt.Type)
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not json`},
		{"missing type", `{"id":"evt_1","data":{"object":{"id":"x"}}}`},
		{"missing data", `{"id":"evt_1","type":"payment_intent.succeeded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEvent([]byte(tt.payload)); !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("ParseEvent() error = %v, want ErrMalformedEvent", err)
			}
		})
	}
}
