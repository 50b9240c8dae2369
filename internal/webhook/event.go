package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

// Event types the application reacts to.
const (
	EventPaymentIntentSucceeded = string(stripe.EventTypePaymentIntentSucceeded)
)

// Event is the subset of a provider event the reconciler needs.
type Event struct {
	ID       string
	Type     string
	ObjectID string // ID of data.object, e.g. the payment intent
	Livemode bool
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if evt.Type == "" || evt.Data == nil {
		return nil, fmt.Errorf("%w: missing type or data", ErrMalformedEvent)
	}

	var object struct {
		ID string `json:"id"`
	}
	if len(evt.Data.Raw) > 0 {
		if err := json.Unmarshal(evt.Data.Raw, &object); err != nil {
			return nil, fmt.Errorf("%w: data.object: %v", ErrMalformedEvent, err)
		}
	}

	return &Event{
		ID:       evt.ID,
		Type:     string(evt.Type),
		ObjectID: object.ID,
		Livemode: evt.Livemode,
	}, nil
}
