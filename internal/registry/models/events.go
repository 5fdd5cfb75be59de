package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"policyregistry/pkg/domain"
)

// EventType names a registry event on the wire.
type EventType string

const (
	EventPolicyCreated         EventType = "PolicyCreated"
	EventPolicyCancelled       EventType = "PolicyCancelled"
	EventMinimumPremiumUpdated EventType = "MinimumPremiumUpdated"
	EventWithdrawal            EventType = "Withdrawal"
)

// Event is a registry event recorded in the same transaction as the state
// change it describes. Payload holds one of the *Payload types below as JSON.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Payload is implemented by every event body.
type Payload interface {
	EventType() EventType
}

type PolicyCreatedPayload struct {
	Caller   domain.Address  `json:"caller"`
	PolicyID domain.PolicyID `json:"policy_id"`
	Coverage domain.Amount   `json:"coverage"`
	Premium  domain.Amount   `json:"premium"`
	Expiry   int64           `json:"expiry"`
}

func (PolicyCreatedPayload) EventType() EventType { return EventPolicyCreated }

type PolicyCancelledPayload struct {
	Caller   domain.Address  `json:"caller"`
	PolicyID domain.PolicyID `json:"policy_id"`
}

func (PolicyCancelledPayload) EventType() EventType { return EventPolicyCancelled }

type MinimumPremiumUpdatedPayload struct {
	Old domain.Amount `json:"old"`
	New domain.Amount `json:"new"`
}

func (MinimumPremiumUpdatedPayload) EventType() EventType { return EventMinimumPremiumUpdated }

type WithdrawalPayload struct {
	Caller domain.Address `json:"caller"`
	Amount domain.Amount  `json:"amount"`
}

func (WithdrawalPayload) EventType() EventType { return EventWithdrawal }

// NewEvent wraps payload in an Event with a fresh id.
func NewEvent(payload Payload, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New(),
		Type:       payload.EventType(),
		OccurredAt: at.UTC().Truncate(TimePrecision),
		Payload:    raw,
	}, nil
}

// Decode unmarshals the payload into dst.
func (e Event) Decode(dst Payload) error {
	return json.Unmarshal(e.Payload, dst)
}

// OutboxEntry is an event waiting for, or past, delivery to the event sink.
type OutboxEntry struct {
	Sequence    int64
	Event       Event
	DeliveredAt *time.Time
}
