package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
	EventAccessRefreshed   EventType = "access_refreshed"
	EventLoggedOut         EventType = "logged_out"
	EventAccountRegistered EventType = "account_registered"
)

// AllEventTypes lists every session event, in emission order of a typical
// session.
var AllEventTypes = []EventType{
	EventAccountRegistered,
	EventLoginFailed,
	EventLoginSucceeded,
	EventAccessRefreshed,
	EventLoggedOut,
}

// Event represents a session event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh ID.
func NewEvent(eventType EventType, subject string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// LoginFailedPayload payload. Reason is internal only and never sent to the
// client.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// SessionIssuedPayload payload for logins and refreshes.
type SessionIssuedPayload struct {
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	AccountID int64  `json:"account_id"`
	Roles     string `json:"roles"`
}
