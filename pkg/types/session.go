// Package types provides the core data types for the ledgerline session service.
package types

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"
	StatusIdle     SessionStatus = "idle"
	StatusClosed   SessionStatus = "closed"
	StatusArchived SessionStatus = "archived"
)

// Valid reports whether s is a known lifecycle state.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusIdle, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// Terminal reports whether a session in this state can no longer record activity.
func (s SessionStatus) Terminal() bool {
	return s == StatusClosed || s == StatusArchived
}

// Session represents a bounded conversational thread owned by one user.
type Session struct {
	ID             string        `json:"id"`
	OwnerID        string        `json:"ownerID"`
	Title          string        `json:"title"`
	Status         SessionStatus `json:"status"`
	Summary        string        `json:"summary,omitempty"`
	LastActivityAt int64         `json:"lastActivityAt"`
	ClosedAt       *int64        `json:"closedAt,omitempty"`
	Time           SessionTime   `json:"time"`
}

// SessionTime contains creation and update timestamps in Unix milliseconds.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}
