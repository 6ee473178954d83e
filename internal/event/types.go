package event

import "github.com/ledgerline-ai/ledgerline/pkg/types"

// SessionData is the payload for session lifecycle events
// (session.opened, session.reactivated, session.closed, session.archived,
// session.renamed).
type SessionData struct {
	Info *types.Session `json:"info"`
}

// SessionIdleData is the payload for session.idle events published by the sweep.
type SessionIdleData struct {
	SessionID string `json:"sessionID"`
	OwnerID   string `json:"ownerID"`
}

// TurnAppendedData is the payload for turn.appended events.
type TurnAppendedData struct {
	Turn *types.Turn `json:"turn"`
}

// SummaryRefreshedData is the payload for summary.refreshed events.
type SummaryRefreshedData struct {
	SessionID string `json:"sessionID"`
}

// SummaryDegradedData is the payload for summary.degraded events, published
// when the summarizer failed and the fallback synopsis was persisted instead.
type SummaryDegradedData struct {
	SessionID string `json:"sessionID"`
	Reason    string `json:"reason"`
}
