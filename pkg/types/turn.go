package types

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message exchanged within a session. Turns are append-only and
// never mutated; their ULID identifiers double as the creation ordering key.
type Turn struct {
	ID        string   `json:"id"`
	SessionID string   `json:"sessionID"`
	Role      Role     `json:"role"`
	Content   string   `json:"content"`
	Time      TurnTime `json:"time"`
}

// TurnTime contains the creation timestamp in Unix milliseconds.
type TurnTime struct {
	Created int64 `json:"created"`
}

// ContextWindow is the bounded conversation context handed to the language
// model for a session: a suffix of recent turns, optionally preceded by a
// compressed synopsis of everything older.
type ContextWindow struct {
	Turns            []*Turn `json:"turns"`
	Summary          string  `json:"summary,omitempty"`
	HasOlderMessages bool    `json:"hasOlderMessages"`
}
