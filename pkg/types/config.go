package types

import "time"

// Config is the root service configuration.
type Config struct {
	Log        LogConfig                 `json:"log,omitempty" yaml:"log,omitempty"`
	Policy     PolicyConfig              `json:"policy,omitempty" yaml:"policy,omitempty"`
	Summarizer SummarizerConfig          `json:"summarizer,omitempty" yaml:"summarizer,omitempty"`
	Provider   map[string]ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}

// PolicyConfig carries the session policy knobs. Zero values fall back to the
// service defaults via the accessor methods.
type PolicyConfig struct {
	// MaxActiveSessions caps concurrently active sessions per owner.
	MaxActiveSessions int `json:"maxActiveSessions,omitempty" yaml:"maxActiveSessions,omitempty"`

	// ContextWindow is the number of recent turns returned verbatim.
	ContextWindow int `json:"contextWindow,omitempty" yaml:"contextWindow,omitempty"`

	// ListLimit caps session listing results.
	ListLimit int `json:"listLimit,omitempty" yaml:"listLimit,omitempty"`

	// IdleAfter is how long a session may sit without activity before the
	// sweep marks it idle. Duration string, e.g. "30m".
	IdleAfter string `json:"idleAfter,omitempty" yaml:"idleAfter,omitempty"`

	// SummarizeTimeout bounds a single summarizer invocation, e.g. "10s".
	SummarizeTimeout string `json:"summarizeTimeout,omitempty" yaml:"summarizeTimeout,omitempty"`

	// SweepInterval is the pause between idle sweep passes, e.g. "1m".
	SweepInterval string `json:"sweepInterval,omitempty" yaml:"sweepInterval,omitempty"`
}

// Policy defaults. The cap and window values are behavioral contract, not
// tuning suggestions; callers relying on parity should not override them.
const (
	DefaultMaxActiveSessions = 5
	DefaultContextWindow     = 10
	DefaultListLimit         = 50
	DefaultIdleAfter         = 30 * time.Minute
	DefaultSummarizeTimeout  = 10 * time.Second
	DefaultSweepInterval     = time.Minute
)

// MaxActive returns the per-owner active session cap.
func (p PolicyConfig) MaxActive() int {
	if p.MaxActiveSessions > 0 {
		return p.MaxActiveSessions
	}
	return DefaultMaxActiveSessions
}

// Window returns the context window size in turns.
func (p PolicyConfig) Window() int {
	if p.ContextWindow > 0 {
		return p.ContextWindow
	}
	return DefaultContextWindow
}

// Limit returns the session listing cap.
func (p PolicyConfig) Limit() int {
	if p.ListLimit > 0 {
		return p.ListLimit
	}
	return DefaultListLimit
}

// IdleThreshold returns the parsed idle threshold.
func (p PolicyConfig) IdleThreshold() time.Duration {
	return parseDuration(p.IdleAfter, DefaultIdleAfter)
}

// SummaryTimeout returns the parsed summarizer timeout.
func (p PolicyConfig) SummaryTimeout() time.Duration {
	return parseDuration(p.SummarizeTimeout, DefaultSummarizeTimeout)
}

// SweepEvery returns the parsed sweep interval.
func (p PolicyConfig) SweepEvery() time.Duration {
	return parseDuration(p.SweepInterval, DefaultSweepInterval)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// SummarizerConfig selects the model backing the summarization capability.
// Model is "provider/model", e.g. "anthropic/claude-3-5-haiku-20241022".
type SummarizerConfig struct {
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
}

// ProviderConfig configures one LLM provider.
type ProviderConfig struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	BaseURL   string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	MaxTokens int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	Disabled  bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}
