// Package summarizer provides the conversation compression capability.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/ledgerline-ai/ledgerline/internal/provider"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// ErrUnavailable reports that the capability failed or is not configured.
// Callers absorb it via the fallback synopsis; it never reaches end users.
var ErrUnavailable = errors.New("summarization capability unavailable")

// FallbackSynopsis replaces the summary when the capability is unavailable.
// Conversational continuity must never block on summarization.
const FallbackSynopsis = "Earlier conversation history could not be summarized; continue from the most recent messages."

// Summarizer produces a concise synopsis of an ordered turn sequence.
type Summarizer interface {
	Summarize(ctx context.Context, turns []*types.Turn) (string, error)
}

// systemPrompt steers the model toward summaries useful for an assistant
// embedded in a business back-office.
const systemPrompt = `You are a conversation summarizer for a business assistant. Create a concise summary of the conversation that preserves key context for continuing the discussion.

Focus on:
1. What the user asked for and what was resolved
2. Open requests still in progress
3. Any records, amounts, dates, or counterparties mentioned
4. Constraints or preferences the user stated

Be concise but detailed enough that the conversation can continue seamlessly.`

// defaultMaxTokens bounds the synopsis length.
const defaultMaxTokens = 1024

// LLM is a Summarizer backed by a provider registry.
type LLM struct {
	registry  *provider.Registry
	maxTokens int
}

// NewLLM creates an LLM summarizer. maxTokens <= 0 uses the default.
func NewLLM(registry *provider.Registry, maxTokens int) *LLM {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &LLM{registry: registry, maxTokens: maxTokens}
}

// Summarize sends the transcript to the configured model and collects the
// streamed synopsis. Any provider failure is reported as ErrUnavailable.
func (s *LLM) Summarize(ctx context.Context, turns []*types.Turn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	// Model selection happens at provider construction.
	prov, _, err := s.registry.Default()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: Transcript(turns)},
	}

	stream, err := prov.CreateCompletion(ctx, &provider.CompletionRequest{
		Messages:  messages,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer stream.Close()

	var synopsis strings.Builder
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		synopsis.WriteString(msg.Content)
	}

	result := strings.TrimSpace(synopsis.String())
	if result == "" {
		return "", fmt.Errorf("%w: empty synopsis", ErrUnavailable)
	}
	return result, nil
}

// Transcript renders turns as a plain-text transcript for the model.
func Transcript(turns []*types.Turn) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following conversation:\n\n")
	for _, turn := range turns {
		if turn.Role == types.RoleUser {
			sb.WriteString("USER:\n")
		} else {
			sb.WriteString("ASSISTANT:\n")
		}
		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
