package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-ai/ledgerline/internal/provider"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

func TestTranscript(t *testing.T) {
	turns := []*types.Turn{
		{Role: types.RoleUser, Content: "Show me unpaid invoices for Acme."},
		{Role: types.RoleAssistant, Content: "There are 3 unpaid invoices totaling $4,200."},
	}

	got := Transcript(turns)

	assert.Contains(t, got, "USER:\nShow me unpaid invoices for Acme.")
	assert.Contains(t, got, "ASSISTANT:\nThere are 3 unpaid invoices totaling $4,200.")
	// user turn must come before the assistant turn
	assert.Less(t, indexOf(got, "USER:"), indexOf(got, "ASSISTANT:"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestSummarizeEmptyTurns(t *testing.T) {
	s := NewLLM(provider.NewRegistry(nil), 0)

	synopsis, err := s.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, synopsis)
}

func TestSummarizeNoProviders(t *testing.T) {
	s := NewLLM(provider.NewRegistry(nil), 0)

	_, err := s.Summarize(context.Background(), []*types.Turn{
		{Role: types.RoleUser, Content: "hello"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
