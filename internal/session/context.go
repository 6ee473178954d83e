package session

import (
	"context"

	"github.com/ledgerline-ai/ledgerline/internal/event"
	"github.com/ledgerline-ai/ledgerline/internal/summarizer"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// Context assembles the conversation context for an assistant invocation.
// With useWindow false it returns the full ordered turn sequence plus the
// stored summary. With useWindow true, sessions at or under the window size
// return every turn; beyond it only the most recent window turns are returned
// together with the persisted summary and HasOlderMessages set. size requests
// a narrower window; zero means the policy default, and the policy window is
// the ceiling.
func (s *Service) Context(ctx context.Context, sessionID, callerID string, useWindow bool, size int) (*types.ContextWindow, error) {
	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, persistence("list turns", err)
	}

	if !useWindow {
		return &types.ContextWindow{Turns: turns, Summary: session.Summary}, nil
	}

	window := s.Policy().Window()
	if size > 0 && size < window {
		window = size
	}
	if len(turns) <= window {
		return &types.ContextWindow{Turns: turns}, nil
	}

	return &types.ContextWindow{
		Turns:            turns[len(turns)-window:],
		Summary:          session.Summary,
		HasOlderMessages: true,
	}, nil
}

// RefreshSummary regenerates the session summary from the full ordered turn
// sequence, replacing any prior value. The summarizer call is bounded by the
// configured timeout; on any failure the fallback synopsis is persisted
// instead and the operation still succeeds. A summarizer failure never
// propagates to the caller.
func (s *Service) RefreshSummary(ctx context.Context, sessionID, callerID string) (*types.Session, error) {
	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, persistence("list turns", err)
	}

	if len(turns) == 0 {
		// Nothing to compress.
		return session, nil
	}

	summary, sumErr := s.summarize(ctx, turns)
	if sumErr != nil {
		s.log.Warn().Err(sumErr).Str("sessionID", session.ID).Msg("summarizer failed, using fallback synopsis")
		summary = summarizer.FallbackSynopsis
	}

	session.Summary = summary
	session.Time.Updated = s.now().UnixMilli()

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	if sumErr != nil {
		s.publish(event.Event{Type: event.SummaryDegraded, Data: event.SummaryDegradedData{
			SessionID: session.ID,
			Reason:    sumErr.Error(),
		}})
	} else {
		s.publish(event.Event{Type: event.SummaryRefreshed, Data: event.SummaryRefreshedData{SessionID: session.ID}})
	}

	return session, nil
}

func (s *Service) summarize(ctx context.Context, turns []*types.Turn) (string, error) {
	if s.summarizer == nil {
		return "", summarizer.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.Policy().SummaryTimeout())
	defer cancel()

	return s.summarizer.Summarize(ctx, turns)
}
