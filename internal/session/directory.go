package session

import (
	"context"
	"sort"

	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// ListFilter narrows a directory listing. The zero value lists every
// non-archived session for the owner.
type ListFilter struct {
	// Status restricts the listing to a single status. Archived sessions
	// only appear when requested explicitly.
	Status types.SessionStatus
}

// List returns the caller's sessions ordered by most recent activity, capped
// at the configured limit. Archived sessions are excluded unless the filter
// asks for them.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]*types.Session, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidArgument
	}

	sessions, err := s.store.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistence("list sessions", err)
	}

	filtered := make([]*types.Session, 0, len(sessions))
	for _, session := range sessions {
		if filter.Status != "" {
			if session.Status != filter.Status {
				continue
			}
		} else if session.Status == types.StatusArchived {
			continue
		}
		filtered = append(filtered, session)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].LastActivityAt > filtered[j].LastActivityAt
	})

	if limit := s.Policy().Limit(); len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return filtered, nil
}
