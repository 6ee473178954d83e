// Package session implements the conversation session core: lifecycle
// management, context window assembly, and the session directory.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/ledgerline-ai/ledgerline/internal/event"
	"github.com/ledgerline-ai/ledgerline/internal/logging"
	"github.com/ledgerline-ai/ledgerline/internal/store"
	"github.com/ledgerline-ai/ledgerline/internal/summarizer"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// placeholderTitle is the default title for newly opened sessions.
const placeholderTitle = "New conversation"

// Service owns session lifecycle, context assembly, and listing. All
// operations are short-lived request/response units; the only cross-request
// synchronization is the per-owner admission lock.
type Service struct {
	store      store.Gateway
	summarizer summarizer.Summarizer
	bus        *event.Bus
	policy     atomic.Pointer[types.PolicyConfig]
	admission  *ownerLocks
	log        zerolog.Logger

	// now is the clock; tests override it.
	now func() time.Time
}

// NewService creates a session service. summarizer and bus may be nil: a nil
// summarizer always degrades to the fallback synopsis, a nil bus drops events.
func NewService(gateway store.Gateway, sum summarizer.Summarizer, bus *event.Bus, policy types.PolicyConfig) *Service {
	s := &Service{
		store:      gateway,
		summarizer: sum,
		bus:        bus,
		admission:  newOwnerLocks(),
		log:        logging.Component("session"),
		now:        time.Now,
	}
	s.policy.Store(&policy)
	return s
}

// SetPolicy swaps the active policy. Called by the config watcher on reload.
func (s *Service) SetPolicy(policy types.PolicyConfig) {
	s.policy.Store(&policy)
}

// Policy returns the active policy.
func (s *Service) Policy() types.PolicyConfig {
	return *s.policy.Load()
}

// Open creates a new active session for ownerID, subject to the per-owner
// admission cap. The count-then-insert runs under the owner's lock.
func (s *Service) Open(ctx context.Context, ownerID string) (*types.Session, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	release := s.admission.acquire(ownerID)
	defer release()

	count, err := s.store.CountActiveSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistence("count active sessions", err)
	}

	limit := s.Policy().MaxActive()
	if count >= limit {
		return nil, ErrAdmissionLimit
	}

	now := s.now().UnixMilli()
	session := &types.Session{
		ID:             ulid.Make().String(),
		OwnerID:        ownerID,
		Title:          placeholderTitle,
		Status:         types.StatusActive,
		LastActivityAt: now,
		Time:           types.SessionTime{Created: now, Updated: now},
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, persistence("create session", err)
	}

	s.log.Debug().Str("sessionID", session.ID).Str("ownerID", ownerID).Msg("session opened")
	s.publish(event.Event{Type: event.SessionOpened, Data: event.SessionData{Info: session}})

	return session, nil
}

// Touch records activity on a session: it re-stamps last_activity_at and
// forces status back to active. Closed and archived sessions reject
// reactivation.
func (s *Service) Touch(ctx context.Context, sessionID, callerID string) (*types.Session, error) {
	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	reactivated := session.Status == types.StatusIdle
	now := s.now().UnixMilli()
	session.Status = types.StatusActive
	session.LastActivityAt = now
	session.Time.Updated = now

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	if reactivated {
		s.log.Debug().Str("sessionID", session.ID).Msg("idle session reactivated")
		s.publish(event.Event{Type: event.SessionReactivated, Data: event.SessionData{Info: session}})
	}

	return session, nil
}

// Close transitions a session to closed and stamps closed_at exactly once.
// Closing an already closed or archived session is an invalid transition.
func (s *Service) Close(ctx context.Context, sessionID, callerID string) (*types.Session, error) {
	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	now := s.now().UnixMilli()
	session.Status = types.StatusClosed
	session.ClosedAt = &now
	session.Time.Updated = now

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	s.log.Debug().Str("sessionID", session.ID).Msg("session closed")
	s.publish(event.Event{Type: event.SessionClosed, Data: event.SessionData{Info: session}})

	return session, nil
}

// Archive soft-deletes a session. This is an administrative, out-of-band
// operation: it has no caller ownership requirement and is valid from any
// state except archived itself. Archived sessions never appear in default
// listings. closed_at is not stamped; it records closes only.
func (s *Service) Archive(ctx context.Context, sessionID string) (*types.Session, error) {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == types.StatusArchived {
		return nil, ErrInvalidTransition
	}

	session.Status = types.StatusArchived
	session.Time.Updated = s.now().UnixMilli()

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	s.log.Info().Str("sessionID", session.ID).Msg("session archived")
	s.publish(event.Event{Type: event.SessionArchived, Data: event.SessionData{Info: session}})

	return session, nil
}

// Rename updates the session title.
func (s *Service) Rename(ctx context.Context, sessionID, callerID, title string) (*types.Session, error) {
	if title == "" {
		return nil, ErrInvalidArgument
	}

	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.Status == types.StatusArchived {
		return nil, ErrInvalidTransition
	}

	session.Title = title
	session.Time.Updated = s.now().UnixMilli()

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	s.publish(event.Event{Type: event.SessionRenamed, Data: event.SessionData{Info: session}})

	return session, nil
}

// AppendTurn appends one turn to the session and records it as activity,
// reactivating an idle session. Closed and archived sessions reject appends.
func (s *Service) AppendTurn(ctx context.Context, sessionID, callerID string, role types.Role, content string) (*types.Turn, error) {
	if !role.Valid() || content == "" {
		return nil, ErrInvalidArgument
	}

	session, err := s.load(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	now := s.now().UnixMilli()
	turn := &types.Turn{
		ID:        ulid.Make().String(),
		SessionID: session.ID,
		Role:      role,
		Content:   content,
		Time:      types.TurnTime{Created: now},
	}

	if err := s.store.AppendTurn(ctx, turn); err != nil {
		return nil, persistence("append turn", err)
	}

	reactivated := session.Status == types.StatusIdle
	session.Status = types.StatusActive
	session.LastActivityAt = now
	session.Time.Updated = now

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, persistence("update session", err)
	}

	s.publish(event.Event{Type: event.TurnAppended, Data: event.TurnAppendedData{Turn: turn}})
	if reactivated {
		s.publish(event.Event{Type: event.SessionReactivated, Data: event.SessionData{Info: session}})
	}

	return turn, nil
}

// Turns returns the session's full ordered turn sequence.
func (s *Service) Turns(ctx context.Context, sessionID, callerID string) ([]*types.Turn, error) {
	if _, err := s.load(ctx, sessionID, callerID); err != nil {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, persistence("list turns", err)
	}
	return turns, nil
}

// Get returns a session after the ownership check.
func (s *Service) Get(ctx context.Context, sessionID, callerID string) (*types.Session, error) {
	return s.load(ctx, sessionID, callerID)
}

// get fetches a session without an ownership check.
func (s *Service) get(ctx context.Context, sessionID string) (*types.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("get session", err)
	}
	return session, nil
}

// load fetches a session and enforces caller ownership.
func (s *Service) load(ctx context.Context, sessionID, callerID string) (*types.Session, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.OwnerID != callerID {
		return nil, ErrForbidden
	}

	return session, nil
}

func (s *Service) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
