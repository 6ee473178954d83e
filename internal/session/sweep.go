package session

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ledgerline-ai/ledgerline/internal/event"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

// Sweep scans every session and marks active ones idle when their last
// activity is older than the idle threshold. It returns the number of
// sessions transitioned. Individual update failures are logged and skipped so
// one bad record does not stall the rest of the scan.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	threshold := s.Policy().IdleThreshold()
	cutoff := s.now().Add(-threshold).UnixMilli()

	var stale []*types.Session
	err := s.store.ScanSessions(ctx, func(session *types.Session) error {
		if session.Status == types.StatusActive && session.LastActivityAt < cutoff {
			stale = append(stale, session)
		}
		return nil
	})
	if err != nil {
		return 0, persistence("scan sessions", err)
	}

	transitioned := 0
	for _, session := range stale {
		session.Status = types.StatusIdle
		session.Time.Updated = s.now().UnixMilli()

		if err := s.store.UpdateSession(ctx, session); err != nil {
			s.log.Error().Err(err).Str("sessionID", session.ID).Msg("sweep failed to mark session idle")
			continue
		}

		transitioned++
		s.publish(event.Event{Type: event.SessionIdle, Data: event.SessionIdleData{
			SessionID: session.ID,
			OwnerID:   session.OwnerID,
		}})
	}

	if transitioned > 0 {
		s.log.Info().Int("count", transitioned).Msg("swept sessions to idle")
	}

	return transitioned, nil
}

// SweepRunner periodically runs the idle sweep. A failed sweep backs off
// exponentially instead of hammering a struggling store; the interval resets
// after the next success.
type SweepRunner struct {
	service *Service
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSweepRunner creates a runner bound to the service's configured sweep
// interval.
func NewSweepRunner(service *Service) *SweepRunner {
	return &SweepRunner{service: service}
}

// Start launches the background sweep loop.
func (r *SweepRunner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)
}

// Stop signals the loop to exit and waits for it to drain.
func (r *SweepRunner) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func (r *SweepRunner) run(ctx context.Context) {
	defer close(r.done)

	log := r.service.log.With().Str("component", "sweep").Logger()

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0

	for {
		interval := r.service.Policy().SweepEvery()
		retry.InitialInterval = interval
		retry.MaxInterval = 10 * interval

		if _, err := r.service.Sweep(ctx); err != nil {
			interval = retry.NextBackOff()
			log.Error().Err(err).Dur("retryIn", interval).Msg("sweep failed")
		} else {
			retry.Reset()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
