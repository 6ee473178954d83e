package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline-ai/ledgerline/internal/store"
	"github.com/ledgerline-ai/ledgerline/pkg/types"
)

func TestSweepMarksStaleActive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stale, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)

	// Second session opened "later" stays inside the threshold.
	svc.now = func() time.Time { return time.Now().Add(29 * time.Minute) }
	fresh, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := svc.Get(ctx, stale.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusIdle, got.Status)

	got, err = svc.Get(ctx, fresh.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusActive, got.Status)
}

func TestSweepIgnoresTerminal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	closed, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)
	_, err = svc.Close(ctx, closed.ID, "owner-1")
	require.NoError(t, err)

	archived, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)
	_, err = svc.Archive(ctx, archived.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestSweepFreesAdmissionSlot(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < types.DefaultMaxActiveSessions; i++ {
		_, err := svc.Open(ctx, "owner-1")
		require.NoError(t, err)
	}

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, types.DefaultMaxActiveSessions, swept)

	// Idle sessions no longer count toward the cap.
	_, err = svc.Open(ctx, "owner-1")
	assert.NoError(t, err)
}

func TestSweepCustomThreshold(t *testing.T) {
	svc := NewService(store.New(t.TempDir()), nil, nil, types.PolicyConfig{IdleAfter: "1m"})
	ctx := context.Background()

	_, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
}

func TestSweepRunner(t *testing.T) {
	svc := NewService(store.New(t.TempDir()), nil, nil, types.PolicyConfig{
		IdleAfter:     "1ms",
		SweepInterval: "5ms",
	})
	ctx := context.Background()

	session, err := svc.Open(ctx, "owner-1")
	require.NoError(t, err)

	runner := NewSweepRunner(svc)
	runner.Start(ctx)
	defer runner.Stop()

	require.Eventually(t, func() bool {
		got, err := svc.Get(ctx, session.ID, "owner-1")
		return err == nil && got.Status == types.StatusIdle
	}, 2*time.Second, 10*time.Millisecond)
}
