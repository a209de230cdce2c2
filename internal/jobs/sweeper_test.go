package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_InvalidSpec(t *testing.T) {
	reg, _ := newTestRegistry()
	s := NewSweeper(reg, "not a spec", time.Minute)
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule sweep")
}

func TestSweeper_EvictsOnTick(t *testing.T) {
	reg := NewMemoryRegistry()
	require.NoError(t, reg.Create("job-1", "p"))
	done := time.Now().Add(-time.Hour)
	require.NoError(t, reg.Update("job-1", Update{Status: Ptr(StatusCompleted), CompletedAt: &done}))

	s := NewSweeper(reg, "@every 1s", time.Minute)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool {
		_, err := reg.Get("job-1")
		return err != nil
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSweeper_DirectSweep(t *testing.T) {
	reg, clock := newTestRegistry()
	require.NoError(t, reg.Create("job-1", "p"))
	done := clock.Now()
	require.NoError(t, reg.Update("job-1", Update{Status: Ptr(StatusCompleted), CompletedAt: &done}))
	clock.Advance(31 * time.Minute)

	s := NewSweeper(reg, "@every 1m", 30*time.Minute)
	s.sweep()

	_, err := reg.Get("job-1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
