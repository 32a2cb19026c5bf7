package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls int
	err   error
}

func (r *countingRunner) Run(context.Context) (Report, error) {
	r.calls++
	return Report{RunID: "test-run"}, r.err
}

func TestNewSchedulerRegistersEntry(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)

	s, err := NewScheduler(&countingRunner{}, "0 9,14,20 * * *", brt, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)

	next := s.Next().In(brt)
	assert.Contains(t, []int{9, 14, 20}, next.Hour())
	assert.Zero(t, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestNewSchedulerRejectsInvalidSpec(t *testing.T) {
	_, err := NewScheduler(&countingRunner{}, "toda hora", time.UTC, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestSchedulerRunsJob(t *testing.T) {
	runner := &countingRunner{}
	s, err := NewScheduler(runner, "@every 1h", time.UTC, zerolog.Nop())
	require.NoError(t, err)

	s.runScheduled()
	assert.Equal(t, 1, runner.calls)

	runner.err = errors.New("boom")
	s.runScheduled()
	assert.Equal(t, 2, runner.calls)
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(&countingRunner{}, "@every 1h", time.UTC, zerolog.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	assert.False(t, s.Next().IsZero())

	ctx := s.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
