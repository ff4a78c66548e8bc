package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPurger struct {
	cutoffs []time.Time
	err     error
}

func (p *recordingPurger) PurgeStale(_ context.Context, before time.Time) (int, error) {
	p.cutoffs = append(p.cutoffs, before)
	return 3, p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunNowUsesTTL(t *testing.T) {
	p := &recordingPurger{}
	s := NewScheduler(p, "0 3 * * *", 48*time.Hour, testLogger())
	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.RunNow()

	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), p.cutoffs[0])
}

func TestScheduler_RunNowSurvivesErrors(t *testing.T) {
	p := &recordingPurger{err: errors.New("db down")}
	s := NewScheduler(p, "0 3 * * *", time.Hour, testLogger())

	assert.NotPanics(t, s.RunNow)
	assert.Len(t, p.cutoffs, 1)
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&recordingPurger{}, "not a schedule", time.Hour, testLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&recordingPurger{}, "@every 1h", time.Hour, testLogger())
	require.NoError(t, s.Start())
	<-s.Stop().Done()
}
