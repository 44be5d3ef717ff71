package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeScheduler records requested waits and returns immediately.
type fakeScheduler struct {
	waits []time.Duration
	err   error
}

func (s *fakeScheduler) Wait(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return s.err
}

// scriptedChecker returns canned statuses in order, then repeats the last.
type scriptedChecker struct {
	statuses []RawStatus
	err      error
	calls    int
}

func (c *scriptedChecker) CheckStatus(_ context.Context, _ string) (RawStatus, error) {
	c.calls++
	if c.err != nil {
		return RawStatus{}, c.err
	}
	idx := c.calls - 1
	if idx >= len(c.statuses) {
		idx = len(c.statuses) - 1
	}
	return c.statuses[idx], nil
}

func pending(n int) []RawStatus {
	statuses := make([]RawStatus, n)
	for i := range statuses {
		statuses[i] = RawStatus{Status: StatusPending}
	}
	return statuses
}

func TestPollGivesUpAfterExactBudget(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{statuses: pending(25)}
	sched := &fakeScheduler{}
	poller := NewStatusPoller(checker, sched, 10*time.Second, 20, zap.NewNop())

	_, err := poller.Poll(context.Background(), "job1")
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 20, checker.calls, "budget of 20 means exactly 20 status checks")
	assert.Len(t, sched.waits, 20, "every check is preceded by the configured delay")
	assert.Equal(t, 10*time.Second, sched.waits[0])
}

func TestPollStopsAtTerminalStatus(t *testing.T) {
	t.Parallel()

	statuses := append(pending(4), RawStatus{
		Status:      StatusSuccess,
		Timestamp:   "20240601120000",
		OriginalURL: "https://example.com",
	})
	checker := &scriptedChecker{statuses: statuses}
	poller := NewStatusPoller(checker, &fakeScheduler{}, time.Second, 20, zap.NewNop())

	raw, err := poller.Poll(context.Background(), "job1")
	require.NoError(t, err)
	assert.Equal(t, 5, checker.calls)
	assert.Equal(t, StatusSuccess, raw.Status)
	assert.Equal(t, "20240601120000", raw.Timestamp)
}

func TestPollReturnsServiceErrorUninterpreted(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{statuses: []RawStatus{{Status: StatusError}}}
	poller := NewStatusPoller(checker, &fakeScheduler{}, time.Second, 20, zap.NewNop())

	raw, err := poller.Poll(context.Background(), "job1")
	require.NoError(t, err, "a service-reported error is a successful poll")
	assert.Equal(t, StatusError, raw.Status)
	assert.Equal(t, 1, checker.calls)
}

func TestPollTransportErrorAbortsImmediately(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{err: errors.New("connection refused")}
	poller := NewStatusPoller(checker, &fakeScheduler{}, time.Second, 20, zap.NewNop())

	_, err := poller.Poll(context.Background(), "job1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 1, checker.calls)
}

func TestPollStopsWhenContextCanceled(t *testing.T) {
	t.Parallel()

	checker := &scriptedChecker{statuses: pending(5)}
	sched := &fakeScheduler{err: context.Canceled}
	poller := NewStatusPoller(checker, sched, time.Second, 20, zap.NewNop())

	_, err := poller.Poll(context.Background(), "job1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, checker.calls)
}
