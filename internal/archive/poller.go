package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/clock"
)

// ErrPollTimeout signals that the attempt budget ran out while the job was
// still pending.
var ErrPollTimeout = errors.New("capture took too long to complete")

// StatusPoller checks a capture job on a fixed cadence until it reaches a
// terminal status. The inter-poll delay goes through a clock.Scheduler so
// sessions suspend cooperatively and tests can run without real waits.
type StatusPoller struct {
	checker  StatusChecker
	sched    clock.Scheduler
	delay    time.Duration
	attempts int
	logger   *zap.Logger
}

// NewStatusPoller builds a poller with the given delay and attempt budget.
func NewStatusPoller(
	checker StatusChecker,
	sched clock.Scheduler,
	delay time.Duration,
	attempts int,
	logger *zap.Logger,
) *StatusPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusPoller{
		checker:  checker,
		sched:    sched,
		delay:    delay,
		attempts: attempts,
		logger:   logger,
	}
}

// Poll waits the configured delay, checks the job, and repeats while the
// status is pending. Each pending response consumes one attempt; when the
// budget is spent the session fails with ErrPollTimeout. Any non-pending
// status is returned as-is, uninterpreted. A transport or parse failure
// aborts the session immediately without consuming budget.
func (p *StatusPoller) Poll(ctx context.Context, jobID string) (RawStatus, error) {
	tries := p.attempts
	for {
		if err := p.sched.Wait(ctx, p.delay); err != nil {
			return RawStatus{}, fmt.Errorf("poll wait: %w", err)
		}

		raw, err := p.checker.CheckStatus(ctx, jobID)
		if err != nil {
			return RawStatus{}, fmt.Errorf("check job status: %w", err)
		}

		if raw.Status != StatusPending {
			return raw, nil
		}

		tries--
		p.logger.Debug("capture still pending",
			zap.String("job_id", jobID),
			zap.Int("tries_left", tries),
		)
		if tries <= 0 {
			return RawStatus{}, ErrPollTimeout
		}
	}
}
