package archive

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blakewatson/bookmarks/internal/bookmark"
	"github.com/blakewatson/bookmarks/internal/clock"
	"github.com/blakewatson/bookmarks/internal/telemetry"
)

// ErrNoUsableResult signals a terminal status that was neither success nor a
// service-reported error.
var ErrNoUsableResult = errors.New("capture produced no usable result")

// FailurePolicy controls what happens when polling fails or the terminal
// status is unusable. Submission failures always write a bare marker so a
// permanently broken URL is never retried automatically.
type FailurePolicy int

const (
	// MarkAttempted writes a bare marker record on failure. Used by the
	// background sweep and the fire-and-forget HTTP variant.
	MarkAttempted FailurePolicy = iota
	// ReportFailure returns the error to the caller without writing a
	// record, leaving the bookmark eligible for a later attempt. Used by
	// the synchronous HTTP variant.
	ReportFailure
)

// Coordinator sequences submit, poll, resolve and persist for one archive
// attempt. Every failure path ends in either a written record or an error
// returned to the caller; it never panics.
type Coordinator struct {
	submitter Submitter
	poller    Poller
	resolver  *Resolver
	records   RecordStore
	clk       clock.Clock
	logger    *zap.Logger
}

// NewCoordinator constructs a Coordinator. A nil clk falls back to the
// system clock.
func NewCoordinator(
	submitter Submitter,
	poller Poller,
	resolver *Resolver,
	records RecordStore,
	clk clock.Clock,
	logger *zap.Logger,
) *Coordinator {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		submitter: submitter,
		poller:    poller,
		resolver:  resolver,
		records:   records,
		clk:       clk,
		logger:    logger,
	}
}

// Archive runs one capture attempt for the bookmark. Writing the record is
// idempotent: a later attempt for the same bookmark replaces the stored
// record, never duplicates it.
func (c *Coordinator) Archive(ctx context.Context, ref bookmark.Ref, policy FailurePolicy) (Record, error) {
	job, err := c.submitter.Submit(ctx, ref.URL)
	if err != nil {
		c.logger.Warn("capture submission failed",
			zap.String("bookmark_id", ref.ID),
			zap.String("url", ref.URL),
			zap.Error(err),
		)
		telemetry.ObserveArchiveAttempt("submit_failed")
		return c.writeMarker(ref.ID)
	}

	c.logger.Info("capture submitted",
		zap.String("bookmark_id", ref.ID),
		zap.String("job_id", job.JobID),
	)

	start := c.clk.Now()
	raw, err := c.poller.Poll(ctx, job.JobID)
	telemetry.ObservePollSession(c.clk.Now().Sub(start))
	if err != nil {
		c.logger.Warn("capture polling failed",
			zap.String("bookmark_id", ref.ID),
			zap.String("job_id", job.JobID),
			zap.Error(err),
		)
		telemetry.ObserveArchiveAttempt("poll_failed")
		if policy == ReportFailure {
			return Record{}, fmt.Errorf("poll job %s: %w", job.JobID, err)
		}
		return c.writeMarker(ref.ID)
	}

	outcome := c.resolver.Resolve(raw)
	switch outcome.Kind {
	case OutcomeSuccess:
		telemetry.ObserveArchiveAttempt("success")
	case OutcomeError:
		telemetry.ObserveArchiveAttempt("service_error")
	case OutcomeUnknown:
		telemetry.ObserveArchiveAttempt("no_result")
		if policy == ReportFailure {
			return Record{}, fmt.Errorf("job %s: %w", job.JobID, ErrNoUsableResult)
		}
	}

	rec := outcome.Record(ref.ID)
	if err := c.records.Write(rec); err != nil {
		return Record{}, fmt.Errorf("write archive record: %w", err)
	}
	c.logger.Info("archive attempt recorded",
		zap.String("bookmark_id", ref.ID),
		zap.String("archive_url", rec.ArchiveURL),
	)
	return rec, nil
}

func (c *Coordinator) writeMarker(bookmarkID string) (Record, error) {
	rec := Record{BookmarkID: bookmarkID}
	if err := c.records.Write(rec); err != nil {
		return Record{}, fmt.Errorf("write marker record: %w", err)
	}
	return rec, nil
}

// NextEligible returns the first bookmark, in list order, with no record of
// any kind. The second return is false when every bookmark has been
// attempted.
func NextEligible(bookmarks []bookmark.Ref, records []Record) (bookmark.Ref, bool) {
	attempted := make(map[string]struct{}, len(records))
	for _, rec := range records {
		attempted[rec.BookmarkID] = struct{}{}
	}
	for _, ref := range bookmarks {
		if _, ok := attempted[ref.ID]; !ok {
			return ref, true
		}
	}
	return bookmark.Ref{}, false
}
