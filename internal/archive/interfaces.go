package archive

import "context"

// Submitter issues the initial "archive this URL" request and returns a job
// handle. Submission is not retried here; retry, if any, happens at request
// granularity in the caller.
type Submitter interface {
	Submit(ctx context.Context, url string) (CaptureJob, error)
}

// StatusChecker fetches the current status of a capture job.
type StatusChecker interface {
	CheckStatus(ctx context.Context, jobID string) (RawStatus, error)
}

// Poller drives a status-check session until a terminal status or the
// attempt budget runs out.
type Poller interface {
	Poll(ctx context.Context, jobID string) (RawStatus, error)
}

// RecordStore persists archive outcomes keyed by bookmark identity.
type RecordStore interface {
	Write(rec Record) error
	FindByBookmarkID(bookmarkID string) (Record, bool, error)
	All() ([]Record, error)
}
