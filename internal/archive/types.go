// Package archive implements the wayback capture subsystem: submitting a URL
// to the external archiving service, polling the capture job to a terminal
// status, and persisting the outcome keyed by bookmark identity.
package archive

import "encoding/json"

// Job statuses reported by the archiving service.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// CaptureJob identifies an asynchronous capture on the archiving service.
// It lives only for the duration of one archive attempt.
type CaptureJob struct {
	JobID string `json:"job_id"`
}

// RawStatus is the service's status payload at one point in time. Payload
// holds the response body verbatim so error details survive untouched.
type RawStatus struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	OriginalURL string `json:"original_url"`

	Payload json.RawMessage `json:"-"`
}

// Record is the durable result of one archive attempt for one bookmark.
// A record with neither archive fields nor an error is a bare marker meaning
// "attempted, no usable result". At most one record exists per bookmark id.
type Record struct {
	BookmarkID string          `json:"bookmark_id"`
	ArchiveID  string          `json:"archive_id,omitempty"`
	ArchiveURL string          `json:"archive_url,omitempty"`
	Error      json.RawMessage `json:"error,omitempty"`
}

// OutcomeKind classifies a resolved terminal status.
type OutcomeKind int

// Resolved outcome kinds.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeError
	OutcomeUnknown
)

// Outcome is the normalized interpretation of a terminal RawStatus.
type Outcome struct {
	Kind       OutcomeKind
	ArchiveID  string
	ArchiveURL string
	Error      json.RawMessage
}

// Record converts the outcome into a persistable record for the bookmark.
func (o Outcome) Record(bookmarkID string) Record {
	rec := Record{BookmarkID: bookmarkID}
	switch o.Kind {
	case OutcomeSuccess:
		rec.ArchiveID = o.ArchiveID
		rec.ArchiveURL = o.ArchiveURL
	case OutcomeError:
		rec.Error = o.Error
	case OutcomeUnknown:
		// bare marker
	}
	return rec
}
