package archive

import "strings"

// Resolver turns a terminal RawStatus into a normalized outcome and derives
// the public snapshot URL. It performs no I/O.
type Resolver struct {
	snapshotBase string
}

// NewResolver builds a Resolver for the service at baseURL.
func NewResolver(baseURL string) *Resolver {
	return &Resolver{snapshotBase: strings.TrimRight(baseURL, "/") + "/web"}
}

// Resolve interprets raw. On success the archive id is the literal
// "{timestamp}/{original_url}" concatenation; the snapshot URL is derived
// from it, so the format must not change. Service-reported errors keep the
// whole payload as the error detail. Any other terminal status yields an
// unknown outcome.
func (r *Resolver) Resolve(raw RawStatus) Outcome {
	switch raw.Status {
	case StatusSuccess:
		archiveID := raw.Timestamp + "/" + raw.OriginalURL
		return Outcome{
			Kind:       OutcomeSuccess,
			ArchiveID:  archiveID,
			ArchiveURL: r.snapshotBase + "/" + archiveID,
		}
	case StatusError:
		return Outcome{Kind: OutcomeError, Error: raw.Payload}
	default:
		return Outcome{Kind: OutcomeUnknown}
	}
}
