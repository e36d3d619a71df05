package models

// Outcome summarizes how much of a requested operation took effect.
type Outcome string

const (
	OutcomeNone     Outcome = "none"
	OutcomePartial  Outcome = "partial"
	OutcomeComplete Outcome = "complete"
)

// OutcomeOf classifies done out of requested.
// A request for zero items that did nothing is complete.
func OutcomeOf(done, requested int) Outcome {
	switch {
	case done >= requested:
		return OutcomeComplete
	case done == 0:
		return OutcomeNone
	default:
		return OutcomePartial
	}
}

// ItemError is a per-item failure inside a batch.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// ReconciliationResult is the diff between an artist's remote discography and the locally known albums.
//
// AlreadyKnown means present locally. Albums that are new but already in flight are not known;
// they surface as duplicates in the [DispatchReport].
type ReconciliationResult struct {
	ArtistID     string      `json:"artist_id"`
	NewAlbums    []AlbumRef  `json:"new_albums"`
	AlreadyKnown []AlbumRef  `json:"already_known"`
	Removed      []string    `json:"removed,omitempty"`
	FetchErrors  []ItemError `json:"fetch_errors,omitempty"`
	Total        int         `json:"total"`
}

// Outcome reports none when nothing new was found.
func (r *ReconciliationResult) Outcome() Outcome {
	if len(r.NewAlbums) == 0 {
		return OutcomeNone
	}
	if len(r.FetchErrors) > 0 {
		return OutcomePartial
	}
	return OutcomeComplete
}

// DispatchReport is the result of submitting albums to the download queue.
type DispatchReport struct {
	ArtistID   string      `json:"artist_id"`
	Queued     []AlbumRef  `json:"queued"`
	Duplicates []AlbumRef  `json:"duplicates"`
	Failed     []ItemError `json:"failed,omitempty"`
	Persisted  int         `json:"persisted"`
	Discarded  bool        `json:"discarded,omitempty"`
}

// Requested is the number of albums handed to the dispatcher.
func (d *DispatchReport) Requested() int {
	return len(d.Queued) + len(d.Duplicates) + len(d.Failed)
}

// Outcome treats duplicates as handled, since they are already on their way.
func (d *DispatchReport) Outcome() Outcome {
	return OutcomeOf(len(d.Queued)+len(d.Duplicates), d.Requested())
}

// CheckResult combines the diff and dispatch of a single watch pass.
type CheckResult struct {
	Reconciliation *ReconciliationResult `json:"reconciliation"`
	Dispatch       *DispatchReport       `json:"dispatch"`
}

// MarkResult reports a mark-as-known or mark-as-missing request.
type MarkResult struct {
	ArtistID    string      `json:"artist_id"`
	Requested   int         `json:"requested"`
	Processed   int         `json:"processed"`
	FetchErrors []ItemError `json:"fetch_errors,omitempty"`
	Outcome     Outcome     `json:"outcome"`
}

// DownloadRequest asks the download queue for one album or a whole discography.
type DownloadRequest struct {
	URL       string            `json:"url"`
	AlbumType string            `json:"album_type,omitempty"`
	Source    string            `json:"source,omitempty"`
	ArtistID  string            `json:"artist_id,omitempty"`
	AlbumID   string            `json:"album_id,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// QueuedItem is an accepted submission.
type QueuedItem struct {
	AlbumID string `json:"album_id"`
	Name    string `json:"name"`
	TaskID  string `json:"task_id"`
}

// SubmitResult is the dispatcher's answer: accepted items and items it already had queued.
type SubmitResult struct {
	Queued     []QueuedItem `json:"queued"`
	Duplicates []QueuedItem `json:"duplicates"`
}

// Accepted reports whether anything new was queued.
func (s *SubmitResult) Accepted() bool {
	return s != nil && len(s.Queued) > 0
}
