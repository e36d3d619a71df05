package tasks

import (
	"fmt"

	"github.com/desertthunder/discwatch/internal/models"
)

// ProgressUpdate represents a progress event during a watch pass or batch.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase    Phase  // Operation phase
	ArtistID string // Artist the event belongs to, empty for batch events
	Step     int    // Current step number within phase
	Total    int    // Total steps in this phase
	Message  string // Human-readable message for display
	Data     any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Queued Phase = iota
	FetchDiscography
	Reconcile
	Dispatch
	Persist
	Completed
	Failed
	Skipped
	BatchDone
	Exported
)

func (p Phase) String() string {
	switch p {
	case Queued:
		return "queued"
	case FetchDiscography:
		return "fetch_discography"
	case Reconcile:
		return "reconcile"
	case Dispatch:
		return "dispatch"
	case Persist:
		return "persist"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case BatchDone:
		return "batch_done"
	case Exported:
		return "exported"
	default:
		return ""
	}
}

// sendProgress delivers u without blocking; updates are dropped when nobody is reading.
func sendProgress(prog chan<- ProgressUpdate, u ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- u:
	default:
	}
}

func queuedUpdate(artistID string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Queued,
		ArtistID: artistID,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("[%d/%d] Queued check for %s", step, total, artistID),
	}
}

func skippedUpdate(artistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Skipped,
		ArtistID: artistID,
		Message:  fmt.Sprintf("Check already running for %s, skipping", artistID),
	}
}

func fetchingDiscographyUpdate(artist *models.WatchedArtist) ProgressUpdate {
	return ProgressUpdate{
		Phase:    FetchDiscography,
		ArtistID: artist.ID,
		Message:  fmt.Sprintf("Fetching discography for %s...", artist.Name),
	}
}

func reconciledUpdate(artistID string, res *models.ReconciliationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Reconcile,
		ArtistID: artistID,
		Step:     len(res.NewAlbums),
		Total:    len(res.NewAlbums) + len(res.AlreadyKnown),
		Message:  fmt.Sprintf("%d new, %d known", len(res.NewAlbums), len(res.AlreadyKnown)),
		Data:     res,
	}
}

func dispatchUpdate(artistID string, step, total int, album models.AlbumRef, outcome string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Dispatch,
		ArtistID: artistID,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("[%d/%d] %s: %s", step, total, album.Name, outcome),
	}
}

func persistUpdate(artistID string, written int) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Persist,
		ArtistID: artistID,
		Step:     written,
		Total:    written,
		Message:  fmt.Sprintf("Recorded %d album(s) as known", written),
	}
}

func completedUpdate(artistID string, res *models.CheckResult) ProgressUpdate {
	msg := "✓ nothing new"
	if res.Dispatch != nil && res.Dispatch.Discarded {
		msg = "artist removed during check, results discarded"
	} else if res.Dispatch != nil && res.Dispatch.Requested() > 0 {
		msg = fmt.Sprintf("✓ %d queued, %d duplicate, %d failed",
			len(res.Dispatch.Queued), len(res.Dispatch.Duplicates), len(res.Dispatch.Failed))
	}
	return ProgressUpdate{
		Phase:    Completed,
		ArtistID: artistID,
		Message:  msg,
		Data:     res,
	}
}

func failedUpdate(artistID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Failed,
		ArtistID: artistID,
		Message:  fmt.Sprintf("✗ %s: %v", artistID, err),
	}
}

func batchDoneUpdate(report *BatchReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchDone,
		Step:    len(report.Checked),
		Total:   report.Requested,
		Message: fmt.Sprintf("Batch %s finished: %d checked, %d skipped, %d failed", report.BatchID, len(report.Checked), len(report.Skipped), len(report.Failed)),
		Data:    report,
	}
}

func exportUpdate(step, total int, res ArtistExportResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s: %d album(s), %d file(s)", step, total, res.Name, res.Albums, len(res.Files))
	if !res.Success {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, res.Name, res.Error)
	}
	return ProgressUpdate{
		Phase:    Exported,
		ArtistID: res.ArtistID,
		Step:     step,
		Total:    total,
		Message:  msg,
		Data:     res,
	}
}
