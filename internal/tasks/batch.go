package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

// ArtistCheck summarizes one artist's pass inside a batch.
type ArtistCheck struct {
	ArtistID   string `json:"artist_id"`
	NewAlbums  int    `json:"new_albums"`
	Known      int    `json:"known"`
	Queued     int    `json:"queued"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
	Discarded  bool   `json:"discarded,omitempty"`
}

// BatchReport aggregates the passes of one trigger. Failures are collected per artist.
type BatchReport struct {
	BatchID    string             `json:"batch_id"`
	Requested  int                `json:"requested"`
	Checked    []ArtistCheck      `json:"checked"`
	Skipped    []string           `json:"skipped"`
	Failed     []models.ItemError `json:"failed"`
	Queued     int                `json:"queued"`
	Duplicates int                `json:"duplicates"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Outcome    models.Outcome     `json:"outcome"`
}

// Batch is the acknowledgment returned by [Scheduler.TriggerCheck].
// It completes once every requested artist has been checked, skipped or failed.
type Batch struct {
	ID        string   `json:"batch_id"`
	ArtistIDs []string `json:"artist_ids"`

	mu      sync.Mutex
	pending int
	report  BatchReport
	done    chan struct{}
}

func newBatch(ids []string) *Batch {
	now := time.Now().UTC()
	b := &Batch{
		ID:        shared.GenerateID(),
		ArtistIDs: ids,
		pending:   len(ids),
		done:      make(chan struct{}),
	}
	b.report = BatchReport{
		BatchID:   b.ID,
		Requested: len(ids),
		Checked:   []ArtistCheck{},
		Skipped:   []string{},
		Failed:    []models.ItemError{},
		StartedAt: now,
	}
	if b.pending == 0 {
		b.closeLocked()
	}
	return b
}

// Done is closed when the batch has finished.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch finishes or ctx is done.
func (b *Batch) Wait(ctx context.Context) (*BatchReport, error) {
	select {
	case <-b.done:
		return b.Report(), nil
	case <-ctx.Done():
		return b.Report(), ctx.Err()
	}
}

// Report returns a copy of the report so far.
func (b *Batch) Report() *BatchReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := b.report
	r.Checked = append([]ArtistCheck{}, b.report.Checked...)
	r.Skipped = append([]string{}, b.report.Skipped...)
	r.Failed = append([]models.ItemError{}, b.report.Failed...)
	return &r
}

// skip records artistID as already being checked. Returns the final report if this finished the batch.
func (b *Batch) skip(artistID string) *BatchReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.report.Skipped = append(b.report.Skipped, artistID)
	return b.settleLocked()
}

// complete records a pass result or error. Returns the final report if this finished the batch.
func (b *Batch) complete(artistID string, result *models.CheckResult, err error) *BatchReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case err != nil:
		b.report.Failed = append(b.report.Failed, models.ItemError{ID: artistID, Error: err.Error()})
	case result != nil:
		check := ArtistCheck{
			ArtistID:   artistID,
			NewAlbums:  len(result.Reconciliation.NewAlbums),
			Known:      len(result.Reconciliation.AlreadyKnown),
			Queued:     len(result.Dispatch.Queued),
			Duplicates: len(result.Dispatch.Duplicates),
			Failed:     len(result.Dispatch.Failed),
			Discarded:  result.Dispatch.Discarded,
		}
		b.report.Checked = append(b.report.Checked, check)
		b.report.Queued += check.Queued
		b.report.Duplicates += check.Duplicates
	}
	return b.settleLocked()
}

func (b *Batch) settleLocked() *BatchReport {
	b.pending--
	if b.pending > 0 {
		return nil
	}
	b.closeLocked()
	r := b.report
	return &r
}

func (b *Batch) closeLocked() {
	b.report.FinishedAt = time.Now().UTC()
	b.report.Outcome = models.OutcomeOf(len(b.report.Checked)+len(b.report.Skipped), b.report.Requested)
	close(b.done)
}
