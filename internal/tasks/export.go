package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/discwatch/internal/formatter"
	"github.com/desertthunder/discwatch/internal/models"
)

// ExportOpts contains configuration for watchlist exports.
type ExportOpts struct {
	Format     string // Export format: json, csv, markdown, txt
	OutputDir  string // Base output directory (default: watchlist_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// ArtistExportResult is the outcome of exporting one artist.
type ArtistExportResult struct {
	ArtistID string   `json:"artist_id"`
	Name     string   `json:"name"`
	Albums   int      `json:"albums"`
	Files    []string `json:"files"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
}

// ExportResult summarizes a watchlist export. It is also written as export_manifest.json.
type ExportResult struct {
	TotalArtists    int                  `json:"total_artists"`
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	Format          string               `json:"format"`
	OutputDirectory string               `json:"output_directory"`
	ManifestPath    string               `json:"-"`
	ExportedAt      time.Time            `json:"exported_at"`
	Results         []ArtistExportResult `json:"results"`
}

// ExportWatchlist writes the known albums of every watched artist to OutputDir, one artist per worker job,
// and finishes with a manifest. A failed artist is recorded in the result without stopping the others.
func ExportWatchlist(ctx context.Context, prog chan<- ProgressUpdate, store WatchStore, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("watchlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}

	artists, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched artists: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		TotalArtists:    len(artists),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]ArtistExportResult, 0, len(artists)),
	}

	jobs := make(chan models.WatchedArtist)
	results := make(chan ArtistExportResult, len(artists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for artist := range jobs {
				results <- exportArtist(ctx, store, artist, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, artist := range artists {
			select {
			case <-ctx.Done():
				return
			case jobs <- artist:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		sendProgress(prog, exportUpdate(len(result.Results), len(artists), res))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportArtist(ctx context.Context, store WatchStore, artist models.WatchedArtist, opts ExportOpts) ArtistExportResult {
	res := ArtistExportResult{ArtistID: artist.ID, Name: artist.Name, Files: []string{}}

	albums, err := store.ListAlbums(ctx, artist.ID)
	if err != nil {
		res.Error = fmt.Sprintf("failed to load known albums: %v", err)
		return res
	}
	res.Albums = len(albums)

	base := filepath.Join(opts.OutputDir, artist.ID)
	switch opts.Format {
	case formatter.FormatCSV:
		out, err := formatter.WriteCSVExport(artist, albums, base)
		if err != nil {
			res.Error = fmt.Sprintf("CSV export failed: %v", err)
			return res
		}
		res.Files = []string{out.AlbumsFile, out.MetadataFile}
	case formatter.FormatMarkdown:
		path, err := formatter.WriteMarkdownExport(artist, albums, base)
		if err != nil {
			res.Error = fmt.Sprintf("markdown export failed: %v", err)
			return res
		}
		res.Files = []string{path}
	case formatter.FormatText:
		path, err := formatter.WriteTextExport(artist, albums, base+"_albums.txt")
		if err != nil {
			res.Error = fmt.Sprintf("text export failed: %v", err)
			return res
		}
		res.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(artist, albums, base+".json")
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Files = []string{path}
	}

	res.Success = true
	return res
}
