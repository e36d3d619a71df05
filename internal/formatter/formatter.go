// package formatter renders watchlist data (watched artists, known albums, check history) as CSV, Markdown,
// plain text or JSON, and writes per-artist export files.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
)

const dateLayout = "2006-01-02 15:04"

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ValidFormat reports whether format is one of the supported export formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return true
	}
	return false
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format(dateLayout)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// WatchlistToCSV converts watched artists to CSV with columns: ID, Name, Total Albums, Watched Since, Last Checked
func WatchlistToCSV(artists []models.WatchedArtist) ([]byte, error) {
	rows := make([][]string, 0, len(artists))
	for _, a := range artists {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			strconv.Itoa(a.TotalAlbums),
			a.WatchedSince.UTC().Format(time.RFC3339),
			lastCheckedRFC3339(a.LastCheckedAt),
		})
	}
	return writeCSV([]string{"ID", "Name", "Total Albums", "Watched Since", "Last Checked"}, rows)
}

func lastCheckedRFC3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WatchlistToText renders watched artists as an aligned plain text listing.
func WatchlistToText(artists []models.WatchedArtist) []byte {
	var buf bytes.Buffer
	if len(artists) == 0 {
		buf.WriteString("No artists are being watched.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Watched artists: %d\n\n", len(artists))
	for i, a := range artists {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, a.Name, a.ID)
		fmt.Fprintf(&buf, "   albums: %d  watched since: %s  last checked: %s\n",
			a.TotalAlbums, formatTime(&a.WatchedSince), formatTime(a.LastCheckedAt))
	}
	return buf.Bytes()
}

// AlbumsToCSV converts known albums to CSV with columns: Album ID, Title, Type, Release Date, Tracks, Task ID, Added At
func AlbumsToCSV(albums []models.KnownAlbum) ([]byte, error) {
	rows := make([][]string, 0, len(albums))
	for _, a := range albums {
		rows = append(rows, []string{
			a.AlbumID,
			a.Title,
			a.AlbumType,
			a.ReleaseDate,
			strconv.Itoa(a.TotalTracks),
			a.TaskID,
			a.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	return writeCSV([]string{"Album ID", "Title", "Type", "Release Date", "Tracks", "Task ID", "Added At"}, rows)
}

// AlbumsToMarkdown renders an artist's known albums as a Markdown document.
func AlbumsToMarkdown(artist models.WatchedArtist, albums []models.KnownAlbum) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", artist.Name)
	fmt.Fprintf(&buf, "**Artist ID**: %s\n", artist.ID)
	fmt.Fprintf(&buf, "**Albums on record**: %d of %d\n", len(albums), artist.TotalAlbums)
	fmt.Fprintf(&buf, "**Watched since**: %s\n", formatTime(&artist.WatchedSince))
	fmt.Fprintf(&buf, "**Last checked**: %s\n\n", formatTime(artist.LastCheckedAt))

	buf.WriteString("## Known Albums\n\n")
	if len(albums) == 0 {
		buf.WriteString("_None yet._\n")
		return buf.Bytes()
	}

	buf.WriteString("| # | Title | Type | Released | Tracks |\n")
	buf.WriteString("|---|-------|------|----------|--------|\n")
	for i, a := range albums {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %d |\n", i+1, a.Title, a.AlbumType, a.ReleaseDate, a.TotalTracks)
	}
	return buf.Bytes()
}

// AlbumsToText renders an artist's known albums as plain text.
func AlbumsToText(artist models.WatchedArtist, albums []models.KnownAlbum) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Artist: %s (%s)\n", artist.Name, artist.ID)
	fmt.Fprintf(&buf, "Known albums: %d\n\n", len(albums))
	for i, a := range albums {
		released := a.ReleaseDate
		if released == "" {
			released = "unknown"
		}
		fmt.Fprintf(&buf, "%d. %s [%s, %s]\n", i+1, a.Title, a.AlbumType, released)
	}
	return buf.Bytes()
}

// CheckRunsToText renders check history, newest first as returned by the store.
func CheckRunsToText(runs []models.CheckRun) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No checks recorded.\n")
		return buf.Bytes()
	}

	for _, r := range runs {
		fmt.Fprintf(&buf, "%s  %-9s  %s  new=%d queued=%d duplicates=%d failed=%d (%s)\n",
			r.StartedAt.Local().Format(dateLayout), r.Status, r.ArtistID,
			r.NewAlbums, r.Queued, r.Duplicates, r.Failed, r.Duration().Round(time.Millisecond))
		if r.Error != "" {
			fmt.Fprintf(&buf, "    error: %s\n", r.Error)
		}
	}
	return buf.Bytes()
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	AlbumsFile   string
	MetadataFile string
}

// WriteCSVExport writes {base}_albums.csv and {base}_metadata.json for an artist.
//
// Defaults to the artist ID as the base filename.
func WriteCSVExport(artist models.WatchedArtist, albums []models.KnownAlbum, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = artist.ID
	}

	csvData, err := AlbumsToCSV(albums)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	albumsFile := baseFilepath + "_albums.csv"
	if err := os.WriteFile(albumsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := shared.MarshalJSON(artist, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{AlbumsFile: albumsFile, MetadataFile: metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md for an artist. The directory defaults to the artist ID.
func WriteMarkdownExport(artist models.WatchedArtist, albums []models.KnownAlbum, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = artist.ID
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, AlbumsToMarkdown(artist, albums), 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport writes an artist's known albums as plain text.
//
// Defaults to {artist.ID}_albums.txt as the filename.
func WriteTextExport(artist models.WatchedArtist, albums []models.KnownAlbum, path string) (string, error) {
	if path == "" {
		path = artist.ID + "_albums.txt"
	}
	if err := os.WriteFile(path, AlbumsToText(artist, albums), 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes the artist and its known albums as one JSON document.
func WriteJSONExport(artist models.WatchedArtist, albums []models.KnownAlbum, path string) (string, error) {
	if path == "" {
		path = artist.ID + ".json"
	}

	data, err := shared.MarshalJSON(struct {
		Artist models.WatchedArtist `json:"artist"`
		Albums []models.KnownAlbum  `json:"albums"`
	}{artist, albums}, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
