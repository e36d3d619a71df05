package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
)

// ArtistHandler serves artist lookups and one-off discography downloads.
type ArtistHandler struct {
	svc    *tasks.WatchService
	logger *log.Logger
	mux    *http.ServeMux
}

// NewArtistHandler creates an [ArtistHandler].
func NewArtistHandler(svc *tasks.WatchService, logger *log.Logger) *ArtistHandler {
	h := &ArtistHandler{svc: svc, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /api/artist/info", h.info)
	h.mux.HandleFunc("GET /api/artist/download/{id}", h.download)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *ArtistHandler) Routes() []string {
	return []string{
		"GET /api/artist/info",
		"GET /api/artist/download/{id}",
	}
}

func (h *ArtistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *ArtistHandler) info(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, h.logger, fmt.Errorf("%w: id query parameter", shared.ErrMissingArgument))
		return
	}

	info, err := h.svc.ArtistInfo(r.Context(), id)
	if err != nil {
		h.logger.Warn("artist info failed", "artist", id, "err", err)
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type downloadResponse struct {
	Message    string             `json:"message"`
	Queued     []models.AlbumRef  `json:"queued_albums"`
	Duplicates []models.AlbumRef  `json:"duplicate_albums"`
	Failed     []models.ItemError `json:"failed_albums,omitempty"`
}

func (h *ArtistHandler) download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	report, err := h.svc.DownloadArtist(r.Context(), id, r.URL.Query().Get("album_type"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, downloadResponse{
		Message:    fmt.Sprintf("Queued %d album(s), %d already queued", len(report.Queued), len(report.Duplicates)),
		Queued:     report.Queued,
		Duplicates: report.Duplicates,
		Failed:     report.Failed,
	})
}
