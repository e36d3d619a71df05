package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
)

// WatchHandler serves watchlist membership, manual checks and the watch settings.
type WatchHandler struct {
	svc       *tasks.WatchService
	scheduler *tasks.Scheduler
	history   tasks.CheckHistory
	logger    *log.Logger
	mux       *http.ServeMux
}

// WatchHandlerOpts contains the dependencies of a [WatchHandler].
type WatchHandlerOpts struct {
	Service   *tasks.WatchService
	Scheduler *tasks.Scheduler
	History   tasks.CheckHistory // Optional; the history route answers 404 without it
	Logger    *log.Logger
}

var watchRoutes = []string{
	"GET /api/artist/watch/list",
	"PUT /api/artist/watch/{id}",
	"DELETE /api/artist/watch/{id}",
	"GET /api/artist/watch/{id}/status",
	"GET /api/artist/watch/{id}/albums",
	"GET /api/artist/watch/{id}/albums/{album_id}",
	"DELETE /api/artist/watch/{id}/albums",
	"GET /api/artist/watch/{id}/history",
	"POST /api/artist/watch/trigger_check",
	// Serves both POST /trigger_check/{id} and POST /{id}/albums; the two shapes overlap in ServeMux.
	"POST /api/artist/watch/{id}/{action}",
	"GET /api/watch/status",
	"GET /api/watch/config",
	"PUT /api/watch/config",
}

// NewWatchHandler creates a [WatchHandler].
func NewWatchHandler(opts WatchHandlerOpts) *WatchHandler {
	h := &WatchHandler{
		svc:       opts.Service,
		scheduler: opts.Scheduler,
		history:   opts.History,
		logger:    opts.Logger,
		mux:       http.NewServeMux(),
	}

	handlers := []http.HandlerFunc{
		h.list,
		h.add,
		h.remove,
		h.status,
		h.knownAlbums,
		h.albumKnown,
		h.markMissing,
		h.checkHistory,
		h.triggerAll,
		h.postAction,
		h.schedulerStatus,
		h.getConfig,
		h.putConfig,
	}
	for i, route := range watchRoutes {
		h.mux.HandleFunc(route, handlers[i])
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *WatchHandler) Routes() []string {
	return watchRoutes
}

func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *WatchHandler) list(w http.ResponseWriter, r *http.Request) {
	artists, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *WatchHandler) add(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AddArtist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if res.AlreadyWatched {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("Artist %s is already being watched.", res.Artist.Name),
			"artist":  res.Artist,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Artist %s added to watchlist.", res.Artist.Name),
		"artist":  res.Artist,
	})
}

func (h *WatchHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.svc.RemoveArtist(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: fmt.Sprintf("Artist %s removed from watchlist.", id)})
}

func (h *WatchHandler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *WatchHandler) knownAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.KnownAlbums(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *WatchHandler) albumKnown(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.IsAlbumKnown(r.Context(), r.PathValue("id"), r.PathValue("album_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *WatchHandler) markKnown(w http.ResponseWriter, r *http.Request, artistID string) {
	ids, err := decodeStringList(r.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.MarkAlbumsKnown(r.Context(), artistID, ids)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *WatchHandler) markMissing(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeStringList(r.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.MarkAlbumsMissing(r.Context(), r.PathValue("id"), ids)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *WatchHandler) checkHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: check history not configured", shared.ErrNotFound))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.history.List(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type triggerResponse struct {
	Message   string   `json:"message"`
	BatchID   string   `json:"batch_id"`
	ArtistIDs []string `json:"artist_ids"`
}

func (h *WatchHandler) trigger(w http.ResponseWriter, r *http.Request, artistID string) {
	batch, err := h.scheduler.TriggerCheck(r.Context(), artistID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	msg := fmt.Sprintf("Check triggered for %d artist(s).", len(batch.ArtistIDs))
	if artistID != "" {
		msg = fmt.Sprintf("Check triggered for artist %s.", artistID)
	}
	writeJSON(w, http.StatusAccepted, triggerResponse{Message: msg, BatchID: batch.ID, ArtistIDs: batch.ArtistIDs})
}

func (h *WatchHandler) triggerAll(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, "")
}

func (h *WatchHandler) postAction(w http.ResponseWriter, r *http.Request) {
	id, action := r.PathValue("id"), r.PathValue("action")
	switch {
	case id == "trigger_check":
		h.trigger(w, r, action)
	case action == "albums":
		h.markKnown(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *WatchHandler) schedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

func (h *WatchHandler) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings().Snapshot())
}

// putConfig applies a partial JSON update on top of the current settings. Concurrent updates to
// different fields are both kept. Worker and queue sizes take effect on the next scheduler start.
func (h *WatchHandler) putConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
		return
	}

	cfg, err := h.svc.Settings().Modify(func(cfg *shared.WatchConfig) error {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		return nil
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("watch settings updated", "enabled", cfg.Enabled, "poll_interval", cfg.PollInterval, "album_types", cfg.AlbumTypes)
	writeJSON(w, http.StatusOK, cfg)
}
