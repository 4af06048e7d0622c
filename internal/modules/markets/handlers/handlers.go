// Package handlers provides HTTP handlers for market data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/predictions-dashboard/internal/domain"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/rs/zerolog"
)

// Handler handles market data HTTP requests
type Handler struct {
	board *markets.Board
	feed  domain.EventFeed
	log   zerolog.Logger
}

// NewHandler creates a new markets handler. Queried requests go straight to feed;
// unqueried ones are served from board.
func NewHandler(board *markets.Board, feed domain.EventFeed, log zerolog.Logger) *Handler {
	return &Handler{
		board: board,
		feed:  feed,
		log:   log.With().Str("handler", "markets").Logger(),
	}
}

// HandleGetEvents returns normalized events. A request without a query string is
// answered from the price board, refreshing it first if it has never loaded. A request
// with a query string is forwarded upstream as is.
func (h *Handler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if query := r.URL.RawQuery; query != "" {
		events, err := h.feed.FetchEvents(r.Context(), query)
		if err != nil {
			h.writeFetchError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, nonNil(events))
		return
	}

	snapshot := h.board.Snapshot()
	if snapshot.UpdatedAt.IsZero() {
		refreshed, err := h.board.Refresh(r.Context())
		if err != nil {
			h.writeFetchError(w, err)
			return
		}
		snapshot = refreshed
	}

	h.writeJSON(w, http.StatusOK, nonNil(snapshot.Events))
}

// HandleGetBoard returns the freshness of the price board
func (h *Handler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.board.Status())
}

func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	var fetchErr *markets.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Status != 0 {
		h.log.Warn().Int("status", fetchErr.Status).Msg("Upstream rejected events request")
		h.writeMessage(w, fetchErr.Status, markets.MessageUpstreamFailed)
		return
	}

	h.log.Error().Err(err).Msg("Failed to fetch events")
	h.writeMessage(w, http.StatusInternalServerError, markets.MessageUnavailable)
}

func nonNil(events []domain.NormalizedEvent) []domain.NormalizedEvent {
	if events == nil {
		return []domain.NormalizedEvent{}
	}
	return events
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}
