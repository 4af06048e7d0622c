package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/predictions-dashboard/internal/modules/portfolio/handlers"
)

const (
	streamBufferSize  = 100
	streamWriteWait   = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

// StreamMessage is the wire format of a pushed event
type StreamMessage struct {
	Type      string                 `json:"type"`
	Module    string                 `json:"module,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// StreamHandler pushes bus events to browsers over WebSocket or Server-Sent Events.
// A client receives public events and the events scoped to the account its
// session is currently bound to.
type StreamHandler struct {
	bus       *events.Bus
	devMode   bool
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(bus *events.Bus, devMode bool, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		devMode:   devMode,
		heartbeat: heartbeatInterval,
		log:       log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeSSE handles GET /api/events/stream
func (h *StreamHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	session, ok := portfoliohandlers.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// The server write timeout would otherwise cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	typesFilter := r.URL.Query().Get("types")
	eventChan, unsubscribe := h.subscribe(parseTypes(typesFilter))
	defer unsubscribe()

	h.log.Info().
		Str("session", session.ID()).
		Str("types_filter", typesFilter).
		Msg("Client connected to event stream")

	h.writeSSE(w, StreamMessage{
		Type:      "connected",
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "Connected to event stream",
	})
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Str("session", session.ID()).Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			if !visibleTo(event, session) {
				continue
			}
			h.writeSSE(w, toMessage(event))
			flusher.Flush()

		case <-heartbeat.C:
			h.writeSSE(w, StreamMessage{
				Type:      "heartbeat",
				Timestamp: time.Now().Format(time.RFC3339),
			})
			flusher.Flush()
		}
	}
}

// ServeWebSocket handles GET /api/stream
func (h *StreamHandler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := portfoliohandlers.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.devMode,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	eventChan, unsubscribe := h.subscribe(parseTypes(r.URL.Query().Get("types")))
	defer unsubscribe()

	// Clients never send data; CloseRead handles control frames and cancels ctx on close
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Str("session", session.ID()).Msg("Client connected to websocket stream")

	if err := h.writeWebSocket(ctx, conn, StreamMessage{
		Type:      "connected",
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "Connected to event stream",
	}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("session", session.ID()).Msg("Client disconnected from websocket stream")
			return

		case event := <-eventChan:
			if !visibleTo(event, session) {
				continue
			}
			if err := h.writeWebSocket(ctx, conn, toMessage(event)); err != nil {
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

// subscribe registers a non-blocking bus handler feeding a buffered channel.
// Scope filtering happens on the reading side: handlers run on the emitting
// goroutine, which may hold session locks.
func (h *StreamHandler) subscribe(allowed map[events.EventType]bool) (<-chan *events.Event, func()) {
	eventChan := make(chan *events.Event, streamBufferSize)

	unsubscribe := h.bus.Subscribe(func(event *events.Event) {
		if allowed != nil && !allowed[event.Type] {
			return
		}

		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})

	return eventChan, unsubscribe
}

func (h *StreamHandler) writeSSE(w http.ResponseWriter, msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func (h *StreamHandler) writeWebSocket(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("event_type", msg.Type).Msg("Failed to write to websocket")
		return err
	}
	return nil
}

func parseTypes(raw string) map[events.EventType]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	allowed := make(map[events.EventType]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			allowed[events.EventType(strings.ToUpper(t))] = true
		}
	}
	return allowed
}

func visibleTo(event *events.Event, session *portfolio.Session) bool {
	return event.IsPublic() || event.Scope == session.Scope()
}

func toMessage(event *events.Event) StreamMessage {
	return StreamMessage{
		Type:      string(event.Type),
		Module:    event.Module,
		Timestamp: event.Timestamp.Format(time.RFC3339),
		Data:      event.Data,
	}
}
