package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/copyforge-hq/titan/pkg/notify"
)

// EventsHandler streams job lifecycle events to WebSocket clients.
//
// Clients may pass a job_id query parameter to receive events for a
// single job only; without it every event is delivered. Delivery is
// best effort: a client that cannot keep up is disconnected by the
// broker rather than allowed to stall other subscribers.
type EventsHandler struct {
	broker   *notify.Broker
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates the WebSocket event stream handler.
func NewEventsHandler(broker *notify.Broker, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "events"),
	}
}

// ServeHTTP handles GET /queue/jobs/ws.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			"error", err,
			"remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	var filter notify.EventFilter
	jobID := r.URL.Query().Get("job_id")
	if jobID != "" {
		filter = notify.FilterByJob(jobID)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, cleanup := h.broker.Subscribe(ctx, filter)
	defer cleanup()

	h.logger.Debug("websocket client connected",
		"remote_addr", r.RemoteAddr,
		"job_id", jobID)

	// Drain the read side so close frames and network errors are
	// noticed even though clients never send application data.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				// Broker disconnected us, either shutdown or we
				// fell too far behind.
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("websocket write failed",
					"error", err,
					"remote_addr", r.RemoteAddr)
				return
			}
		}
	}
}
