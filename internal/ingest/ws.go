package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dale108/jury-selection/internal/events"
	"github.com/dale108/jury-selection/internal/observability/logging"
	"github.com/dale108/jury-selection/internal/observability/metrics"
	"github.com/dale108/jury-selection/internal/storage"
)

// Inbound control messages: {"type":"end"} or {"type":"ping"}.
type controlMessage struct {
	Type string `json:"type"`
}

// Outbound messages carry a type tag plus a type-specific data payload.
type serverMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type startData struct {
	RecordingID string `json:"recording_id"`
	SessionID   string `json:"session_id"`
}

type chunkReceivedData struct {
	ChunkIndex    int     `json:"chunk_index"`
	TotalDuration float64 `json:"total_duration"`
}

type endData struct {
	RecordingID   string  `json:"recording_id"`
	TotalChunks   int     `json:"total_chunks"`
	TotalDuration float64 `json:"total_duration"`
}

// Handler upgrades ingest connections and drives one Session per stream.
type Handler struct {
	store        storage.RecordingStore
	bus          events.Bus
	frameSeconds float64
	limits       Limits
	metrics      *metrics.Metrics
	upgrader     websocket.Upgrader
}

// NewHandler creates the WebSocket ingest handler.
func NewHandler(store storage.RecordingStore, bus events.Bus, frameSeconds float64, limits Limits) *Handler {
	return &Handler{
		store:        store,
		bus:          bus,
		frameSeconds: frameSeconds,
		limits:       limits,
		metrics:      metrics.DefaultMetrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 4 * 1024,
			// The gateway in front of this service enforces origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /ws/audio/{session_id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	if h.limits.MaxFrameBytes > 0 {
		// Cap what gorilla buffers for a single message; an oversized frame
		// tears the connection down instead of ballooning memory first.
		conn.SetReadLimit(h.limits.MaxFrameBytes)
	}

	h.metrics.RecordStreamStart()
	start := time.Now()
	defer func() {
		h.metrics.RecordStreamEnd(time.Since(start).Seconds())
		conn.Close()
	}()

	h.serve(r.Context(), conn, sessionID)
}

// serve runs the receive loop for one connection. Finalize lives in a
// deferred block so an abrupt disconnect is treated identically to an
// explicit end message: partial recordings beat silently lost audio.
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, sessionID uuid.UUID) {
	session := NewSession(sessionID, h.store, h.bus, h.frameSeconds, h.limits)
	logger := logging.WithRecording(sessionID.String(), session.Recording().ID.String())

	rec, err := session.Start(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start session")
		h.send(conn, serverMessage{Type: "error", Error: "failed to start recording"})
		return
	}

	defer func() {
		// Detach from the request context: finalize must run to completion
		// even when the client is already gone.
		finalizeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		final, err := session.Finalize(finalizeCtx)
		if err != nil {
			logger.Error().Err(err).Msg("finalize failed")
			// The client channel may already be closed; a failed send here
			// is swallowed, not escalated.
			h.send(conn, serverMessage{Type: "error", Error: err.Error()})
			return
		}
		h.send(conn, serverMessage{Type: "end", Data: endData{
			RecordingID:   final.ID.String(),
			TotalChunks:   session.FrameCount(),
			TotalDuration: final.DurationSeconds,
		}})
	}()

	if err := h.send(conn, serverMessage{Type: "start", Data: startData{
		RecordingID: rec.ID.String(),
		SessionID:   sessionID.String(),
	}}); err != nil {
		logger.Warn().Err(err).Msg("failed to send start ack")
		return
	}

	seq := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("connection lost, finalizing with buffered frames")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			duration, err := session.AcceptFrame(seq, data)
			if err != nil {
				logger.Error().Err(err).Int("seq", seq).Msg("frame rejected")
				h.send(conn, serverMessage{Type: "error", Error: err.Error()})
				return
			}
			seq++
			if err := h.send(conn, serverMessage{Type: "chunk_received", Data: chunkReceivedData{
				ChunkIndex:    seq,
				TotalDuration: duration,
			}}); err != nil {
				// Transient ack-write hiccup: retry once, then give up and
				// finalize with whatever data exists.
				if err := h.send(conn, serverMessage{Type: "chunk_received", Data: chunkReceivedData{
					ChunkIndex:    seq,
					TotalDuration: duration,
				}}); err != nil {
					logger.Warn().Err(err).Msg("frame ack failed twice")
					return
				}
			}

		case websocket.TextMessage:
			var ctrl controlMessage
			if err := json.Unmarshal(data, &ctrl); err != nil {
				logger.Debug().Str("raw", string(data)).Msg("unparseable control message ignored")
				continue
			}
			switch ctrl.Type {
			case "end":
				return
			case "ping":
				h.send(conn, serverMessage{Type: "pong"})
			default:
				logger.Debug().Str("type", ctrl.Type).Msg("unrecognized control message ignored")
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
