// Package chat exposes the resolution engine over HTTP and WebSocket.
package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
	"github.com/ziadkadry99/cafeteria-ai/internal/markdown"
)

// FormatHTML asks for the answer rendered as HTML alongside the text.
const FormatHTML = "html"

// maxBodyBytes caps a chat request. History makes it larger than the
// message limit alone.
const maxBodyBytes = 1 << 20

// Answerer resolves one chat turn.
type Answerer interface {
	Answer(ctx context.Context, req engine.Request) engine.Response
}

// Request is the incoming chat message, on both transports.
type Request struct {
	engine.Request
	Format string `json:"format,omitempty"`
}

// Response is the engine response plus the optional HTML rendering.
type Response struct {
	engine.Response
	HTML string `json:"html,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves chat requests.
type Handler struct {
	engine Answerer
	logger *zap.Logger
}

// New creates a Handler over e.
func New(e Answerer, logger *zap.Logger) *Handler {
	return &Handler{engine: e, logger: logging.OrNop(logger)}
}

// RegisterRoutes mounts the chat routes onto the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.ServeChat)
	r.Get("/ws/chat", h.ServeWebSocket)
}

// ServeChat answers one JSON chat request.
func (h *Handler) ServeChat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.respond(r.Context(), req))
}

// ServeWebSocket answers each JSON message on the connection in turn.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			h.send(conn, map[string]string{"error": "invalid message format"})
			continue
		}
		h.send(conn, h.respond(r.Context(), req))
	}
}

func (h *Handler) respond(ctx context.Context, req Request) Response {
	resp := Response{Response: h.engine.Answer(ctx, req.Request)}
	if req.Format == FormatHTML {
		html, err := markdown.ToHTML(resp.Text)
		if err != nil {
			h.logger.Warn("rendering answer", zap.Error(err))
		}
		resp.HTML = html
	}
	h.logger.Info("chat answered",
		zap.String("request_id", resp.Debug.RequestID),
		zap.String("source", string(resp.Source)),
		zap.String("used_api", resp.UsedAPI),
	)
	return resp
}

func (h *Handler) send(conn *websocket.Conn, v any) {
	if err := conn.WriteJSON(v); err != nil {
		h.logger.Warn("websocket write", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
