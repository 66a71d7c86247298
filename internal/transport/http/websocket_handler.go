package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"predmaint/internal/config"
	apierrors "predmaint/internal/errors"
	ws "predmaint/internal/websocket"
)

// WebSocketHandler upgrades browser connections and registers them with the
// hub under the caller's session.
type WebSocketHandler struct {
	hub          *ws.Hub
	presentation PresentationServiceInterface
	upgrader     websocket.Upgrader
	cfg          config.WebSocketConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWebSocketHandler creates a new WebSocket handler. Only same-origin
// upgrades are accepted.
func NewWebSocketHandler(hub *ws.Hub, presentation PresentationServiceInterface, cfg config.WebSocketConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:          hub,
		presentation: presentation,
		cfg:          cfg,
		logger:       logger.With(slog.String("handler", "websocket")),
		errorHandler: errorHandler,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(status, apierrors.ErrWebSocketUpgrade.ErrorCode, apierrors.ErrWebSocketUpgrade.Message, reason.Error()))
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := SessionID(ctx)
	reqID := middleware.GetReqID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the request
		return
	}

	client := ws.NewClient(h.hub, ws.NewConnectionWrapper(conn), sessionID, reqID, h.cfg, h.logger)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("session_id", sessionID),
		slog.String("remote_addr", r.RemoteAddr))

	go client.WritePump()
	go client.ReadPump()

	// Registration is processed before later broadcasts, so the new client
	// receives the current slide.
	if view, err := h.presentation.State(sessionID); err == nil {
		h.hub.BroadcastToSession(sessionID, ws.TypeSlideState, view)
	}
}
