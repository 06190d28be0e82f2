package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/lorrc/dispatch-analytics/internal/adapters/primary/websocket"
	"github.com/lorrc/dispatch-analytics/internal/config"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
)

// WebSocketHandler handles WebSocket connection upgrades
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	service  ports.DashboardService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	service ports.DashboardService,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:     hub,
		service: service,
		logger:  logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		// Check against allowed origins
		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// ServeHTTP upgrades the connection and registers a dashboard client. The
// optional "kinds" query parameter (comma separated) pre-subscribes the client
// to dataset events; every client receives KPI updates.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	// 1. Validate requested subscriptions before upgrading
	kinds, ok := parseKinds(r.URL.Query().Get("kinds"))
	if !ok {
		http.Error(w, "Unknown dataset kind", http.StatusBadRequest)
		return
	}

	// 2. Upgrade the connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			"request_id", requestID,
			"error", err,
		)
		return
	}

	// 3. Create and register the new client
	client := wsAdapter.NewClient(h.hub, conn, h.logger)
	for _, kind := range kinds {
		client.AddSubscription(kind)
	}
	client.Hub.Register <- client

	h.logger.Info("websocket connection established",
		"request_id", requestID,
		"client_id", client.ID,
		"remote_addr", r.RemoteAddr,
	)

	// 4. Prime the dashboard with the current KPIs
	if metrics, err := h.service.Metrics(r.Context()); err == nil {
		client.Send <- domain.Event{Type: domain.EventMetricsUpdated, Payload: metrics}
	}

	// 5. Start the I/O pumps in new goroutines
	go client.WritePump()
	go client.ReadPump()
}

func parseKinds(raw string) ([]domain.DatasetKind, bool) {
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	kinds := make([]domain.DatasetKind, 0, len(parts))
	for _, p := range parts {
		kind := domain.DatasetKind(strings.TrimSpace(p))
		if !kind.IsValid() {
			return nil, false
		}
		kinds = append(kinds, kind)
	}
	return kinds, true
}
