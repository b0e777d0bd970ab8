package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

// WebSocketHandler upgrades connections onto the refresh hub.
type WebSocketHandler struct {
	authService *services.AuthService
	store       *database.Store
	hub         *services.Hub
	logger      *logrus.Logger
}

func NewWebSocketHandler(authService *services.AuthService, store *database.Store, hub *services.Hub, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		authService: authService,
		store:       store,
		hub:         hub,
		logger:      logger,
	}
}

// HandleWebSocket authenticates via query parameters (the browser WebSocket
// API cannot set an Authorization header) and subscribes the connection to
// one project's refresh events.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	uid, _, err := h.authService.VerifyJWT(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		respondError(w, http.StatusBadRequest, "missing project")
		return
	}
	if _, err := h.store.GetMembership(r.Context(), projectID, uid); err != nil {
		respondError(w, http.StatusForbidden, ErrForbidden.Error())
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // CORS is enforced at the HTTP layer
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &services.Client{
		Hub:       h.hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		UserID:    uid,
		ProjectID: projectID,
	}

	h.hub.Register(client)
	h.logger.Infof("WebSocket client registered: user=%s project=%s", uid, projectID)

	go client.WritePump()
	go client.ReadPump()
}
