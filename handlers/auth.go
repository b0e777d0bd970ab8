package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"sprintdesk/database"
	"sprintdesk/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	store       *database.Store
	logger      *logrus.Logger
}

func NewAuthHandler(authService *services.AuthService, store *database.Store, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		logger:      logger,
	}
}

// Login handles the login request (sending a magic link)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// Get base URL from request or use default
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	magicLink, err := h.authService.GenerateMagicLink(req.Email, baseURL)
	if err != nil {
		h.logger.Errorf("Error generating magic link: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to generate login link")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Magic link has been sent",
		"magicLink": magicLink, // For development only
	})
}

// HandleMagicLink processes a magic link token and redirects to the frontend
func (h *AuthHandler) HandleMagicLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing token")
		return
	}

	email, err := h.authService.VerifyMagicLinkToken(token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	// First login creates the user row
	user, err := h.store.GetOrCreateUserByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	jwtToken, err := h.authService.CreateJWT(user.ID, user.Email)
	if err != nil {
		h.logger.Errorf("Error creating JWT: %v", err)
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}

	// Redirect to frontend with token
	redirectURL := fmt.Sprintf("/?token=%s&email=%s", jwtToken, user.Email)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// VerifyToken checks if a JWT token is valid
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		respondError(w, http.StatusUnauthorized, "missing authorization header")
		return
	}

	authParts := strings.Split(authHeader, " ")
	if len(authParts) != 2 || authParts[0] != "Bearer" {
		respondError(w, http.StatusUnauthorized, "invalid authorization format")
		return
	}

	uid, email, err := h.authService.VerifyJWT(authParts[1])
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"userId": uid,
		"email":  email,
	})
}
