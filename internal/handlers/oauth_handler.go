package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wordwebs/internal/discord"
)

// OAuthHandler is the thin passthrough to Discord's OAuth flow used by
// the Activity frontend.
type OAuthHandler struct {
	oauth *discord.OAuthClient
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(oauth *discord.OAuthClient) *OAuthHandler {
	return &OAuthHandler{oauth: oauth}
}

type tokenRequest struct {
	Code string `json:"code"`
}

// Token exchanges an authorization code for tokens plus the user
// profile.
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "Missing required field: code", nil)
		return
	}

	result, err := h.oauth.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Discord token exchange failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh trades a refresh token for a fresh access token.
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Missing required field: refresh_token", nil)
		return
	}

	result, err := h.oauth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Discord token refresh failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Verify checks the bearer token and echoes the resolved user.
func (h *OAuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	user, err := h.oauth.VerifyToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, discord.ErrInvalidToken) {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		respondError(w, http.StatusBadGateway, "Discord verification failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"valid": true, "user": user})
}
