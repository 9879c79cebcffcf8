package handlers

import (
	"encoding/json"
	"net/http"

	"wordwebs/internal/game"
	"wordwebs/internal/service"
)

// GameHandler serves the puzzle and progress endpoints consumed by the
// Discord Activity frontend.
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// Health answers the liveness probe.
func (h *GameHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "WordWebs API"})
}

// DailyPuzzle returns the puzzle for today, or for ?date= when given.
func (h *GameHandler) DailyPuzzle(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" && !game.ValidDate(date) {
		respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	puzzle, err := h.games.DailyPuzzle(r.Context(), date)
	if err != nil {
		respondServiceError(w, "Failed to get daily puzzle", err)
		return
	}
	respondJSON(w, http.StatusOK, puzzle)
}

type submitGuessRequest struct {
	PuzzleID       string   `json:"puzzle_id"`
	Guess          []string `json:"guess"`
	SelectedWords  []string `json:"selected_words"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	ChannelID      string   `json:"channel_id"`
}

// SubmitGuess runs one guess through the progress engine. Identity
// comes from the verified token, never the body.
func (h *GameHandler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req submitGuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Guess) == 0 {
		respondError(w, http.StatusBadRequest, "Missing required field: guess", nil)
		return
	}
	if req.ElapsedSeconds < 0 {
		respondError(w, http.StatusBadRequest, "elapsed_seconds must not be negative", nil)
		return
	}

	result, err := h.games.SubmitGuess(r.Context(), user.ID, user.Username, service.GuessRequest{
		PuzzleID:       req.PuzzleID,
		Words:          req.Guess,
		SelectedWords:  req.SelectedWords,
		ElapsedSeconds: req.ElapsedSeconds,
		ChannelID:      req.ChannelID,
	})
	if err != nil {
		respondServiceError(w, "Failed to submit guess", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Session returns the caller's session for today (or ?date=), letting
// the client resume mid-game.
func (h *GameHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" && !game.ValidDate(date) {
		respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	session, err := h.games.SessionFor(r.Context(), user.ID, date)
	if err != nil {
		respondServiceError(w, "Failed to get session", err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// Leaderboard returns the ranked standings for today or ?date=.
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" && !game.ValidDate(date) {
		respondError(w, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	board, err := h.games.DailyLeaderboard(r.Context(), date)
	if err != nil {
		respondServiceError(w, "Failed to get leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// PlayerStats returns aggregate stats, defaulting to the caller.
func (h *GameHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	discordID := r.URL.Query().Get("discord_id")
	if discordID == "" {
		discordID = user.ID
	}

	stats, err := h.games.PlayerStats(r.Context(), discordID)
	if err != nil {
		respondServiceError(w, "Failed to get player stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type registerChannelRequest struct {
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
}

// RegisterChannel enrolls the Activity's channel for daily summaries.
func (h *GameHandler) RegisterChannel(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req registerChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.games.RegisterChannel(r.Context(), req.ChannelID, req.GuildID, user.ID); err != nil {
		respondServiceError(w, "Failed to register channel", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Channel registered for daily summaries"})
}

type suggestThemeRequest struct {
	Theme string `json:"theme"`
}

// SuggestTheme queues a theme hint for a future puzzle.
func (h *GameHandler) SuggestTheme(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req suggestThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	theme, err := h.games.SuggestTheme(r.Context(), req.Theme, user.ID)
	if err != nil {
		respondServiceError(w, "Failed to store theme suggestion", err)
		return
	}
	respondJSON(w, http.StatusOK, theme)
}
