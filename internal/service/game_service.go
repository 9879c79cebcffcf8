package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"wordwebs/internal/game"
	gameimage "wordwebs/internal/image"
	"wordwebs/internal/models"
	"wordwebs/internal/store"
)

// ErrValidation marks request-shape failures that map to a 400.
var ErrValidation = errors.New("validation failed")

// saveRetries bounds re-reads when a conditional session write loses a
// race against a concurrent save from another client of the same player.
const saveRetries = 2

// StateMessenger posts or replaces a game-state message in a channel,
// returning the new message ID. Satisfied by discord.Bot.
type StateMessenger interface {
	ReplaceGameState(channelID, messageID, content string, image []byte) (string, error)
}

// GuessRequest is one progress save from the Activity client.
type GuessRequest struct {
	PuzzleID       string
	Words          []string
	SelectedWords  []string
	ElapsedSeconds int

	// ChannelID, when set, asks for a best-effort game-state message in
	// that channel once the session reaches a terminal state.
	ChannelID string
}

// GuessResult is what a progress save reports back to the client.
type GuessResult struct {
	Session             *models.Session `json:"session"`
	Correct             bool            `json:"correct"`
	SolvedCategory      string          `json:"solved_category,omitempty"`
	OneAwayCount        int             `json:"one_away_count,omitempty"`
	Finished            bool            `json:"finished"`
	Won                 bool            `json:"won"`
	LeaderboardPosition int             `json:"leaderboard_position,omitempty"`
}

// Leaderboard is the ranked daily standings response.
type Leaderboard struct {
	Date         string                    `json:"date"`
	PuzzleNumber int                       `json:"puzzle_number"`
	Entries      []models.LeaderboardEntry `json:"leaderboard"`
	TotalPlayers int                       `json:"total_players"`
}

// GameService orchestrates puzzle fetches, progress saves, and the
// read-side endpoints.
type GameService struct {
	puzzles   store.PuzzleStore
	players   store.PlayerStore
	sessions  store.SessionStore
	channels  store.ChannelStore
	themes    store.ThemeStore
	messenger StateMessenger
}

// NewGameService creates the game service. messenger may be nil, which
// disables game-state messages.
func NewGameService(st store.Store, messenger StateMessenger) *GameService {
	return &GameService{
		puzzles:   st.Puzzles(),
		players:   st.Players(),
		sessions:  st.Sessions(),
		channels:  st.Channels(),
		themes:    st.Themes(),
		messenger: messenger,
	}
}

// DailyPuzzle returns the puzzle for the given date, defaulting to
// today in the game timezone.
func (s *GameService) DailyPuzzle(ctx context.Context, date string) (*models.Puzzle, error) {
	if date == "" {
		date = game.Today()
	}
	puzzle, err := s.puzzles.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return puzzle, nil
}

// SubmitGuess runs one guess through the progress engine and persists
// the result. The caller identity comes from the verified token, never
// from the request body. Lost revision races are retried against a
// fresh read; a guess against an already-terminal session surfaces
// game.ErrSessionFinished.
func (s *GameService) SubmitGuess(ctx context.Context, discordID, displayName string, req GuessRequest) (*GuessResult, error) {
	date := game.Today()

	puzzle, err := s.puzzles.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load puzzle for %s: %w", date, err)
	}
	if req.PuzzleID != "" && req.PuzzleID != puzzle.ID {
		return nil, fmt.Errorf("%w: puzzle %s is not today's puzzle", game.ErrInvalidGuess, req.PuzzleID)
	}

	if err := s.ensurePlayer(ctx, discordID, displayName); err != nil {
		return nil, err
	}

	guess := game.Guess{
		Words:          req.Words,
		SelectedWords:  req.SelectedWords,
		ElapsedSeconds: req.ElapsedSeconds,
	}

	var (
		session *models.Session
		outcome game.Outcome
	)
	for attempt := 0; ; attempt++ {
		session, err = s.getOrCreateSession(ctx, discordID, displayName, date, puzzle.ID, req.ChannelID)
		if err != nil {
			return nil, err
		}

		outcome, err = game.Apply(session, puzzle, guess)
		if err != nil {
			return nil, err
		}

		session.UpdatedAt = time.Now().UTC()
		err = s.sessions.Update(ctx, session)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrRevisionMismatch) || attempt >= saveRetries {
			return nil, fmt.Errorf("save session %s: %w", session.ID, err)
		}
		log.Printf("Session %s revision race, retrying save", session.ID)
	}

	result := &GuessResult{
		Session:      session,
		Correct:      outcome.Correct,
		OneAwayCount: outcome.OneAwayCount,
		Finished:     outcome.Finished,
		Won:          outcome.Won,
	}
	if outcome.GroupSolved != nil {
		result.SolvedCategory = outcome.GroupSolved.Category
	}

	if outcome.Finished {
		// Terminal transition happens exactly once per session, so the
		// aggregate update cannot double-count.
		if err := s.players.RecordResult(ctx, discordID, outcome.Won, session.CompletionTime); err != nil {
			return nil, fmt.Errorf("record result for %s: %w", discordID, err)
		}

		if outcome.Won {
			if pos, err := s.leaderboardPosition(ctx, date, discordID); err == nil {
				result.LeaderboardPosition = pos
			} else {
				log.Printf("Leaderboard position lookup failed for %s: %v", discordID, err)
			}
		}

		s.notifyGameState(ctx, session, puzzle)
	}

	return result, nil
}

// SessionFor returns the caller's session for the date, defaulting to
// today. store.ErrNotFound when the player has not started.
func (s *GameService) SessionFor(ctx context.Context, discordID, date string) (*models.Session, error) {
	if date == "" {
		date = game.Today()
	}
	return s.sessions.GetByPlayerDate(ctx, discordID, date)
}

// DailyLeaderboard ranks all sessions for the date, defaulting to today.
func (s *GameService) DailyLeaderboard(ctx context.Context, date string) (*Leaderboard, error) {
	if date == "" {
		date = game.Today()
	}
	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", date, err)
	}
	return &Leaderboard{
		Date:         date,
		PuzzleNumber: game.PuzzleNumber(date),
		Entries:      game.RankDaily(sessions),
		TotalPlayers: len(sessions),
	}, nil
}

// PlayerStats returns the aggregate read model for one player.
func (s *GameService) PlayerStats(ctx context.Context, discordID string) (*models.PlayerStats, error) {
	player, err := s.players.Get(ctx, discordID)
	if err != nil {
		return nil, err
	}

	stats := &models.PlayerStats{
		DiscordID:   player.DiscordID,
		DisplayName: player.DisplayName,
		TotalGames:  player.TotalGames,
		GamesWon:    player.GamesWon,
		BestTime:    player.BestTime,
		LastPlayed:  player.LastPlayed,
	}
	if player.TotalGames > 0 {
		stats.WinRate = float64(player.GamesWon) / float64(player.TotalGames) * 100
	}
	return stats, nil
}

// RegisterChannel enrolls a channel for daily summaries. Re-registering
// an existing channel reactivates it.
func (s *GameService) RegisterChannel(ctx context.Context, channelID, guildID, registeredBy string) error {
	if channelID == "" {
		return fmt.Errorf("%w: channel_id is required", ErrValidation)
	}
	return s.channels.Put(ctx, &models.Channel{
		ChannelID:    channelID,
		GuildID:      guildID,
		Active:       true,
		RegisteredBy: registeredBy,
		CreatedAt:    time.Now().UTC(),
	})
}

// SuggestTheme queues a theme hint for a future daily puzzle.
func (s *GameService) SuggestTheme(ctx context.Context, text, suggestedBy string) (*models.Theme, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: theme text is required", ErrValidation)
	}
	if len(text) > 200 {
		return nil, fmt.Errorf("%w: theme text too long", ErrValidation)
	}

	theme := &models.Theme{
		ID:          uuid.NewString(),
		Text:        text,
		SuggestedBy: suggestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.themes.Put(ctx, theme); err != nil {
		return nil, fmt.Errorf("store theme suggestion: %w", err)
	}
	return theme, nil
}

// ensurePlayer creates the player record on first contact and keeps the
// display name current.
func (s *GameService) ensurePlayer(ctx context.Context, discordID, displayName string) error {
	player, err := s.players.Get(ctx, discordID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		now := time.Now().UTC()
		return s.players.Put(ctx, &models.Player{
			DiscordID:   discordID,
			DisplayName: displayName,
			CreatedAt:   now,
			LastPlayed:  now,
		})
	case err != nil:
		return fmt.Errorf("load player %s: %w", discordID, err)
	}

	if displayName != "" && player.DisplayName != displayName {
		player.DisplayName = displayName
		if err := s.players.Put(ctx, player); err != nil {
			return fmt.Errorf("update player %s: %w", discordID, err)
		}
	}
	return nil
}

func (s *GameService) getOrCreateSession(ctx context.Context, discordID, displayName, date, puzzleID, channelID string) (*models.Session, error) {
	session, err := s.sessions.GetByPlayerDate(ctx, discordID, date)
	if err == nil {
		if channelID != "" && session.ChannelID == "" {
			session.ChannelID = channelID
		}
		return session, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load session for %s on %s: %w", discordID, date, err)
	}

	now := time.Now().UTC()
	session = &models.Session{
		ID:                uuid.NewString(),
		DiscordID:         discordID,
		DisplayName:       displayName,
		Date:              date,
		PuzzleID:          puzzleID,
		AttemptsRemaining: models.MaxAttempts,
		Status:            models.StatusNew,
		ChannelID:         channelID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("create session for %s on %s: %w", discordID, date, err)
	}
	return session, nil
}

func (s *GameService) leaderboardPosition(ctx context.Context, date, discordID string) (int, error) {
	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	for _, entry := range game.RankDaily(sessions) {
		if entry.DiscordID == discordID {
			return entry.Rank, nil
		}
	}
	return 0, store.ErrNotFound
}

// notifyGameState posts the finished board to the session's channel.
// Failures are logged and swallowed; the persisted session is already
// the source of truth.
func (s *GameService) notifyGameState(ctx context.Context, session *models.Session, puzzle *models.Puzzle) {
	if s.messenger == nil || session.ChannelID == "" {
		return
	}

	card, err := gameimage.RenderCard(gameimage.Card{
		DisplayName:       session.DisplayName,
		SolvedGroups:      session.SolvedGroups,
		AttemptsRemaining: session.AttemptsRemaining,
	}, game.PuzzleNumber(session.Date))
	if err != nil {
		log.Printf("Failed to render game-state card for %s: %v", session.ID, err)
		return
	}

	content := fmt.Sprintf("**%s** finished Word Webs #%d", session.DisplayName, game.PuzzleNumber(session.Date))
	messageID, err := s.messenger.ReplaceGameState(session.ChannelID, session.MessageID, content, card)
	if err != nil {
		log.Printf("Failed to post game-state message for %s: %v", session.ID, err)
		return
	}

	session.MessageID = messageID
	if err := s.sessions.Update(ctx, session); err != nil {
		log.Printf("Failed to store message back-reference for %s: %v", session.ID, err)
	}
}
