package models

import "time"

// SessionStatus is the lifecycle state of a daily game session.
type SessionStatus string

const (
	StatusNew        SessionStatus = "new"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is one player's attempt at one day's puzzle. At most one
// session exists per (DiscordID, Date). Once terminal it is immutable
// except for the message back-reference.
type Session struct {
	ID                string        `json:"session_id" dynamodbav:"session_id"`
	DiscordID         string        `json:"discord_id" dynamodbav:"discord_id"`
	DisplayName       string        `json:"display_name" dynamodbav:"display_name"`
	Date              string        `json:"puzzle_date" dynamodbav:"puzzle_date"`
	PuzzleID          string        `json:"puzzle_id" dynamodbav:"puzzle_id"`
	Guesses           [][]string    `json:"guesses" dynamodbav:"guesses"`
	AttemptsRemaining int           `json:"attempts_remaining" dynamodbav:"attempts_remaining"`
	SolvedGroups      []Group       `json:"solved_groups" dynamodbav:"solved_groups"`
	SelectedWords     []string      `json:"selected_words" dynamodbav:"selected_words"`
	Status            SessionStatus `json:"status" dynamodbav:"status"`
	CompletionTime    *int          `json:"completion_time" dynamodbav:"completion_time"`

	// Back-reference to the game-state message posted to Discord, so a
	// later save can replace it. Mutable even after the session is
	// terminal.
	ChannelID string `json:"channel_id" dynamodbav:"channel_id"`
	MessageID string `json:"message_id" dynamodbav:"message_id"`

	// Revision guards read-modify-write updates with a conditional
	// write. Incremented on every successful update.
	Revision int `json:"revision" dynamodbav:"revision"`

	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// AttemptsUsed returns how many wrong guesses the session has absorbed.
func (s *Session) AttemptsUsed() int {
	return MaxAttempts - s.AttemptsRemaining
}

// MaxAttempts is the number of wrong guesses a player is allowed.
const MaxAttempts = 4

// Channel is a Discord channel registered to receive the daily summary.
type Channel struct {
	ChannelID    string    `json:"channel_id" dynamodbav:"channel_id"`
	GuildID      string    `json:"guild_id" dynamodbav:"guild_id"`
	Active       bool      `json:"active" dynamodbav:"active"`
	RegisteredBy string    `json:"registered_by" dynamodbav:"registered_by"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

// LeaderboardEntry is one ranked row of a daily leaderboard.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	DiscordID      string `json:"discord_id"`
	DisplayName    string `json:"display_name"`
	Completed      bool   `json:"completed"`
	CompletionTime *int   `json:"completion_time,omitempty"`
	SolvedGroups   int    `json:"solved_groups_count"`
	AttemptsUsed   int    `json:"attempts_used"`
}
