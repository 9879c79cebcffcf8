package models

import "time"

// Player holds per-player aggregate stats. Created on the first
// session-affecting action, updated on every terminal session, never
// deleted.
type Player struct {
	DiscordID   string    `json:"discord_id" dynamodbav:"discord_id"`
	DisplayName string    `json:"display_name" dynamodbav:"display_name"`
	TotalGames  int       `json:"total_games" dynamodbav:"total_games"`
	GamesWon    int       `json:"games_won" dynamodbav:"games_won"`
	BestTime    *int      `json:"best_time" dynamodbav:"best_time"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	LastPlayed  time.Time `json:"last_played" dynamodbav:"last_played"`
}

// PlayerStats is the read model served by the player-stats endpoint.
type PlayerStats struct {
	DiscordID   string    `json:"discord_id"`
	DisplayName string    `json:"display_name"`
	TotalGames  int       `json:"total_games"`
	GamesWon    int       `json:"games_won"`
	WinRate     float64   `json:"win_rate"`
	BestTime    *int      `json:"best_time"`
	LastPlayed  time.Time `json:"last_played"`
}
