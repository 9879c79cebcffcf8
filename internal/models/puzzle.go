package models

import "time"

// Group is one category of four connected words within a puzzle.
type Group struct {
	Words      []string `json:"words" dynamodbav:"words"`
	Category   string   `json:"category" dynamodbav:"category"`
	Difficulty int      `json:"difficulty" dynamodbav:"difficulty"`
}

// Puzzle is the daily puzzle: 16 words forming 4 groups of 4.
// Words holds the shuffled presentation order shown to players;
// Groups holds the solution.
type Puzzle struct {
	Date      string    `json:"date" dynamodbav:"puzzle_date"`
	ID        string    `json:"id" dynamodbav:"puzzle_id"`
	Words     []string  `json:"words" dynamodbav:"words"`
	Groups    []Group   `json:"groups" dynamodbav:"groups"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// ArchivedGroup is a previously published group, kept for duplicate
// avoidance. Hash is the case-insensitive, order-independent digest of
// the group's words.
type ArchivedGroup struct {
	Hash       string    `json:"hash" dynamodbav:"group_hash"`
	Words      []string  `json:"words" dynamodbav:"words"`
	Category   string    `json:"category" dynamodbav:"category"`
	Difficulty int       `json:"difficulty" dynamodbav:"difficulty"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Theme is a player-suggested theme hint consumed by the puzzle generator.
type Theme struct {
	ID          string    `json:"id" dynamodbav:"theme_id"`
	Text        string    `json:"text" dynamodbav:"text"`
	SuggestedBy string    `json:"suggested_by" dynamodbav:"suggested_by"`
	Used        bool      `json:"used" dynamodbav:"used"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
}
