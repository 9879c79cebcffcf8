package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wordwebs/internal/config"
	"wordwebs/internal/models"
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("record not found")

// ErrRevisionMismatch is returned when a conditional session update
// loses a race: the stored revision no longer matches the one the
// caller read.
var ErrRevisionMismatch = errors.New("session revision mismatch")

// PuzzleStore persists one puzzle per calendar date.
type PuzzleStore interface {
	GetByDate(ctx context.Context, date string) (*models.Puzzle, error)
	Put(ctx context.Context, puzzle *models.Puzzle) error
}

// PlayerStore persists per-player aggregate stats.
type PlayerStore interface {
	Get(ctx context.Context, discordID string) (*models.Player, error)
	Put(ctx context.Context, player *models.Player) error

	// RecordResult applies a terminal session to the player's
	// aggregates: TotalGames always increments; GamesWon increments and
	// BestTime lowers (when strictly smaller, or previously unset) only
	// for wins.
	RecordResult(ctx context.Context, discordID string, won bool, completionTime *int) error
}

// SessionStore persists one progress record per (player, date).
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	GetByPlayerDate(ctx context.Context, discordID, date string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error

	// Update writes back a mutated session, conditional on the revision
	// the caller read. Returns ErrRevisionMismatch when a concurrent
	// save got there first.
	Update(ctx context.Context, session *models.Session) error

	ListByDate(ctx context.Context, date string) ([]models.Session, error)
}

// ArchiveStore is the historical group archive backing duplicate
// avoidance.
type ArchiveStore interface {
	Contains(ctx context.Context, hash string) (bool, error)
	PutGroups(ctx context.Context, groups []models.Group) error
}

// ChannelStore persists Discord channels registered for daily summaries.
type ChannelStore interface {
	Put(ctx context.Context, channel *models.Channel) error
	ListActive(ctx context.Context) ([]models.Channel, error)
}

// ThemeStore persists player-suggested theme hints for the generator.
type ThemeStore interface {
	Put(ctx context.Context, theme *models.Theme) error
	NextUnused(ctx context.Context) (*models.Theme, error)
	MarkUsed(ctx context.Context, id string) error
}

// Store bundles every record family behind one handle.
type Store interface {
	Puzzles() PuzzleStore
	Players() PlayerStore
	Sessions() SessionStore
	Archive() ArchiveStore
	Channels() ChannelStore
	Themes() ThemeStore
	Close() error
}

// Open creates the configured backend. DynamoDB serves production;
// SQLite serves local development, mirroring the same contract over a
// single file.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case "dynamo", "dynamodb", "":
		return OpenDynamo(ctx, cfg)
	case "sqlite", "sqlite3":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
