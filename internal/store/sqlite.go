package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wordwebs/internal/game"
	"wordwebs/internal/models"
)

// SQLite implements Store on a local file, for development and tests.
// Nested structures are stored as JSON columns; the contract matches the
// DynamoDB backend.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS daily_puzzles (
	puzzle_date TEXT PRIMARY KEY,
	puzzle_id   TEXT NOT NULL,
	words       TEXT NOT NULL,
	groups      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS players (
	discord_id   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	total_games  INTEGER NOT NULL DEFAULT 0,
	games_won    INTEGER NOT NULL DEFAULT 0,
	best_time    INTEGER,
	created_at   TIMESTAMP NOT NULL,
	last_played  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS game_sessions (
	session_id         TEXT PRIMARY KEY,
	discord_id         TEXT NOT NULL,
	display_name       TEXT NOT NULL,
	puzzle_date        TEXT NOT NULL,
	puzzle_id          TEXT NOT NULL,
	guesses            TEXT NOT NULL,
	attempts_remaining INTEGER NOT NULL,
	solved_groups      TEXT NOT NULL,
	selected_words     TEXT NOT NULL,
	status             TEXT NOT NULL,
	completion_time    INTEGER,
	channel_id         TEXT NOT NULL DEFAULT '',
	message_id         TEXT NOT NULL DEFAULT '',
	revision           INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON game_sessions(puzzle_date);
CREATE INDEX IF NOT EXISTS idx_sessions_player_date ON game_sessions(discord_id, puzzle_date);
CREATE TABLE IF NOT EXISTS historical_groups (
	group_hash TEXT PRIMARY KEY,
	words      TEXT NOT NULL,
	category   TEXT NOT NULL,
	difficulty INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	channel_id    TEXT PRIMARY KEY,
	guild_id      TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1,
	registered_by TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS theme_suggestions (
	theme_id     TEXT PRIMARY KEY,
	text         TEXT NOT NULL,
	suggested_by TEXT NOT NULL,
	used         INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL
);
`

// OpenSQLite opens (and creates if needed) the store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Puzzles() PuzzleStore   { return (*sqlitePuzzles)(s) }
func (s *SQLite) Players() PlayerStore   { return (*sqlitePlayers)(s) }
func (s *SQLite) Sessions() SessionStore { return (*sqliteSessions)(s) }
func (s *SQLite) Archive() ArchiveStore  { return (*sqliteArchive)(s) }
func (s *SQLite) Channels() ChannelStore { return (*sqliteChannels)(s) }
func (s *SQLite) Themes() ThemeStore     { return (*sqliteThemes)(s) }

// Close closes the database connection
func (s *SQLite) Close() error { return s.db.Close() }

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(data string, v any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

type sqlitePuzzles SQLite

func (s *sqlitePuzzles) GetByDate(ctx context.Context, date string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	var words, groups string

	err := s.db.QueryRowContext(ctx, `
		SELECT puzzle_date, puzzle_id, words, groups, created_at
		FROM daily_puzzles WHERE puzzle_date = ?
	`, date).Scan(&puzzle.Date, &puzzle.ID, &words, &groups, &puzzle.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSON(words, &puzzle.Words); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(groups, &puzzle.Groups); err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (s *sqlitePuzzles) Put(ctx context.Context, puzzle *models.Puzzle) error {
	words, err := marshalJSON(puzzle.Words)
	if err != nil {
		return err
	}
	groups, err := marshalJSON(puzzle.Groups)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO daily_puzzles (puzzle_date, puzzle_id, words, groups, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, puzzle.Date, puzzle.ID, words, groups, puzzle.CreatedAt)
	return err
}

type sqlitePlayers SQLite

func (s *sqlitePlayers) Get(ctx context.Context, discordID string) (*models.Player, error) {
	var player models.Player
	var bestTime sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT discord_id, display_name, total_games, games_won, best_time, created_at, last_played
		FROM players WHERE discord_id = ?
	`, discordID).Scan(
		&player.DiscordID,
		&player.DisplayName,
		&player.TotalGames,
		&player.GamesWon,
		&bestTime,
		&player.CreatedAt,
		&player.LastPlayed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if bestTime.Valid {
		t := int(bestTime.Int64)
		player.BestTime = &t
	}
	return &player, nil
}

func (s *sqlitePlayers) Put(ctx context.Context, player *models.Player) error {
	var bestTime any
	if player.BestTime != nil {
		bestTime = *player.BestTime
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO players (discord_id, display_name, total_games, games_won, best_time, created_at, last_played)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, player.DiscordID, player.DisplayName, player.TotalGames, player.GamesWon, bestTime, player.CreatedAt, player.LastPlayed)
	return err
}

func (s *sqlitePlayers) RecordResult(ctx context.Context, discordID string, won bool, completionTime *int) error {
	now := time.Now().UTC()

	if !won {
		_, err := s.db.ExecContext(ctx, `
			UPDATE players SET total_games = total_games + 1, last_played = ? WHERE discord_id = ?
		`, now, discordID)
		return err
	}

	if completionTime != nil {
		_, err := s.db.ExecContext(ctx, `
			UPDATE players
			SET total_games = total_games + 1,
			    games_won = games_won + 1,
			    best_time = CASE WHEN best_time IS NULL OR ? < best_time THEN ? ELSE best_time END,
			    last_played = ?
			WHERE discord_id = ?
		`, *completionTime, *completionTime, now, discordID)
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE players SET total_games = total_games + 1, games_won = games_won + 1, last_played = ? WHERE discord_id = ?
	`, now, discordID)
	return err
}

type sqliteSessions SQLite

const sessionColumns = `session_id, discord_id, display_name, puzzle_date, puzzle_id, guesses,
	attempts_remaining, solved_groups, selected_words, status, completion_time,
	channel_id, message_id, revision, created_at, updated_at`

func (s *sqliteSessions) scanSession(row interface{ Scan(...any) error }) (*models.Session, error) {
	var session models.Session
	var guesses, solvedGroups, selectedWords string
	var completionTime sql.NullInt64

	err := row.Scan(
		&session.ID,
		&session.DiscordID,
		&session.DisplayName,
		&session.Date,
		&session.PuzzleID,
		&guesses,
		&session.AttemptsRemaining,
		&solvedGroups,
		&selectedWords,
		&session.Status,
		&completionTime,
		&session.ChannelID,
		&session.MessageID,
		&session.Revision,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if completionTime.Valid {
		t := int(completionTime.Int64)
		session.CompletionTime = &t
	}
	if err := unmarshalJSON(guesses, &session.Guesses); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(solvedGroups, &session.SolvedGroups); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(selectedWords, &session.SelectedWords); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sqliteSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE session_id = ?", id)
	return s.scanSession(row)
}

func (s *sqliteSessions) GetByPlayerDate(ctx context.Context, discordID, date string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE discord_id = ? AND puzzle_date = ?",
		discordID, date)
	return s.scanSession(row)
}

func (s *sqliteSessions) sessionArgs(session *models.Session) ([]any, error) {
	guesses, err := marshalJSON(session.Guesses)
	if err != nil {
		return nil, err
	}
	solvedGroups, err := marshalJSON(session.SolvedGroups)
	if err != nil {
		return nil, err
	}
	selectedWords, err := marshalJSON(session.SelectedWords)
	if err != nil {
		return nil, err
	}

	var completionTime any
	if session.CompletionTime != nil {
		completionTime = *session.CompletionTime
	}

	return []any{
		session.ID, session.DiscordID, session.DisplayName, session.Date, session.PuzzleID,
		guesses, session.AttemptsRemaining, solvedGroups, selectedWords, string(session.Status),
		completionTime, session.ChannelID, session.MessageID, session.Revision,
		session.CreatedAt, session.UpdatedAt,
	}, nil
}

func (s *sqliteSessions) Put(ctx context.Context, session *models.Session) error {
	args, err := s.sessionArgs(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	return err
}

func (s *sqliteSessions) Update(ctx context.Context, session *models.Session) error {
	expected := session.Revision
	session.Revision++
	session.UpdatedAt = time.Now().UTC()

	args, err := s.sessionArgs(session)
	if err != nil {
		session.Revision = expected
		return err
	}
	// Shift session_id to the WHERE clause, append expected revision.
	args = append(args[1:], session.ID, expected)

	result, err := s.db.ExecContext(ctx, `
		UPDATE game_sessions SET
			discord_id = ?, display_name = ?, puzzle_date = ?, puzzle_id = ?, guesses = ?,
			attempts_remaining = ?, solved_groups = ?, selected_words = ?, status = ?,
			completion_time = ?, channel_id = ?, message_id = ?, revision = ?,
			created_at = ?, updated_at = ?
		WHERE session_id = ? AND revision = ?
	`, args...)
	if err != nil {
		session.Revision = expected
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		session.Revision = expected
		return ErrRevisionMismatch
	}
	return nil
}

func (s *sqliteSessions) ListByDate(ctx context.Context, date string) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM game_sessions WHERE puzzle_date = ? ORDER BY created_at ASC", date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := s.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

type sqliteArchive SQLite

func (s *sqliteArchive) Contains(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM historical_groups WHERE group_hash = ?", hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteArchive) PutGroups(ctx context.Context, groups []models.Group) error {
	now := time.Now().UTC()
	for _, group := range groups {
		words, err := marshalJSON(group.Words)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO historical_groups (group_hash, words, category, difficulty, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, game.GroupHash(group.Words), words, group.Category, group.Difficulty, now)
		if err != nil {
			return err
		}
	}
	return nil
}

type sqliteChannels SQLite

func (s *sqliteChannels) Put(ctx context.Context, channel *models.Channel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO channels (channel_id, guild_id, active, registered_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, channel.ChannelID, channel.GuildID, channel.Active, channel.RegisteredBy, channel.CreatedAt)
	return err
}

func (s *sqliteChannels) ListActive(ctx context.Context) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, guild_id, active, registered_by, created_at
		FROM channels WHERE active = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var channel models.Channel
		if err := rows.Scan(&channel.ChannelID, &channel.GuildID, &channel.Active,
			&channel.RegisteredBy, &channel.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

type sqliteThemes SQLite

func (s *sqliteThemes) Put(ctx context.Context, theme *models.Theme) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO theme_suggestions (theme_id, text, suggested_by, used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, theme.ID, theme.Text, theme.SuggestedBy, theme.Used, theme.CreatedAt)
	return err
}

func (s *sqliteThemes) NextUnused(ctx context.Context) (*models.Theme, error) {
	var theme models.Theme
	err := s.db.QueryRowContext(ctx, `
		SELECT theme_id, text, suggested_by, used, created_at
		FROM theme_suggestions WHERE used = 0 ORDER BY created_at ASC LIMIT 1
	`).Scan(&theme.ID, &theme.Text, &theme.SuggestedBy, &theme.Used, &theme.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (s *sqliteThemes) MarkUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE theme_suggestions SET used = 1 WHERE theme_id = ?", id)
	return err
}
