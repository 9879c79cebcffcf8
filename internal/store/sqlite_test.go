package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wordwebs/internal/game"
	"wordwebs/internal/models"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPuzzleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	puzzle := &models.Puzzle{
		Date:  "2025-08-15",
		ID:    "puzzle-1",
		Words: []string{"APPLE", "OAK", "RUBY", "MARS"},
		Groups: []models.Group{
			{Words: []string{"APPLE", "PEAR", "PLUM", "FIG"}, Category: "FRUITS", Difficulty: 1},
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Puzzles().Put(ctx, puzzle); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Puzzles().GetByDate(ctx, "2025-08-15")
	if err != nil {
		t.Fatalf("GetByDate() error = %v", err)
	}
	if got.ID != puzzle.ID || len(got.Words) != 4 || len(got.Groups) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Groups[0].Category != "FRUITS" {
		t.Errorf("group category = %s, want FRUITS", got.Groups[0].Category)
	}

	if _, err := s.Puzzles().GetByDate(ctx, "1999-01-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing puzzle: error = %v, want ErrNotFound", err)
	}
}

func TestPlayerRecordResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	player := &models.Player{
		DiscordID:   "1234",
		DisplayName: "tester",
		CreatedAt:   now,
		LastPlayed:  now,
	}
	if err := s.Players().Put(ctx, player); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	steps := []struct {
		name         string
		won          bool
		time         *int
		wantGames    int
		wantWon      int
		wantBestTime *int
	}{
		{name: "first win sets best_time", won: true, time: intPtr(150), wantGames: 1, wantWon: 1, wantBestTime: intPtr(150)},
		{name: "slower win keeps best_time", won: true, time: intPtr(200), wantGames: 2, wantWon: 2, wantBestTime: intPtr(150)},
		{name: "faster win lowers best_time", won: true, time: intPtr(90), wantGames: 3, wantWon: 3, wantBestTime: intPtr(90)},
		{name: "loss only counts the game", won: false, time: nil, wantGames: 4, wantWon: 3, wantBestTime: intPtr(90)},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			if err := s.Players().RecordResult(ctx, "1234", step.won, step.time); err != nil {
				t.Fatalf("RecordResult() error = %v", err)
			}

			got, err := s.Players().Get(ctx, "1234")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.TotalGames != step.wantGames {
				t.Errorf("total_games = %d, want %d", got.TotalGames, step.wantGames)
			}
			if got.GamesWon != step.wantWon {
				t.Errorf("games_won = %d, want %d", got.GamesWon, step.wantWon)
			}
			if (got.BestTime == nil) != (step.wantBestTime == nil) {
				t.Fatalf("best_time = %v, want %v", got.BestTime, step.wantBestTime)
			}
			if got.BestTime != nil && *got.BestTime != *step.wantBestTime {
				t.Errorf("best_time = %d, want %d", *got.BestTime, *step.wantBestTime)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func testSession(id string) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:                id,
		DiscordID:         "1234",
		DisplayName:       "tester",
		Date:              "2025-08-15",
		PuzzleID:          "puzzle-1",
		Guesses:           [][]string{},
		AttemptsRemaining: models.MaxAttempts,
		Status:            models.StatusInProgress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestSessionRevisionGuard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	session := testSession("session-1")
	if err := s.Sessions().Put(ctx, session); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Two readers pick up revision 0.
	first, err := s.Sessions().Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := s.Sessions().Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	first.AttemptsRemaining = 3
	if err := s.Sessions().Update(ctx, first); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}

	second.AttemptsRemaining = 2
	if err := s.Sessions().Update(ctx, second); !errors.Is(err, ErrRevisionMismatch) {
		t.Errorf("second Update() error = %v, want ErrRevisionMismatch", err)
	}

	got, err := s.Sessions().Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AttemptsRemaining != 3 {
		t.Errorf("attempts_remaining = %d, want the first writer's 3", got.AttemptsRemaining)
	}
	if got.Revision != 1 {
		t.Errorf("revision = %d, want 1", got.Revision)
	}
}

func TestSessionLookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := testSession("session-a")
	b := testSession("session-b")
	b.DiscordID = "5678"
	for _, session := range []*models.Session{a, b} {
		if err := s.Sessions().Put(ctx, session); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	got, err := s.Sessions().GetByPlayerDate(ctx, "5678", "2025-08-15")
	if err != nil {
		t.Fatalf("GetByPlayerDate() error = %v", err)
	}
	if got.ID != "session-b" {
		t.Errorf("GetByPlayerDate() = %s, want session-b", got.ID)
	}

	if _, err := s.Sessions().GetByPlayerDate(ctx, "5678", "2025-08-16"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong date: error = %v, want ErrNotFound", err)
	}

	sessions, err := s.Sessions().ListByDate(ctx, "2025-08-15")
	if err != nil {
		t.Fatalf("ListByDate() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("ListByDate() count = %d, want 2", len(sessions))
	}
}

func TestArchiveDuplicateDetection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	groups := []models.Group{
		{Words: []string{"APPLE", "PEAR", "PLUM", "FIG"}, Category: "FRUITS", Difficulty: 1},
	}
	if err := s.Archive().PutGroups(ctx, groups); err != nil {
		t.Fatalf("PutGroups() error = %v", err)
	}

	// Same set, different order and case, must be recognized.
	hash := game.GroupHash([]string{"fig", "plum", "pear", "apple"})
	found, err := s.Archive().Contains(ctx, hash)
	if err != nil {
		t.Fatalf("Contains() error = %v", err)
	}
	if !found {
		t.Error("reordered, re-cased group not recognized as duplicate")
	}

	found, err = s.Archive().Contains(ctx, game.GroupHash([]string{"OAK", "ELM", "ASH", "BIRCH"}))
	if err != nil {
		t.Fatalf("Contains() error = %v", err)
	}
	if found {
		t.Error("unarchived group reported as duplicate")
	}
}

func TestThemeQueue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Themes().NextUnused(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty queue: error = %v, want ErrNotFound", err)
	}

	theme := &models.Theme{
		ID:          "theme-1",
		Text:        "space exploration",
		SuggestedBy: "1234",
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Themes().Put(ctx, theme); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Themes().NextUnused(ctx)
	if err != nil {
		t.Fatalf("NextUnused() error = %v", err)
	}
	if got.Text != "space exploration" {
		t.Errorf("theme text = %s", got.Text)
	}

	if err := s.Themes().MarkUsed(ctx, got.ID); err != nil {
		t.Fatalf("MarkUsed() error = %v", err)
	}
	if _, err := s.Themes().NextUnused(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("after MarkUsed: error = %v, want ErrNotFound", err)
	}
}
