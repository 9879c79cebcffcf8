package game

import (
	"errors"
	"testing"

	"wordwebs/internal/models"
)

func testPuzzle() *models.Puzzle {
	groups := validGroups()
	var words []string
	for _, g := range groups {
		words = append(words, g.Words...)
	}
	return &models.Puzzle{
		Date:   "2025-08-15",
		ID:     "puzzle-1",
		Words:  words,
		Groups: groups,
	}
}

func newSession() *models.Session {
	return &models.Session{
		ID:                "session-1",
		DiscordID:         "1234",
		Date:              "2025-08-15",
		PuzzleID:          "puzzle-1",
		AttemptsRemaining: models.MaxAttempts,
		Status:            models.StatusNew,
	}
}

func TestApplyCorrectGuess(t *testing.T) {
	puzzle := testPuzzle()
	session := newSession()

	outcome, err := Apply(session, puzzle, Guess{Words: []string{"apple", "pear", "plum", "fig"}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if !outcome.Correct {
		t.Error("expected correct outcome")
	}
	if outcome.GroupSolved == nil || outcome.GroupSolved.Category != "FRUITS" {
		t.Errorf("expected FRUITS solved, got %+v", outcome.GroupSolved)
	}
	if session.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", session.Status)
	}
	if session.AttemptsRemaining != models.MaxAttempts {
		t.Errorf("attempts_remaining = %d, want %d", session.AttemptsRemaining, models.MaxAttempts)
	}
	if len(session.Guesses) != 1 {
		t.Errorf("guess log length = %d, want 1", len(session.Guesses))
	}
}

func TestApplyWrongGuessDecrementsAttempts(t *testing.T) {
	puzzle := testPuzzle()
	session := newSession()

	outcome, err := Apply(session, puzzle, Guess{Words: []string{"APPLE", "OAK", "RUBY", "MARS"}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if outcome.Correct {
		t.Error("expected wrong outcome")
	}
	if session.AttemptsRemaining != models.MaxAttempts-1 {
		t.Errorf("attempts_remaining = %d, want %d", session.AttemptsRemaining, models.MaxAttempts-1)
	}
	if outcome.OneAwayCount != 1 {
		t.Errorf("one-away count = %d, want 1", outcome.OneAwayCount)
	}
}

func TestApplyMonotonicInvariants(t *testing.T) {
	puzzle := testPuzzle()
	session := newSession()

	guesses := []Guess{
		{Words: []string{"APPLE", "PEAR", "PLUM", "FIG"}},
		{Words: []string{"OAK", "ELM", "ASH", "MARS"}},
		{Words: []string{"OAK", "ELM", "ASH", "BIRCH"}},
		{Words: []string{"RUBY", "JADE", "OPAL", "MARS"}},
	}

	prevAttempts := session.AttemptsRemaining
	prevSolved := 0
	for i, g := range guesses {
		if _, err := Apply(session, puzzle, g); err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
		if session.AttemptsRemaining > prevAttempts {
			t.Errorf("guess %d: attempts_remaining increased %d -> %d", i, prevAttempts, session.AttemptsRemaining)
		}
		if len(session.SolvedGroups) < prevSolved {
			t.Errorf("guess %d: solved groups shrank %d -> %d", i, prevSolved, len(session.SolvedGroups))
		}
		prevAttempts = session.AttemptsRemaining
		prevSolved = len(session.SolvedGroups)
	}
}

func TestApplyCompletion(t *testing.T) {
	puzzle := testPuzzle()
	session := newSession()

	solutions := [][]string{
		{"APPLE", "PEAR", "PLUM", "FIG"},
		{"OAK", "ELM", "ASH", "BIRCH"},
		{"RUBY", "JADE", "OPAL", "PEARL"},
		{"MARS", "VENUS", "PLUTO", "SATURN"},
	}

	var outcome Outcome
	var err error
	for i, words := range solutions {
		outcome, err = Apply(session, puzzle, Guess{Words: words, ElapsedSeconds: 90 + i})
		if err != nil {
			t.Fatalf("guess %d: %v", i, err)
		}
	}

	if !outcome.Finished || !outcome.Won {
		t.Errorf("outcome = %+v, want finished and won", outcome)
	}
	if session.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", session.Status)
	}
	if session.CompletionTime == nil || *session.CompletionTime != 93 {
		t.Errorf("completion_time = %v, want 93", session.CompletionTime)
	}
}

func TestApplyCompletionPrecedesExhaustion(t *testing.T) {
	// Three wrong guesses leave one attempt; three groups already solved.
	// The final guess solves the fourth group: completed wins even though
	// attempts would also have run out on a miss.
	puzzle := testPuzzle()
	session := newSession()
	session.Status = models.StatusInProgress
	session.AttemptsRemaining = 1
	session.SolvedGroups = []models.Group{puzzle.Groups[0], puzzle.Groups[1], puzzle.Groups[2]}

	outcome, err := Apply(session, puzzle, Guess{
		Words:          []string{"MARS", "VENUS", "PLUTO", "SATURN"},
		ElapsedSeconds: 240,
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if session.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", session.Status)
	}
	if !outcome.Won {
		t.Error("expected winning outcome on the last attempt")
	}
}

func TestApplyFailure(t *testing.T) {
	puzzle := testPuzzle()
	session := newSession()
	session.Status = models.StatusInProgress
	session.AttemptsRemaining = 1

	outcome, err := Apply(session, puzzle, Guess{Words: []string{"APPLE", "OAK", "RUBY", "MARS"}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if session.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", session.Status)
	}
	if outcome.Won || !outcome.Finished {
		t.Errorf("outcome = %+v, want finished and not won", outcome)
	}
	if session.CompletionTime != nil {
		t.Error("failed session must not record a completion time")
	}
}

func TestApplyRejectsTerminalSession(t *testing.T) {
	puzzle := testPuzzle()

	for _, status := range []models.SessionStatus{models.StatusCompleted, models.StatusFailed} {
		session := newSession()
		session.Status = status

		_, err := Apply(session, puzzle, Guess{Words: []string{"APPLE", "PEAR", "PLUM", "FIG"}})
		if !errors.Is(err, ErrSessionFinished) {
			t.Errorf("status %s: error = %v, want ErrSessionFinished", status, err)
		}
		if len(session.Guesses) != 0 {
			t.Errorf("status %s: terminal session was mutated", status)
		}
	}
}

func TestApplyRejectsInvalidGuesses(t *testing.T) {
	puzzle := testPuzzle()

	tests := []struct {
		name  string
		setup func(s *models.Session)
		words []string
	}{
		{
			name:  "too few words",
			words: []string{"APPLE", "PEAR", "PLUM"},
		},
		{
			name:  "duplicate word",
			words: []string{"APPLE", "APPLE", "PLUM", "FIG"},
		},
		{
			name:  "word not in puzzle",
			words: []string{"APPLE", "PEAR", "PLUM", "BANANA"},
		},
		{
			name: "already solved group",
			setup: func(s *models.Session) {
				s.SolvedGroups = []models.Group{puzzle.Groups[0]}
			},
			words: []string{"APPLE", "PEAR", "PLUM", "FIG"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := newSession()
			if tt.setup != nil {
				tt.setup(session)
			}
			before := session.AttemptsRemaining

			_, err := Apply(session, puzzle, Guess{Words: tt.words})
			if !errors.Is(err, ErrInvalidGuess) {
				t.Errorf("error = %v, want ErrInvalidGuess", err)
			}
			if session.AttemptsRemaining != before {
				t.Error("invalid guess must not consume an attempt")
			}
		})
	}
}
