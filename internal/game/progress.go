package game

import (
	"errors"
	"fmt"
	"strings"

	"wordwebs/internal/models"
)

// ErrSessionFinished is returned when a progress save targets a session
// that has already completed or failed. Replaying a terminal session
// must never re-apply player stat updates.
var ErrSessionFinished = errors.New("session already finished")

// ErrInvalidGuess is returned for guesses that are not four distinct
// words drawn from the puzzle.
var ErrInvalidGuess = errors.New("invalid guess")

// Guess is one submitted selection together with the client's transient
// UI state and elapsed timer.
type Guess struct {
	Words          []string
	SelectedWords  []string
	ElapsedSeconds int
}

// Outcome describes what a single progress save did to the session.
type Outcome struct {
	Correct      bool
	GroupSolved  *models.Group
	Finished     bool
	Won          bool
	OneAwayCount int
}

// Apply runs one guess through the session progress engine, mutating the
// session in place. The session moves new -> in_progress on the first
// guess, and reaches completed or failed exactly once. Solving the
// fourth group takes precedence over exhausting attempts on the same
// submission.
func Apply(session *models.Session, puzzle *models.Puzzle, guess Guess) (Outcome, error) {
	if session.Status.Terminal() {
		return Outcome{}, ErrSessionFinished
	}

	words := NormalizeWords(append([]string(nil), guess.Words...))
	if err := checkGuess(session, puzzle, words); err != nil {
		return Outcome{}, err
	}

	session.Status = models.StatusInProgress
	session.Guesses = append(session.Guesses, words)
	session.SelectedWords = NormalizeWords(append([]string(nil), guess.SelectedWords...))

	var outcome Outcome
	if matched := matchGroup(puzzle, words); matched != nil {
		session.SolvedGroups = append(session.SolvedGroups, *matched)
		outcome.Correct = true
		outcome.GroupSolved = matched
	} else {
		session.AttemptsRemaining--
		outcome.OneAwayCount = bestOverlap(puzzle, words)
	}

	// Completion wins over exhaustion when both land on the same guess.
	switch {
	case len(session.SolvedGroups) == 4:
		session.Status = models.StatusCompleted
		elapsed := guess.ElapsedSeconds
		session.CompletionTime = &elapsed
		session.SelectedWords = nil
		outcome.Finished = true
		outcome.Won = true
	case session.AttemptsRemaining <= 0:
		session.Status = models.StatusFailed
		session.SelectedWords = nil
		outcome.Finished = true
	}

	return outcome, nil
}

// checkGuess rejects malformed guesses: wrong size, duplicate words,
// words not in the puzzle, or a repeat of an already-solved group.
func checkGuess(session *models.Session, puzzle *models.Puzzle, words []string) error {
	if len(words) != 4 {
		return fmt.Errorf("%w: expected 4 words, got %d", ErrInvalidGuess, len(words))
	}

	inPuzzle := make(map[string]bool, len(puzzle.Words))
	for _, word := range puzzle.Words {
		inPuzzle[strings.ToUpper(word)] = true
	}

	seen := make(map[string]bool, 4)
	for _, word := range words {
		if seen[word] {
			return fmt.Errorf("%w: duplicate word %q", ErrInvalidGuess, word)
		}
		seen[word] = true
		if !inPuzzle[word] {
			return fmt.Errorf("%w: %q is not in today's puzzle", ErrInvalidGuess, word)
		}
	}

	for _, solved := range session.SolvedGroups {
		if sameWordSet(solved.Words, words) {
			return fmt.Errorf("%w: group already solved", ErrInvalidGuess)
		}
	}

	return nil
}

// matchGroup returns the puzzle group whose word set equals the guess,
// or nil.
func matchGroup(puzzle *models.Puzzle, words []string) *models.Group {
	for i := range puzzle.Groups {
		if sameWordSet(puzzle.Groups[i].Words, words) {
			group := puzzle.Groups[i]
			return &group
		}
	}
	return nil
}

// bestOverlap returns the largest number of guessed words sharing a
// single group, used for "one away" feedback.
func bestOverlap(puzzle *models.Puzzle, words []string) int {
	guessed := make(map[string]bool, len(words))
	for _, word := range words {
		guessed[word] = true
	}

	best := 0
	for _, group := range puzzle.Groups {
		overlap := 0
		for _, word := range group.Words {
			if guessed[strings.ToUpper(word)] {
				overlap++
			}
		}
		if overlap > best {
			best = overlap
		}
	}
	return best
}

func sameWordSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, word := range a {
		set[strings.ToUpper(word)] = true
	}
	for _, word := range b {
		if !set[strings.ToUpper(word)] {
			return false
		}
	}
	return true
}
