package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordwebs/internal/game"
	"wordwebs/internal/generate"
	"wordwebs/internal/store"
)

// recentCategoryDays bounds how far back the avoid-list looks.
const recentCategoryDays = 7

// PuzzleService runs the daily generation job: one validated,
// duplicate-checked puzzle per calendar date.
type PuzzleService struct {
	puzzles   store.PuzzleStore
	archive   store.ArchiveStore
	themes    store.ThemeStore
	generator *generate.Generator
	alerts    *AlertMailer
}

// NewPuzzleService wires the generation flow.
func NewPuzzleService(st store.Store, generator *generate.Generator, alerts *AlertMailer) *PuzzleService {
	return &PuzzleService{
		puzzles:   st.Puzzles(),
		archive:   st.Archive(),
		themes:    st.Themes(),
		generator: generator,
		alerts:    alerts,
	}
}

// GenerateDaily produces and stores the puzzle for the date (today when
// empty). A no-op when the puzzle already exists. On generation failure
// an ops alert goes out and the error propagates; on forced duplicate
// acceptance the puzzle is stored and the alert is informational.
func (s *PuzzleService) GenerateDaily(ctx context.Context, date string) error {
	if date == "" {
		date = game.Today()
	}

	if existing, err := s.puzzles.GetByDate(ctx, date); err == nil {
		log.Printf("Puzzle already exists for %s (id %s), skipping generation", date, existing.ID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check existing puzzle for %s: %w", date, err)
	}

	prompt := generate.PromptConfig{
		Theme:           s.pullTheme(ctx),
		AvoidCategories: s.recentCategories(ctx, date),
	}

	result, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if alertErr := s.alerts.GenerationFailed(ctx, date, err); alertErr != nil {
			log.Printf("Failed to send generation-failure alert: %v", alertErr)
		}
		return fmt.Errorf("generate puzzle for %s: %w", date, err)
	}

	puzzle := result.Puzzle
	puzzle.Date = date
	if err := s.puzzles.Put(ctx, puzzle); err != nil {
		return fmt.Errorf("store puzzle for %s: %w", date, err)
	}
	if err := s.archive.PutGroups(ctx, puzzle.Groups); err != nil {
		return fmt.Errorf("archive groups for %s: %w", date, err)
	}

	log.Printf("Generated puzzle for %s: id=%s, attempts=%d, mayDuplicate=%v",
		date, puzzle.ID, result.Attempts, result.MayDuplicate)

	if result.MayDuplicate {
		if alertErr := s.alerts.DuplicateAccepted(ctx, date, result.Attempts); alertErr != nil {
			log.Printf("Failed to send duplicate-acceptance alert: %v", alertErr)
		}
	}
	return nil
}

// recentCategories collects the category labels from the previous days'
// puzzles so the producer steers away from them. Lookup failures shrink
// the list rather than block generation.
func (s *PuzzleService) recentCategories(ctx context.Context, date string) []string {
	day, err := time.Parse(game.DateLayout, date)
	if err != nil {
		return nil
	}

	var categories []string
	for i := 1; i <= recentCategoryDays; i++ {
		prior := day.AddDate(0, 0, -i).Format(game.DateLayout)
		puzzle, err := s.puzzles.GetByDate(ctx, prior)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("Recent-category lookup failed for %s: %v", prior, err)
			continue
		}
		for _, group := range puzzle.Groups {
			categories = append(categories, group.Category)
		}
	}
	return categories
}

// pullTheme consumes the oldest unused theme suggestion, marking it
// used. Theme lookup failures never block generation.
func (s *PuzzleService) pullTheme(ctx context.Context) string {
	theme, err := s.themes.NextUnused(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return ""
	}
	if err != nil {
		log.Printf("Theme lookup failed, generating without theme: %v", err)
		return ""
	}

	if err := s.themes.MarkUsed(ctx, theme.ID); err != nil {
		log.Printf("Failed to mark theme %s used: %v", theme.ID, err)
	}
	log.Printf("Using suggested theme %q from %s", theme.Text, theme.SuggestedBy)
	return theme.Text
}
