package generate

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"wordwebs/internal/game"
	"wordwebs/internal/models"
	"wordwebs/internal/store"
)

// DefaultMaxAttempts bounds the regenerate-on-duplicate loop. After
// this many candidates the last one is accepted even if a group is a
// known repeat: a puzzle for the day must always exist.
const DefaultMaxAttempts = 5

// producerRetries bounds retries of a single candidate on producer or
// validation failure.
const producerRetries = 3

// Result is an accepted puzzle plus how it was arrived at.
type Result struct {
	Puzzle       *models.Puzzle
	MayDuplicate bool
	Attempts     int
}

// Generator produces validated, duplicate-checked daily puzzles under a
// best-effort-after-N-attempts policy.
type Generator struct {
	producer    Producer
	archive     store.ArchiveStore
	maxAttempts int
}

// NewGenerator wires a producer to the historical archive. maxAttempts
// <= 0 selects DefaultMaxAttempts.
func NewGenerator(producer Producer, archive store.ArchiveStore, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{
		producer:    producer,
		archive:     archive,
		maxAttempts: maxAttempts,
	}
}

// Generate runs the bounded regeneration loop: produce a valid
// candidate, check its groups against the archive, retry on duplicates.
// The final attempt is accepted regardless, flagged MayDuplicate.
func (g *Generator) Generate(ctx context.Context, prompt PromptConfig) (*Result, error) {
	var lastGroups []models.Group
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		groups, err := g.produceValid(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Printf("Candidate attempt %d/%d failed: %v", attempt, g.maxAttempts, err)
			continue
		}
		lastGroups = groups

		duplicate, err := g.anyDuplicate(ctx, groups)
		if err != nil {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
		if !duplicate {
			return &Result{Puzzle: assemblePuzzle(groups), Attempts: attempt}, nil
		}

		log.Printf("Candidate attempt %d/%d contains a previously used group", attempt, g.maxAttempts)
	}

	if lastGroups == nil {
		return nil, fmt.Errorf("no valid candidate after %d attempts: %w", g.maxAttempts, lastErr)
	}

	// Better some duplication than no puzzle.
	log.Printf("Accepting possibly duplicate puzzle after %d attempts", g.maxAttempts)
	return &Result{
		Puzzle:       assemblePuzzle(lastGroups),
		MayDuplicate: true,
		Attempts:     g.maxAttempts,
	}, nil
}

// produceValid asks the producer for candidates until one passes
// structural validation, up to producerRetries times.
func (g *Generator) produceValid(ctx context.Context, prompt PromptConfig) ([]models.Group, error) {
	var lastErr error

	for try := 0; try < producerRetries; try++ {
		groups, err := g.producer.Produce(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		groups = normalizeGroups(groups)
		if game.ValidatePuzzle(groups) {
			return groups, nil
		}
		lastErr = fmt.Errorf("candidate failed validation")
	}

	return nil, fmt.Errorf("failed to generate valid puzzle after %d retries: %w", producerRetries, lastErr)
}

func (g *Generator) anyDuplicate(ctx context.Context, groups []models.Group) (bool, error) {
	for _, group := range groups {
		found, err := g.archive.Contains(ctx, game.GroupHash(group.Words))
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// normalizeGroups upper-cases and trims words and categories.
func normalizeGroups(groups []models.Group) []models.Group {
	for i := range groups {
		groups[i].Words = game.NormalizeWords(groups[i].Words)
		groups[i].Category = strings.TrimSpace(groups[i].Category)
	}
	return groups
}

// assemblePuzzle flattens the groups into a shuffled presentation order
// and stamps identity. The date key is assigned by the caller.
func assemblePuzzle(groups []models.Group) *models.Puzzle {
	var words []string
	for _, group := range groups {
		words = append(words, group.Words...)
	}
	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	return &models.Puzzle{
		ID:        uuid.NewString(),
		Words:     words,
		Groups:    groups,
		CreatedAt: time.Now().UTC(),
	}
}
