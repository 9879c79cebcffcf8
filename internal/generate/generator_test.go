package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"wordwebs/internal/game"
	"wordwebs/internal/models"
)

func candidateGroups(offset byte) []models.Group {
	suffix := string(offset)
	return []models.Group{
		{Words: []string{"APPLE" + suffix, "PEAR" + suffix, "PLUM" + suffix, "FIG" + suffix}, Category: "FRUITS" + suffix, Difficulty: 1},
		{Words: []string{"OAK" + suffix, "ELM" + suffix, "ASH" + suffix, "BIRCH" + suffix}, Category: "TREES" + suffix, Difficulty: 2},
		{Words: []string{"RUBY" + suffix, "JADE" + suffix, "OPAL" + suffix, "PEARL" + suffix}, Category: "GEMS" + suffix, Difficulty: 3},
		{Words: []string{"MARS" + suffix, "VENUS" + suffix, "PLUTO" + suffix, "SATURN" + suffix}, Category: "PLANETS" + suffix, Difficulty: 4},
	}
}

// fakeProducer returns queued candidates in order, then repeats the last.
type fakeProducer struct {
	queue [][]models.Group
	errs  []error
	calls int
}

func (f *fakeProducer) Produce(ctx context.Context, prompt PromptConfig) ([]models.Group, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.queue) {
		i = len(f.queue) - 1
	}
	return f.queue[i], nil
}

// fakeArchive remembers group hashes.
type fakeArchive struct {
	hashes map[string]bool
}

func newFakeArchive(groups ...[]models.Group) *fakeArchive {
	a := &fakeArchive{hashes: make(map[string]bool)}
	for _, gs := range groups {
		for _, g := range gs {
			a.hashes[game.GroupHash(g.Words)] = true
		}
	}
	return a
}

func (a *fakeArchive) Contains(ctx context.Context, hash string) (bool, error) {
	return a.hashes[hash], nil
}

func (a *fakeArchive) PutGroups(ctx context.Context, groups []models.Group) error {
	for _, g := range groups {
		a.hashes[game.GroupHash(g.Words)] = true
	}
	return nil
}

func TestGenerateFreshPuzzleFirstTry(t *testing.T) {
	producer := &fakeProducer{queue: [][]models.Group{candidateGroups('A')}}
	gen := NewGenerator(producer, newFakeArchive(), 5)

	result, err := gen.Generate(context.Background(), PromptConfig{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.MayDuplicate {
		t.Error("fresh puzzle flagged as possible duplicate")
	}
	if result.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", result.Attempts)
	}
	if len(result.Puzzle.Words) != 16 {
		t.Errorf("word count = %d, want 16", len(result.Puzzle.Words))
	}
	if result.Puzzle.ID == "" {
		t.Error("puzzle ID not assigned")
	}
}

func TestGenerateRetriesOnDuplicate(t *testing.T) {
	dupe := candidateGroups('A')
	fresh := candidateGroups('B')
	producer := &fakeProducer{queue: [][]models.Group{dupe, fresh}}
	gen := NewGenerator(producer, newFakeArchive(dupe), 5)

	result, err := gen.Generate(context.Background(), PromptConfig{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.MayDuplicate {
		t.Error("second candidate was fresh but flagged as duplicate")
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Attempts)
	}
}

func TestGenerateAcceptsDuplicateAfterMaxAttempts(t *testing.T) {
	dupe := candidateGroups('A')
	producer := &fakeProducer{queue: [][]models.Group{dupe}}
	gen := NewGenerator(producer, newFakeArchive(dupe), 3)

	result, err := gen.Generate(context.Background(), PromptConfig{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.MayDuplicate {
		t.Error("expected MayDuplicate after exhausting attempts")
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
}

func TestGenerateFailsWhenProducerNeverValid(t *testing.T) {
	// One broken group: only 3 words.
	invalid := candidateGroups('A')
	invalid[0].Words = invalid[0].Words[:3]

	producer := &fakeProducer{queue: [][]models.Group{invalid}}
	gen := NewGenerator(producer, newFakeArchive(), 2)

	if _, err := gen.Generate(context.Background(), PromptConfig{}); err == nil {
		t.Fatal("expected error when every candidate is invalid")
	}
}

func TestGenerateSurvivesTransientProducerErrors(t *testing.T) {
	producer := &fakeProducer{
		queue: [][]models.Group{candidateGroups('A')},
		errs:  []error{errors.New("upstream 503")},
	}
	gen := NewGenerator(producer, newFakeArchive(), 5)

	result, err := gen.Generate(context.Background(), PromptConfig{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Puzzle == nil {
		t.Fatal("no puzzle returned")
	}
}

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "bare JSON",
			input: `{"groups":[{"words":["A","B","C","D"],"category":"X","difficulty":1}]}`,
		},
		{
			name:  "fenced JSON",
			input: "```json\n{\"groups\":[{\"words\":[\"A\",\"B\",\"C\",\"D\"],\"category\":\"X\",\"difficulty\":1}]}\n```",
		},
		{
			name:    "no JSON at all",
			input:   "sorry, I cannot do that",
			wantErr: true,
		},
		{
			name:    "broken JSON",
			input:   `{"groups": [}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := parseCandidate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCandidate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(groups) != 1 {
				t.Errorf("group count = %d, want 1", len(groups))
			}
		})
	}
}

func TestEffectiveTemperature(t *testing.T) {
	if got := effectiveTemperature(nil); got != defaultTemperature {
		t.Errorf("nil temperature = %v, want default %v", got, defaultTemperature)
	}

	zero := float32(0)
	got := effectiveTemperature(&zero)
	if got == 0 || got == defaultTemperature || got > 1e-30 {
		t.Errorf("explicit zero = %v, want a near-zero stand-in that survives omitempty", got)
	}

	pinned := float32(1.2)
	if got := effectiveTemperature(&pinned); got != 1.2 {
		t.Errorf("pinned temperature = %v, want 1.2", got)
	}
}

func TestBuildPromptIncludesHints(t *testing.T) {
	prompt := buildPrompt(PromptConfig{
		Theme:           "ocean life",
		AvoidCategories: []string{"FISH", "SHIPS"},
	})

	for _, want := range []string{"related to ocean life", "FISH, SHIPS"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
