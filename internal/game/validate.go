package game

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"wordwebs/internal/models"
)

// ValidatePuzzle checks a candidate puzzle before acceptance: exactly 4
// groups of 4 single-token words, 16 case-insensitively distinct words,
// one group per difficulty 1-4, and pairwise distinct categories.
// Returns false on the first violated check; the caller retries with a
// fresh candidate rather than inspecting partial failures.
func ValidatePuzzle(groups []models.Group) bool {
	if len(groups) != 4 {
		return false
	}

	seenWords := make(map[string]bool, 16)
	seenCategories := make(map[string]bool, 4)
	seenDifficulties := make(map[int]bool, 4)

	for _, group := range groups {
		if len(group.Words) != 4 {
			return false
		}

		for _, word := range group.Words {
			w := strings.TrimSpace(word)
			if w == "" || strings.ContainsAny(w, " \t") {
				return false
			}
			key := strings.ToUpper(w)
			if seenWords[key] {
				return false
			}
			seenWords[key] = true
		}

		if group.Difficulty < 1 || group.Difficulty > 4 {
			return false
		}
		if seenDifficulties[group.Difficulty] {
			return false
		}
		seenDifficulties[group.Difficulty] = true

		category := strings.ToUpper(strings.TrimSpace(group.Category))
		if category == "" || seenCategories[category] {
			return false
		}
		seenCategories[category] = true
	}

	return len(seenWords) == 16
}

// GroupHash returns a case-insensitive, order-independent digest of a
// group's words, used as the key into the historical archive.
func GroupHash(words []string) string {
	upper := make([]string, len(words))
	for i, word := range words {
		upper[i] = strings.ToUpper(strings.TrimSpace(word))
	}
	sort.Strings(upper)

	sum := md5.Sum([]byte(strings.Join(upper, "")))
	return hex.EncodeToString(sum[:])
}

// NormalizeWords upper-cases and trims a word list in place and returns it.
func NormalizeWords(words []string) []string {
	for i, word := range words {
		words[i] = strings.ToUpper(strings.TrimSpace(word))
	}
	return words
}
