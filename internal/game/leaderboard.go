package game

import (
	"fmt"
	"sort"
	"time"

	"wordwebs/internal/models"
)

// launchDate anchors puzzle numbering, matching the frontend.
var launchDate = time.Date(2025, time.July, 30, 0, 0, 0, 0, time.UTC)

// RankDaily orders a day's sessions into a leaderboard. Completed
// sessions rank first by ascending completion time (ties keep input
// order); incomplete sessions follow, by descending solved-group count
// then ascending attempts used. Ranks are dense and 1-based.
func RankDaily(sessions []models.Session) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, models.LeaderboardEntry{
			DiscordID:      s.DiscordID,
			DisplayName:    s.DisplayName,
			Completed:      s.Status == models.StatusCompleted,
			CompletionTime: s.CompletionTime,
			SolvedGroups:   len(s.SolvedGroups),
			AttemptsUsed:   s.AttemptsUsed(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Completed != b.Completed {
			return a.Completed
		}
		if a.Completed {
			return completionSeconds(a) < completionSeconds(b)
		}
		if a.SolvedGroups != b.SolvedGroups {
			return a.SolvedGroups > b.SolvedGroups
		}
		return a.AttemptsUsed < b.AttemptsUsed
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func completionSeconds(e models.LeaderboardEntry) int {
	if e.CompletionTime == nil {
		return int(^uint(0) >> 1)
	}
	return *e.CompletionTime
}

// PuzzleNumber returns the 1-based puzzle number for a YYYY-MM-DD date,
// counting days since launch.
func PuzzleNumber(date string) int {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 1
	}
	n := int(d.Sub(launchDate).Hours()/24) + 1
	if n < 1 {
		return 1
	}
	return n
}

// FormatDuration renders a completion time the way the summary message
// shows it.
func FormatDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}
