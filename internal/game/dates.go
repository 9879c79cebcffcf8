package game

import "time"

// DateLayout is the YYYY-MM-DD key format used by the puzzle store.
const DateLayout = "2006-01-02"

// gameTZ is the zone the daily puzzle rolls over in.
var gameTZ = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the current puzzle date in Eastern time.
func Today() string {
	return time.Now().In(gameTZ).Format(DateLayout)
}

// Yesterday returns the previous puzzle date in Eastern time, used by
// the daily summary job.
func Yesterday() string {
	return time.Now().In(gameTZ).AddDate(0, 0, -1).Format(DateLayout)
}

// ValidDate reports whether a date string is a well-formed puzzle date.
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}
