// Package period groups a log's day entries into contiguous time periods for
// the list view and orders them for display.
package period

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
)

const Day = 24 * time.Hour

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMulti
)

func (g Granularity) String() string {
	if g == GranularityDay {
		return "day"
	}
	return "multi-day"
}

type Direction string

const (
	Unset      Direction = ""
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	case Unset, "none":
		return Unset, nil
	}
	return Unset, fmt.Errorf("invalid order %q (use asc, desc or none)", s)
}

// Period is a contiguous date range of a log. End is inclusive.
type Period struct {
	Start   time.Time        `json:"start"`
	End     time.Time        `json:"end"`
	Entries []model.DayEntry `json:"entries"`
}

func Days(n int) time.Duration {
	return time.Duration(n) * Day
}

func GranularityFor(length time.Duration) Granularity {
	if length == Day {
		return GranularityDay
	}
	return GranularityMulti
}

// Split partitions entries into periods of the given length, anchored to the
// earliest entry rather than a calendar boundary. In day mode, or when there
// are no entries, it returns a single period starting at now that holds the
// input unchanged.
func Split(entries []model.DayEntry, length time.Duration, now time.Time) []Period {
	if length == Day || len(entries) == 0 || length <= 0 {
		items := make([]model.DayEntry, len(entries))
		copy(items, entries)
		return []Period{{Start: now, End: now, Entries: items}}
	}

	sorted := make([]model.DayEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]Period, 0)
	start := sorted[0].Date
	end := start.Add(length)
	current := Period{Start: start, End: end.Add(-Day), Entries: make([]model.DayEntry, 0)}

	for i := 0; i < len(sorted); {
		if sorted[i].Date.Before(end) {
			current.Entries = append(current.Entries, sorted[i])
			i++
			continue
		}
		if len(current.Entries) > 0 {
			out = append(out, current)
		}
		start = start.Add(length)
		end = end.Add(length)
		current = Period{Start: start, End: end.Add(-Day), Entries: make([]model.DayEntry, 0)}
	}
	// Appended without the empty check applied to intermediate periods.
	out = append(out, current)
	return out
}

// Order sorts periods in place. Day granularity orders the entries inside each
// period; otherwise the periods themselves are ordered by start date. Unset or
// unknown directions leave everything as is.
func Order(periods []Period, g Granularity, d Direction) {
	var less func(a, b time.Time) bool
	switch d {
	case Ascending:
		less = func(a, b time.Time) bool { return a.Before(b) }
	case Descending:
		less = func(a, b time.Time) bool { return a.After(b) }
	default:
		return
	}

	if g == GranularityDay {
		for i := range periods {
			entries := periods[i].Entries
			sort.SliceStable(entries, func(a, b int) bool {
				return less(entries[a].Date, entries[b].Date)
			})
		}
		return
	}
	sort.SliceStable(periods, func(a, b int) bool {
		return less(periods[a].Start, periods[b].Start)
	})
}
