package period_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/period"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func entriesOn(dates ...string) []model.DayEntry {
	out := make([]model.DayEntry, 0, len(dates))
	for i, d := range dates {
		out = append(out, model.DayEntry{ID: int64(i + 1), LogID: 1, Date: day(d)})
	}
	return out
}

// Ten entries over twenty days, irregular gaps.
func sampleEntries() []model.DayEntry {
	return entriesOn(
		"2026-03-14", "2026-03-01", "2026-03-02", "2026-03-05", "2026-03-06",
		"2026-03-11", "2026-03-12", "2026-03-20", "2026-03-19", "2026-03-15",
	)
}

func TestSplitDayModeReturnsSinglePeriod(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 21, 9, 30, 0, 0, time.UTC)
	in := sampleEntries()

	got := period.Split(in, period.Day, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 period, got %d", len(got))
	}
	if !got[0].Start.Equal(now) {
		t.Fatalf("expected period to start at now, got %s", got[0].Start)
	}
	if !reflect.DeepEqual(got[0].Entries, in) {
		t.Fatalf("expected input entries unchanged in day mode")
	}
}

func TestSplitEmptyInputReturnsSingleEmptyPeriod(t *testing.T) {
	t.Parallel()
	now := time.Now()
	for _, length := range []time.Duration{period.Day, period.Days(7)} {
		got := period.Split(nil, length, now)
		if len(got) != 1 {
			t.Fatalf("length %s: expected 1 period, got %d", length, len(got))
		}
		if len(got[0].Entries) != 0 {
			t.Fatalf("length %s: expected empty period, got %d entries", length, len(got[0].Entries))
		}
		if !got[0].Start.Equal(now) {
			t.Fatalf("length %s: expected start at now", length)
		}
	}
}

func TestSplitWeeklyCoverage(t *testing.T) {
	t.Parallel()
	in := sampleEntries()
	length := period.Days(7)

	got := period.Split(in, length, time.Now())
	if len(got) < 2 {
		t.Fatalf("expected at least 2 periods, got %d", len(got))
	}

	seen := map[int64]int{}
	for i, p := range got {
		if p.End.Sub(p.Start) > length-period.Day {
			t.Fatalf("period %d wider than 7 days: %s..%s", i, p.Start, p.End)
		}
		if len(p.Entries) == 0 && i != len(got)-1 {
			t.Fatalf("unexpected empty intermediate period %d", i)
		}
		for _, e := range p.Entries {
			if e.Date.Before(p.Start.Add(-period.Day)) || e.Date.After(p.End.Add(period.Day)) {
				t.Fatalf("entry %s outside period %s..%s", e.Date, p.Start, p.End)
			}
			seen[e.ID]++
		}
	}
	if len(seen) != len(in) {
		t.Fatalf("expected %d distinct entries across periods, got %d", len(in), len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("entry %d present in %d periods", id, n)
		}
	}
}

func TestSplitAnchorsToFirstEntryAndSkipsGaps(t *testing.T) {
	t.Parallel()
	in := entriesOn("2026-01-03", "2026-01-04", "2026-01-30")

	got := period.Split(in, period.Days(7), time.Now())
	if len(got) != 2 {
		t.Fatalf("expected 2 periods (empty gap windows dropped), got %d", len(got))
	}
	if !got[0].Start.Equal(day("2026-01-03")) || !got[0].End.Equal(day("2026-01-09")) {
		t.Fatalf("unexpected first period %s..%s", got[0].Start, got[0].End)
	}
	if !got[1].Start.Equal(day("2026-01-24")) || !got[1].End.Equal(day("2026-01-30")) {
		t.Fatalf("unexpected second period %s..%s", got[1].Start, got[1].End)
	}
	if len(got[1].Entries) != 1 || !got[1].Entries[0].Date.Equal(day("2026-01-30")) {
		t.Fatalf("unexpected second period entries: %+v", got[1].Entries)
	}
}

func TestSplitDoesNotMutateInputAndIsOrderIndependent(t *testing.T) {
	t.Parallel()
	in := sampleEntries()
	before := append([]model.DayEntry(nil), in...)

	a := period.Split(in, period.Days(5), time.Now())
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("split mutated caller slice")
	}

	reversed := make([]model.DayEntry, len(in))
	for i := range in {
		reversed[len(in)-1-i] = in[i]
	}
	b := period.Split(reversed, period.Days(5), time.Now())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("split output depends on input order")
	}
}

func TestOrderLaws(t *testing.T) {
	t.Parallel()
	now := time.Now()

	t.Run("day ascending", func(t *testing.T) {
		ps := period.Split(sampleEntries(), period.Day, now)
		period.Order(ps, period.GranularityDay, period.Ascending)
		es := ps[0].Entries
		for i := 1; i < len(es); i++ {
			if es[i].Date.Before(es[i-1].Date) {
				t.Fatalf("entries not ascending at %d", i)
			}
		}
	})

	t.Run("day descending", func(t *testing.T) {
		ps := period.Split(sampleEntries(), period.Day, now)
		period.Order(ps, period.GranularityDay, period.Descending)
		es := ps[0].Entries
		for i := 1; i < len(es); i++ {
			if es[i].Date.After(es[i-1].Date) {
				t.Fatalf("entries not descending at %d", i)
			}
		}
	})

	t.Run("multi descending", func(t *testing.T) {
		ps := period.Split(sampleEntries(), period.Days(7), now)
		period.Order(ps, period.GranularityMulti, period.Descending)
		for i := 1; i < len(ps); i++ {
			if ps[i].Start.After(ps[i-1].Start) {
				t.Fatalf("periods not descending at %d", i)
			}
		}
		for _, p := range ps {
			for i := 1; i < len(p.Entries); i++ {
				if p.Entries[i].Date.Before(p.Entries[i-1].Date) {
					t.Fatalf("entries within a period should stay ascending")
				}
			}
		}
	})

	t.Run("multi ascending", func(t *testing.T) {
		ps := period.Split(sampleEntries(), period.Days(7), now)
		period.Order(ps, period.GranularityMulti, period.Ascending)
		for i := 1; i < len(ps); i++ {
			if ps[i].Start.Before(ps[i-1].Start) {
				t.Fatalf("periods not ascending at %d", i)
			}
		}
	})

	t.Run("unset leaves arrangement", func(t *testing.T) {
		ps := period.Split(sampleEntries(), period.Day, now)
		before := append([]model.DayEntry(nil), ps[0].Entries...)
		period.Order(ps, period.GranularityDay, period.Unset)
		period.Order(ps, period.GranularityDay, period.Direction("sideways"))
		if !reflect.DeepEqual(ps[0].Entries, before) {
			t.Fatalf("unset direction reordered entries")
		}
	})
}

func TestSplitAndOrderIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Now()
	run := func() []period.Period {
		ps := period.Split(sampleEntries(), period.Days(7), now)
		period.Order(ps, period.GranularityMulti, period.Ascending)
		return ps
	}
	if !reflect.DeepEqual(run(), run()) {
		t.Fatalf("expected identical output on repeated runs")
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()
	cases := map[string]period.Direction{
		"asc":  period.Ascending,
		"DESC": period.Descending,
		"":     period.Unset,
		"none": period.Unset,
	}
	for in, want := range cases {
		got, err := period.ParseDirection(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %q, got %q", in, want, got)
		}
	}
	if _, err := period.ParseDirection("up"); err == nil {
		t.Fatalf("expected invalid direction to fail")
	}
}
