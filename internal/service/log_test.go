package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/service"
)

func TestLogLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	id, err := service.CreateLog(db, service.CreateLogInput{Title: "  Winter cut ", Goal: model.GoalFatLoss})
	if err != nil {
		t.Fatalf("create log: %v", err)
	}

	l, err := service.GetLog(db, id)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if l.Title != "Winter cut" || l.Goal != model.GoalFatLoss {
		t.Fatalf("unexpected log: %+v", l)
	}
	firstEdit := l.LastEdit

	time.Sleep(5 * time.Millisecond)
	if err := service.RenameLog(db, id, "Spring cut"); err != nil {
		t.Fatalf("rename log: %v", err)
	}
	if err := service.SetLogGoal(db, id, model.GoalMaintain); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	l, err = service.GetLog(db, id)
	if err != nil {
		t.Fatalf("get log after update: %v", err)
	}
	if l.Title != "Spring cut" || l.Goal != model.GoalMaintain {
		t.Fatalf("unexpected updated log: %+v", l)
	}
	if !l.LastEdit.After(firstEdit) {
		t.Fatalf("expected last edit to move forward, got %s then %s", firstEdit, l.LastEdit)
	}

	logs, err := service.ListLogs(db)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}

	if err := service.DeleteLog(db, id); err != nil {
		t.Fatalf("delete log: %v", err)
	}
	if _, err := service.GetLog(db, id); !errors.Is(err, service.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
	if err := service.DeleteLog(db, id); !errors.Is(err, service.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound on second delete, got %v", err)
	}
}

func TestCreateLogValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.CreateLog(db, service.CreateLogInput{Title: "  "}); err == nil {
		t.Fatalf("expected empty title to fail")
	}
	if _, err := service.CreateLog(db, service.CreateLogInput{Title: "bulk", Goal: "shred"}); err == nil {
		t.Fatalf("expected invalid goal to fail")
	}
}

func TestParseGoal(t *testing.T) {
	t.Parallel()
	cases := map[string]model.GoalCategory{
		"fat-loss":    model.GoalFatLoss,
		"Muscle-Gain": model.GoalMuscleGain,
		"maintain":    model.GoalMaintain,
		"none":        model.GoalUnset,
		"":            model.GoalUnset,
	}
	for in, want := range cases {
		got, err := service.ParseGoal(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %q, got %q", in, want, got)
		}
	}
	if _, err := service.ParseGoal("recomp"); err == nil {
		t.Fatalf("expected unknown goal to fail")
	}
}

func TestLoadLogIncludesEntries(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	id := newTestLog(t, db, "bulk")

	for _, d := range []string{"2026-02-03", "2026-02-01"} {
		if _, err := service.UpsertDayEntry(db, service.DayEntryInput{LogID: id, Date: mustDay(t, d), Weight: floatPtr(80)}); err != nil {
			t.Fatalf("upsert %s: %v", d, err)
		}
	}

	l, err := service.LoadLog(db, id)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if len(l.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l.Entries))
	}
	if service.FormatDay(l.Entries[0].Date) != "2026-02-01" {
		t.Fatalf("expected entries ordered by day, got %s first", service.FormatDay(l.Entries[0].Date))
	}
}
