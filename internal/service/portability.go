package service

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
)

const exportVersion = 1

type ExportDay struct {
	Date     string           `json:"date" yaml:"date"`
	WeightKg *float64         `json:"weight_kg,omitempty" yaml:"weight_kg,omitempty"`
	Calories *int             `json:"calories,omitempty" yaml:"calories,omitempty"`
	Bounds   *model.DayBounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Notes    string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type ExportLog struct {
	Title    string             `json:"title" yaml:"title"`
	Goal     model.GoalCategory `json:"goal,omitempty" yaml:"goal,omitempty"`
	LastEdit time.Time          `json:"last_edit" yaml:"last_edit"`
	Days     []ExportDay        `json:"days" yaml:"days"`
}

type ExportData struct {
	Version     int               `json:"version" yaml:"version"`
	ExportedAt  time.Time         `json:"exported_at" yaml:"exported_at"`
	Preferences model.Preferences `json:"preferences" yaml:"preferences"`
	Logs        []ExportLog       `json:"logs" yaml:"logs"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	LogsCreated int      `json:"logs_created"`
	Inserted    int      `json:"inserted"`
	Updated     int      `json:"updated"`
	Skipped     int      `json:"skipped"`
	Conflicts   int      `json:"conflicts"`
	Warnings    []string `json:"warnings,omitempty"`
}

// ExportDataSnapshot exports every log. A non-zero logID limits the export
// to that log.
func ExportDataSnapshot(db *sql.DB, logID int64) (*ExportData, error) {
	prefs, err := GetPreferences(db)
	if err != nil {
		return nil, err
	}
	out := &ExportData{Version: exportVersion, ExportedAt: time.Now().UTC(), Preferences: prefs, Logs: make([]ExportLog, 0)}

	var summaries []model.LogSummary
	if logID > 0 {
		l, err := GetLog(db, logID)
		if err != nil {
			return nil, err
		}
		summaries = []model.LogSummary{l}
	} else {
		summaries, err = ListLogs(db)
		if err != nil {
			return nil, err
		}
	}

	for _, s := range summaries {
		entries, err := ListDayEntries(db, DayEntryFilter{LogID: s.ID})
		if err != nil {
			return nil, fmt.Errorf("export log %d: %w", s.ID, err)
		}
		l := ExportLog{Title: s.Title, Goal: s.Goal, LastEdit: s.LastEdit.UTC(), Days: make([]ExportDay, 0, len(entries))}
		for _, e := range entries {
			l.Days = append(l.Days, ExportDay{
				Date:     FormatDay(e.Date),
				WeightKg: e.WeightKg,
				Calories: e.Calories,
				Bounds:   e.Bounds,
				Notes:    e.Notes,
			})
		}
		out.Logs = append(out.Logs, l)
	}
	return out, nil
}

// ImportDataSnapshot restores logs by title. Days are matched per calendar
// day; the mode decides what happens when a log with the same title exists.
func ImportDataSnapshot(db *sql.DB, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, fmt.Errorf("import payload is required")
	}
	if opts.Mode == "" {
		opts.Mode = ImportModeFail
	}
	switch opts.Mode {
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
	default:
		return report, fmt.Errorf("invalid import mode %q (use fail, skip, merge or replace)", opts.Mode)
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, l := range data.Logs {
		title := strings.TrimSpace(l.Title)
		if title == "" {
			report.Warnings = append(report.Warnings, "skipped log with empty title")
			report.Skipped++
			continue
		}
		if !l.Goal.Valid() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("log %q: dropped invalid goal %q", title, l.Goal))
			l.Goal = model.GoalUnset
		}

		var logID int64
		err := tx.QueryRow(`SELECT id FROM logs WHERE lower(title) = lower(?) ORDER BY id LIMIT 1`, title).Scan(&logID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.Exec(`INSERT INTO logs(title, goal, last_edit) VALUES(?, ?, ?)`, title, string(l.Goal), formatTimestamp(now))
			if err != nil {
				return report, fmt.Errorf("import log %q: %w", title, err)
			}
			if logID, err = res.LastInsertId(); err != nil {
				return report, fmt.Errorf("resolve imported log id: %w", err)
			}
			report.LogsCreated++
		case err != nil:
			return report, fmt.Errorf("lookup log %q: %w", title, err)
		default:
			report.Conflicts++
			switch opts.Mode {
			case ImportModeFail:
				return report, fmt.Errorf("log %q already exists (use --mode skip, merge or replace)", title)
			case ImportModeSkip:
				report.Skipped += len(l.Days)
				continue
			case ImportModeReplace:
				if _, err := tx.Exec(`DELETE FROM day_entries WHERE log_id = ?`, logID); err != nil {
					return report, fmt.Errorf("clear log %q days: %w", title, err)
				}
				if _, err := tx.Exec(`UPDATE logs SET goal = ?, last_edit = ? WHERE id = ?`, string(l.Goal), formatTimestamp(now), logID); err != nil {
					return report, fmt.Errorf("replace log %q: %w", title, err)
				}
			}
		}

		for _, d := range l.Days {
			inserted, err := importDay(tx, logID, d, now)
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("log %q day %q: %v", title, d.Date, err))
				report.Skipped++
				continue
			}
			if inserted {
				report.Inserted++
			} else {
				report.Updated++
			}
		}
		if _, err := tx.Exec(`UPDATE logs SET last_edit = ? WHERE id = ?`, formatTimestamp(now), logID); err != nil {
			return report, fmt.Errorf("touch imported log %q: %w", title, err)
		}
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import: %w", err)
	}
	return report, nil
}

func importDay(tx *sql.Tx, logID int64, d ExportDay, now time.Time) (bool, error) {
	date, err := ParseDay(d.Date)
	if err != nil {
		return false, err
	}
	if d.WeightKg != nil && *d.WeightKg <= 0 {
		return false, fmt.Errorf("weight must be > 0")
	}
	if d.Calories != nil && *d.Calories < 0 {
		return false, fmt.Errorf("calories must be >= 0")
	}
	boundsJSON, err := encodeBounds(d.Bounds)
	if err != nil {
		return false, err
	}

	day := FormatDay(date)
	var existingID int64
	err = tx.QueryRow(`SELECT id FROM day_entries WHERE log_id = ? AND day = ?`, logID, day).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		id, err := nextEntryID(tx, now)
		if err != nil {
			return false, err
		}
		if _, err := tx.Exec(`
INSERT INTO day_entries(id, log_id, day, weight_kg, calories, bounds_json, notes, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, logID, day, d.WeightKg, d.Calories, boundsJSON, strings.TrimSpace(d.Notes), formatTimestamp(now), formatTimestamp(now)); err != nil {
			return false, fmt.Errorf("insert imported day: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup imported day: %w", err)
	}
	if _, err := tx.Exec(`
UPDATE day_entries SET weight_kg = ?, calories = ?, bounds_json = ?, notes = ?, updated_at = ? WHERE id = ?
`, d.WeightKg, d.Calories, boundsJSON, strings.TrimSpace(d.Notes), formatTimestamp(now), existingID); err != nil {
		return false, fmt.Errorf("update imported day: %w", err)
	}
	return false, nil
}

var csvHeader = []string{"log_id", "log_title", "date", "weight", "weight_unit", "calories", "energy_unit", "min_calories", "max_calories", "notes"}

// WriteDaysCSV writes one row per day entry using the given display units.
func WriteDaysCSV(w io.Writer, l model.LogSummary, weightUnit model.WeightUnit, energyUnit model.EnergyUnit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range l.Entries {
		weight := ""
		if e.WeightKg != nil {
			v, err := WeightFromKg(*e.WeightKg, string(weightUnit))
			if err != nil {
				return err
			}
			weight = strconv.FormatFloat(v, 'f', 2, 64)
		}
		calories := ""
		if e.Calories != nil {
			v, err := EnergyFromKcal(float64(*e.Calories), string(energyUnit))
			if err != nil {
				return err
			}
			calories = strconv.FormatFloat(v, 'f', 0, 64)
		}
		minCal, maxCal := "", ""
		if e.Bounds != nil {
			if e.Bounds.MinCalories != nil {
				minCal = strconv.Itoa(*e.Bounds.MinCalories)
			}
			if e.Bounds.MaxCalories != nil {
				maxCal = strconv.Itoa(*e.Bounds.MaxCalories)
			}
		}
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.Title,
			FormatDay(e.Date),
			weight,
			string(weightUnit),
			calories,
			string(energyUnit),
			minCal,
			maxCal,
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
