package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
)

type DayEntryInput struct {
	LogID      int64
	Date       time.Time
	Weight     *float64
	WeightUnit string
	Calories   *float64
	EnergyUnit string
	Bounds     *model.DayBounds
	Notes      string
}

type DayEntryFilter struct {
	LogID int64
	From  time.Time
	To    time.Time
	Limit int
}

type UpsertResult struct {
	ID      int64
	Created bool
}

// UpsertDayEntry records a day for a log. A second submission for the same
// day updates the existing entry in place; values left nil keep what is
// already stored.
func UpsertDayEntry(db *sql.DB, in DayEntryInput) (UpsertResult, error) {
	if in.LogID <= 0 {
		return UpsertResult{}, fmt.Errorf("log id must be > 0")
	}
	if in.Weight == nil && in.Calories == nil && in.Bounds.Empty() && strings.TrimSpace(in.Notes) == "" {
		return UpsertResult{}, fmt.Errorf("day entry needs a weight, calories, bounds or notes")
	}
	if in.Date.IsZero() {
		in.Date = Today()
	}
	in.Date = CivilDay(in.Date)

	var weightKg *float64
	if in.Weight != nil {
		v, err := ConvertWeightToKg(*in.Weight, in.WeightUnit)
		if err != nil {
			return UpsertResult{}, err
		}
		weightKg = &v
	}
	var calories *int
	if in.Calories != nil {
		v, err := EnergyToKcal(*in.Calories, in.EnergyUnit)
		if err != nil {
			return UpsertResult{}, err
		}
		calories = &v
	}
	boundsJSON, err := encodeBounds(in.Bounds)
	if err != nil {
		return UpsertResult{}, err
	}

	tx, err := db.Begin()
	if err != nil {
		return UpsertResult{}, fmt.Errorf("begin day entry tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	day := FormatDay(in.Date)
	var existingID int64
	err = tx.QueryRow(`SELECT id FROM day_entries WHERE log_id = ? AND day = ?`, in.LogID, day).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := touchLog(tx, in.LogID, now); err != nil {
			return UpsertResult{}, err
		}
		id, err := nextEntryID(tx, now)
		if err != nil {
			return UpsertResult{}, err
		}
		if _, err := tx.Exec(`
INSERT INTO day_entries(id, log_id, day, weight_kg, calories, bounds_json, notes, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, in.LogID, day, weightKg, calories, boundsJSON, strings.TrimSpace(in.Notes), formatTimestamp(now), formatTimestamp(now)); err != nil {
			return UpsertResult{}, fmt.Errorf("insert day entry: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return UpsertResult{}, fmt.Errorf("commit day entry: %w", err)
		}
		return UpsertResult{ID: id, Created: true}, nil
	case err != nil:
		return UpsertResult{}, fmt.Errorf("lookup day entry: %w", err)
	}

	if _, err := tx.Exec(`
UPDATE day_entries SET
  weight_kg = COALESCE(?, weight_kg),
  calories = COALESCE(?, calories),
  bounds_json = CASE WHEN ? = '' THEN bounds_json ELSE ? END,
  notes = CASE WHEN ? = '' THEN notes ELSE ? END,
  updated_at = ?
WHERE id = ?
`, weightKg, calories, boundsJSON, boundsJSON, strings.TrimSpace(in.Notes), strings.TrimSpace(in.Notes), formatTimestamp(now), existingID); err != nil {
		return UpsertResult{}, fmt.Errorf("update day entry: %w", err)
	}
	if err := touchLog(tx, in.LogID, now); err != nil {
		return UpsertResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return UpsertResult{}, fmt.Errorf("commit day entry: %w", err)
	}
	return UpsertResult{ID: existingID, Created: false}, nil
}

func ListDayEntries(db *sql.DB, f DayEntryFilter) ([]model.DayEntry, error) {
	if f.LogID <= 0 {
		return nil, fmt.Errorf("log id must be > 0")
	}
	query := `SELECT id, log_id, day, weight_kg, calories, bounds_json, notes, created_at, updated_at FROM day_entries WHERE log_id = ?`
	args := []any{f.LogID}
	if !f.From.IsZero() {
		query += ` AND day >= ?`
		args = append(args, FormatDay(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND day <= ?`
		args = append(args, FormatDay(f.To))
	}
	query += ` ORDER BY day ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list day entries: %w", err)
	}
	defer rows.Close()

	items := make([]model.DayEntry, 0)
	for rows.Next() {
		e, err := scanDayEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day entries: %w", err)
	}
	return items, nil
}

func GetDayEntry(db *sql.DB, logID int64, date time.Time) (model.DayEntry, error) {
	row := db.QueryRow(`SELECT id, log_id, day, weight_kg, calories, bounds_json, notes, created_at, updated_at FROM day_entries WHERE log_id = ? AND day = ?`, logID, FormatDay(CivilDay(date)))
	e, err := scanDayEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DayEntry{}, fmt.Errorf("log %d day %s: %w", logID, FormatDay(date), ErrDayNotFound)
	}
	return e, err
}

func DeleteDayEntry(db *sql.DB, logID int64, date time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete day tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM day_entries WHERE log_id = ? AND day = ?`, logID, FormatDay(CivilDay(date)))
	if err != nil {
		return fmt.Errorf("delete day entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete day entry rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("log %d day %s: %w", logID, FormatDay(date), ErrDayNotFound)
	}
	if err := touchLog(tx, logID, time.Now()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete day: %w", err)
	}
	return nil
}

// nextEntryID derives an entry id from the creation time, stepping forward
// past ids that are already taken.
func nextEntryID(tx *sql.Tx, at time.Time) (int64, error) {
	id := at.UnixMilli()
	for {
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM day_entries WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return id, nil
		}
		if err != nil {
			return 0, fmt.Errorf("check day entry id: %w", err)
		}
		id++
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDayEntry(row rowScanner) (model.DayEntry, error) {
	var e model.DayEntry
	var day, boundsJSON, created, updated string
	var weight sql.NullFloat64
	var calories sql.NullInt64
	if err := row.Scan(&e.ID, &e.LogID, &day, &weight, &calories, &boundsJSON, &e.Notes, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DayEntry{}, err
		}
		return model.DayEntry{}, fmt.Errorf("scan day entry: %w", err)
	}
	var err error
	if e.Date, err = ParseDay(day); err != nil {
		return model.DayEntry{}, fmt.Errorf("parse day entry date: %w", err)
	}
	if weight.Valid {
		v := weight.Float64
		e.WeightKg = &v
	}
	if calories.Valid {
		v := int(calories.Int64)
		e.Calories = &v
	}
	if e.Bounds, err = decodeBounds(boundsJSON); err != nil {
		return model.DayEntry{}, fmt.Errorf("decode day %s bounds: %w", day, err)
	}
	if e.CreatedAt, err = parseTimestamp(created); err != nil {
		return model.DayEntry{}, err
	}
	if e.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return model.DayEntry{}, err
	}
	return e, nil
}

func validateBounds(b *model.DayBounds) error {
	if b.Empty() {
		return nil
	}
	if b.MinCalories != nil {
		if err := validateNonNegativeInt("min calories", *b.MinCalories); err != nil {
			return err
		}
	}
	if b.MaxCalories != nil {
		if err := validateNonNegativeInt("max calories", *b.MaxCalories); err != nil {
			return err
		}
	}
	if b.MinCalories != nil && b.MaxCalories != nil && *b.MinCalories > *b.MaxCalories {
		return fmt.Errorf("min calories must be <= max calories")
	}
	if b.TargetWeightKg != nil && *b.TargetWeightKg <= 0 {
		return fmt.Errorf("target weight must be > 0")
	}
	return nil
}

func encodeBounds(b *model.DayBounds) (string, error) {
	if b.Empty() {
		return "", nil
	}
	if err := validateBounds(b); err != nil {
		return "", err
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode bounds: %w", err)
	}
	return string(raw), nil
}

func decodeBounds(raw string) (*model.DayBounds, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var b model.DayBounds
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, err
	}
	if b.Empty() {
		return nil, nil
	}
	return &b, nil
}
