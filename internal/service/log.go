package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
)

type CreateLogInput struct {
	Title string
	Goal  model.GoalCategory
}

func CreateLog(db *sql.DB, in CreateLogInput) (int64, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return 0, fmt.Errorf("log title is required")
	}
	if !in.Goal.Valid() {
		return 0, fmt.Errorf("invalid goal %q (use fat-loss, muscle-gain or maintain)", in.Goal)
	}
	res, err := db.Exec(`INSERT INTO logs(title, goal, last_edit) VALUES(?, ?, ?)`, title, string(in.Goal), formatTimestamp(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("create log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve log id: %w", err)
	}
	return id, nil
}

// GetLog returns the summary fields of a log without its entries.
func GetLog(db *sql.DB, id int64) (model.LogSummary, error) {
	var out model.LogSummary
	var goal, lastEdit string
	err := db.QueryRow(`SELECT id, title, goal, last_edit FROM logs WHERE id = ?`, id).Scan(&out.ID, &out.Title, &goal, &lastEdit)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LogSummary{}, fmt.Errorf("log %d: %w", id, ErrLogNotFound)
	}
	if err != nil {
		return model.LogSummary{}, fmt.Errorf("get log %d: %w", id, err)
	}
	out.Goal = model.GoalCategory(goal)
	out.LastEdit, err = parseTimestamp(lastEdit)
	if err != nil {
		return model.LogSummary{}, fmt.Errorf("parse log last_edit: %w", err)
	}
	return out, nil
}

func ListLogs(db *sql.DB) ([]model.LogSummary, error) {
	rows, err := db.Query(`SELECT id, title, goal, last_edit FROM logs ORDER BY last_edit DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.LogSummary, 0)
	for rows.Next() {
		var l model.LogSummary
		var goal, lastEdit string
		if err := rows.Scan(&l.ID, &l.Title, &goal, &lastEdit); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Goal = model.GoalCategory(goal)
		if l.LastEdit, err = parseTimestamp(lastEdit); err != nil {
			return nil, fmt.Errorf("parse log last_edit: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return items, nil
}

// LoadLog returns the summary together with all of its day entries.
func LoadLog(db *sql.DB, id int64) (model.LogSummary, error) {
	l, err := GetLog(db, id)
	if err != nil {
		return model.LogSummary{}, err
	}
	entries, err := ListDayEntries(db, DayEntryFilter{LogID: id})
	if err != nil {
		return model.LogSummary{}, err
	}
	l.Entries = entries
	return l, nil
}

func RenameLog(db *sql.DB, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("log title is required")
	}
	return updateLog(db, id, "rename log", `UPDATE logs SET title = ?, last_edit = ? WHERE id = ?`, title, formatTimestamp(time.Now()), id)
}

func SetLogGoal(db *sql.DB, id int64, goal model.GoalCategory) error {
	if !goal.Valid() {
		return fmt.Errorf("invalid goal %q (use fat-loss, muscle-gain or maintain)", goal)
	}
	return updateLog(db, id, "set log goal", `UPDATE logs SET goal = ?, last_edit = ? WHERE id = ?`, string(goal), formatTimestamp(time.Now()), id)
}

func DeleteLog(db *sql.DB, id int64) error {
	return updateLog(db, id, "delete log", `DELETE FROM logs WHERE id = ?`, id)
}

func ParseGoal(value string) (model.GoalCategory, error) {
	g := model.GoalCategory(strings.ToLower(strings.TrimSpace(value)))
	if g == "none" {
		g = model.GoalUnset
	}
	if !g.Valid() {
		return "", fmt.Errorf("invalid goal %q (use fat-loss, muscle-gain, maintain or none)", value)
	}
	return g, nil
}

func touchLog(tx *sql.Tx, id int64, at time.Time) error {
	res, err := tx.Exec(`UPDATE logs SET last_edit = ? WHERE id = ?`, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("touch log %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch log rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("log %d: %w", id, ErrLogNotFound)
	}
	return nil
}

func updateLog(db *sql.DB, id int64, op, query string, args ...any) error {
	res, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("log %d: %w", id, ErrLogNotFound)
	}
	return nil
}
