package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/period"
)

const (
	PrefPeriodDays = "period_days"
	PrefOrder      = "order"
	PrefWeightUnit = "weight_unit"
	PrefEnergyUnit = "energy_unit"
)

var preferenceKeys = []string{PrefPeriodDays, PrefOrder, PrefWeightUnit, PrefEnergyUnit}

func PreferenceKeys() []string {
	return append([]string(nil), preferenceKeys...)
}

// SetPreference validates and stores one of the known preference keys.
func SetPreference(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)
	normalized, err := normalizePreference(key, value)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
INSERT INTO preferences(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, normalized)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

// GetPreferences returns the stored preferences layered over the defaults.
func GetPreferences(db *sql.DB) (model.Preferences, error) {
	prefs := model.DefaultPreferences()
	rows, err := db.Query(`SELECT key, value FROM preferences ORDER BY key ASC`)
	if err != nil {
		return prefs, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, fmt.Errorf("scan preference: %w", err)
		}
		switch key {
		case PrefPeriodDays:
			n, err := strconv.Atoi(value)
			if err == nil && n > 0 {
				prefs.PeriodDays = n
			}
		case PrefOrder:
			prefs.Order = value
		case PrefWeightUnit:
			prefs.WeightUnit = model.WeightUnit(value)
		case PrefEnergyUnit:
			prefs.EnergyUnit = model.EnergyUnit(value)
		}
	}
	if err := rows.Err(); err != nil {
		return prefs, fmt.Errorf("iterate preferences: %w", err)
	}
	return prefs, nil
}

func normalizePreference(key, value string) (string, error) {
	switch key {
	case PrefPeriodDays:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%s must be a positive number of days", key)
		}
		return strconv.Itoa(n), nil
	case PrefOrder:
		d, err := period.ParseDirection(value)
		if err != nil {
			return "", err
		}
		return string(d), nil
	case PrefWeightUnit:
		u, err := ParseWeightUnit(value)
		if err != nil {
			return "", err
		}
		return string(u), nil
	case PrefEnergyUnit:
		u, err := ParseEnergyUnit(value)
		if err != nil {
			return "", err
		}
		return string(u), nil
	case "":
		return "", fmt.Errorf("preference key is required")
	}
	return "", fmt.Errorf("unknown preference %q (known: %s)", key, strings.Join(preferenceKeys, ", "))
}
