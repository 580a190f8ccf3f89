package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HealthSampleKind string

const (
	HealthWeight        HealthSampleKind = "weight"
	HealthDietaryEnergy HealthSampleKind = "dietary_energy"
)

const (
	defaultHealthSource  = "health-export"
	healthWeightUnitBase = "kg"
	healthEnergyUnitBase = "kcal"
)

// HealthSample is one reading exported from a phone health store.
type HealthSample struct {
	Kind  HealthSampleKind `json:"kind" yaml:"kind"`
	Value float64          `json:"value" yaml:"value"`
	Unit  string           `json:"unit" yaml:"unit"`
	At    time.Time        `json:"at" yaml:"at"`
}

type HealthExport struct {
	Source  string         `json:"source" yaml:"source"`
	Samples []HealthSample `json:"samples" yaml:"samples"`
}

type HealthMergeOptions struct {
	Source    string
	Overwrite bool
	DryRun    bool
}

type HealthMergeReport struct {
	Samples       int `json:"samples"`
	DaysCreated   int `json:"days_created"`
	DaysUpdated   int `json:"days_updated"`
	DaysUnchanged int `json:"days_unchanged"`
}

// DecodeHealthExport reads a health export in json or yaml.
func DecodeHealthExport(raw []byte, format string) (HealthExport, error) {
	var out HealthExport
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		if err := json.Unmarshal(raw, &out); err != nil {
			return HealthExport{}, fmt.Errorf("parse health json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return HealthExport{}, fmt.Errorf("parse health yaml: %w", err)
		}
	default:
		return HealthExport{}, fmt.Errorf("unsupported health format %q (use json or yaml)", format)
	}
	return out, nil
}

type healthDay struct {
	date       time.Time
	weightKg   *float64
	weightAt   time.Time
	energyKcal *float64
}

// MergeHealthSamples folds samples into a log's days. The latest weight of a
// day wins and dietary energy is summed. Existing values are only replaced
// when Overwrite is set.
func MergeHealthSamples(db *sql.DB, logID int64, samples []HealthSample, opts HealthMergeOptions) (HealthMergeReport, error) {
	report := HealthMergeReport{Samples: len(samples)}
	if _, err := GetLog(db, logID); err != nil {
		return report, err
	}

	days, err := groupHealthSamples(samples)
	if err != nil {
		return report, err
	}

	for _, d := range days {
		existing, err := GetDayEntry(db, logID, d.date)
		found := err == nil
		if err != nil && !errors.Is(err, ErrDayNotFound) {
			return report, err
		}

		in := DayEntryInput{LogID: logID, Date: d.date, WeightUnit: healthWeightUnitBase, EnergyUnit: healthEnergyUnitBase}
		if d.weightKg != nil && (!found || existing.WeightKg == nil || opts.Overwrite) {
			in.Weight = d.weightKg
		}
		if d.energyKcal != nil && (!found || existing.Calories == nil || opts.Overwrite) {
			in.Calories = d.energyKcal
		}
		if in.Weight == nil && in.Calories == nil {
			report.DaysUnchanged++
			continue
		}
		if found {
			report.DaysUpdated++
		} else {
			report.DaysCreated++
		}
		if opts.DryRun {
			continue
		}
		if _, err := UpsertDayEntry(db, in); err != nil {
			return report, fmt.Errorf("merge health day %s: %w", FormatDay(d.date), err)
		}
	}

	if opts.DryRun {
		return report, nil
	}
	source := strings.TrimSpace(opts.Source)
	if source == "" {
		source = defaultHealthSource
	}
	if _, err := db.Exec(`
INSERT INTO health_imports(log_id, source, samples, days_created, days_updated)
VALUES(?, ?, ?, ?, ?)
`, logID, source, report.Samples, report.DaysCreated, report.DaysUpdated); err != nil {
		return report, fmt.Errorf("record health import: %w", err)
	}
	return report, nil
}

func groupHealthSamples(samples []HealthSample) ([]*healthDay, error) {
	byDay := map[string]*healthDay{}
	for i, s := range samples {
		if s.At.IsZero() {
			return nil, fmt.Errorf("sample %d: timestamp is required", i)
		}
		date := CivilDay(s.At)
		key := FormatDay(date)
		d, ok := byDay[key]
		if !ok {
			d = &healthDay{date: date}
			byDay[key] = d
		}
		switch HealthSampleKind(strings.ToLower(string(s.Kind))) {
		case HealthWeight:
			kg, err := ConvertWeightToKg(s.Value, s.Unit)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			if d.weightKg == nil || !s.At.Before(d.weightAt) {
				d.weightKg = &kg
				d.weightAt = s.At
			}
		case HealthDietaryEnergy:
			kcal, err := EnergyToKcal(s.Value, s.Unit)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			total := float64(kcal)
			if d.energyKcal != nil {
				total += *d.energyKcal
			}
			d.energyKcal = &total
		default:
			return nil, fmt.Errorf("sample %d: unsupported kind %q", i, s.Kind)
		}
	}

	out := make([]*healthDay, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].date.Before(out[j].date)
	})
	return out, nil
}
