package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/tdee-cli/internal/service"
)

func TestMergeHealthSamplesCreatesAndFillsDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	logID := newTestLog(t, db, "cut")

	if _, err := service.UpsertDayEntry(db, service.DayEntryInput{LogID: logID, Date: mustDay(t, "2026-04-01"), Weight: floatPtr(82)}); err != nil {
		t.Fatalf("seed day: %v", err)
	}

	at := func(s string) time.Time {
		v, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return v
	}
	samples := []service.HealthSample{
		{Kind: service.HealthWeight, Value: 81.5, Unit: "kg", At: at("2026-04-01T07:00:00Z")},
		{Kind: service.HealthDietaryEnergy, Value: 900, Unit: "kcal", At: at("2026-04-01T12:00:00Z")},
		{Kind: service.HealthDietaryEnergy, Value: 1100, Unit: "kcal", At: at("2026-04-01T19:00:00Z")},
		{Kind: service.HealthWeight, Value: 180, Unit: "lb", At: at("2026-04-02T06:00:00Z")},
		{Kind: service.HealthWeight, Value: 179, Unit: "lb", At: at("2026-04-02T08:00:00Z")},
	}

	report, err := service.MergeHealthSamples(db, logID, samples, service.HealthMergeOptions{Source: "phone"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if report.Samples != 5 || report.DaysCreated != 1 || report.DaysUpdated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	day1, err := service.GetDayEntry(db, logID, mustDay(t, "2026-04-01"))
	if err != nil {
		t.Fatalf("get day1: %v", err)
	}
	if *day1.WeightKg != 82 {
		t.Fatalf("expected user weight kept without overwrite, got %f", *day1.WeightKg)
	}
	if day1.Calories == nil || *day1.Calories != 2000 {
		t.Fatalf("expected summed calories 2000, got %v", day1.Calories)
	}

	day2, err := service.GetDayEntry(db, logID, mustDay(t, "2026-04-02"))
	if err != nil {
		t.Fatalf("get day2: %v", err)
	}
	if day2.WeightKg == nil || *day2.WeightKg < 81.1 || *day2.WeightKg > 81.3 {
		t.Fatalf("expected latest weight 179lb (~81.2kg), got %v", day2.WeightKg)
	}

	var imports int
	if err := db.QueryRow(`SELECT COUNT(1) FROM health_imports WHERE source = 'phone'`).Scan(&imports); err != nil {
		t.Fatalf("count imports: %v", err)
	}
	if imports != 1 {
		t.Fatalf("expected 1 recorded import, got %d", imports)
	}

	again, err := service.MergeHealthSamples(db, logID, samples, service.HealthMergeOptions{})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if again.DaysUnchanged != 2 {
		t.Fatalf("expected repeat merge to leave both days unchanged, got %+v", again)
	}

	overwrite, err := service.MergeHealthSamples(db, logID, samples[:1], service.HealthMergeOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite merge: %v", err)
	}
	if overwrite.DaysUpdated != 1 {
		t.Fatalf("expected overwrite to update day, got %+v", overwrite)
	}
	day1, _ = service.GetDayEntry(db, logID, mustDay(t, "2026-04-01"))
	if *day1.WeightKg != 81.5 {
		t.Fatalf("expected overwritten weight 81.5, got %f", *day1.WeightKg)
	}
}

func TestDecodeHealthExportFormats(t *testing.T) {
	t.Parallel()
	yamlDoc := []byte(`
source: watch
samples:
  - kind: weight
    value: 80.2
    unit: kg
    at: 2026-04-03T07:10:00Z
`)
	out, err := service.DecodeHealthExport(yamlDoc, "yaml")
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if out.Source != "watch" || len(out.Samples) != 1 || out.Samples[0].Value != 80.2 {
		t.Fatalf("unexpected yaml decode: %+v", out)
	}
	if out.Samples[0].At.IsZero() {
		t.Fatalf("expected sample timestamp to decode")
	}

	jsonDoc := []byte(`{"source":"phone","samples":[{"kind":"dietary_energy","value":500,"unit":"kcal","at":"2026-04-03T12:00:00Z"}]}`)
	out, err = service.DecodeHealthExport(jsonDoc, "json")
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(out.Samples) != 1 || out.Samples[0].Kind != service.HealthDietaryEnergy {
		t.Fatalf("unexpected json decode: %+v", out)
	}

	if _, err := service.DecodeHealthExport(jsonDoc, "xml"); err == nil {
		t.Fatalf("expected unsupported format to fail")
	}
}

func TestMergeHealthSamplesRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	logID := newTestLog(t, db, "cut")

	_, err := service.MergeHealthSamples(db, logID, []service.HealthSample{{Kind: "steps", Value: 9000, At: time.Now()}}, service.HealthMergeOptions{})
	if err == nil {
		t.Fatalf("expected unsupported sample kind to fail")
	}
}
