// Package estimator calls out to the remote energy-expenditure service.
package estimator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/saadjs/tdee-cli/internal/model"
)

// Payload is the estimation result. Raw keeps the full response body; only
// the fields below are interpreted.
type Payload struct {
	Estimate   float64         `json:"estimate"`
	LatestDate time.Time       `json:"latest_date"`
	Confidence string          `json:"confidence,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

type Estimator interface {
	Estimate(ctx context.Context, log model.LogSummary) (*Payload, error)
}

// Offline stands in when no estimation service is configured. It reports the
// latest entry date and no estimate.
type Offline struct{}

func (Offline) Estimate(_ context.Context, log model.LogSummary) (*Payload, error) {
	return &Payload{LatestDate: latestDate(log.Entries), Confidence: "offline"}, nil
}

func latestDate(entries []model.DayEntry) time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest
}
