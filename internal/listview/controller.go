// Package listview keeps the period list of one log current as combined
// states arrive.
package listview

import (
	"sync"
	"time"

	"github.com/saadjs/tdee-cli/internal/estimator"
	"github.com/saadjs/tdee-cli/internal/feed"
	"github.com/saadjs/tdee-cli/internal/logsync"
	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/period"
	"github.com/saadjs/tdee-cli/internal/service"
)

type Config struct {
	// PeriodLength of one day selects day granularity.
	PeriodLength time.Duration
	Order        period.Direction
	Now          func() time.Time
}

type Controller struct {
	now func() time.Time

	mu        sync.Mutex
	length    time.Duration
	order     period.Direction
	snapshot  *model.LogSummary
	estimate  *estimator.Payload
	periods   []period.Period
	listeners []func()
}

func New(cfg Config) *Controller {
	if cfg.PeriodLength <= 0 {
		cfg.PeriodLength = period.Day
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{now: cfg.Now, length: cfg.PeriodLength, order: cfg.Order}
}

// Attach follows a state stream. States missing either the log or the
// estimate are ignored.
func (c *Controller) Attach(stream *feed.Broker[logsync.State]) feed.Subscription {
	return stream.Subscribe(c.Show)
}

// Show stores a ready state and rebuilds the periods from it.
func (c *Controller) Show(st logsync.State) {
	if !st.Ready() {
		return
	}
	c.mu.Lock()
	c.snapshot = st.Log
	c.estimate = st.Estimate
	c.rebuildLocked()
	c.mu.Unlock()
	c.notify()
}

// Refresh re-runs the split and order against the stored snapshot.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.rebuildLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) SetPeriodLength(length time.Duration) {
	if length <= 0 {
		length = period.Day
	}
	c.mu.Lock()
	c.length = length
	c.rebuildLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) SetOrder(d period.Direction) {
	c.mu.Lock()
	c.order = d
	c.rebuildLocked()
	c.mu.Unlock()
	c.notify()
}

// OnChange registers fn to run after every rebuild.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) CurrentGranularity() period.Granularity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return period.GranularityFor(c.length)
}

func (c *Controller) CurrentOrder() period.Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order
}

func (c *Controller) PeriodLength() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length
}

// AutoPromptDate is the day after the latest entry, or today when the log
// has no entries yet.
func (c *Controller) AutoPromptDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	var latest time.Time
	if c.snapshot != nil {
		for _, e := range c.snapshot.Entries {
			if e.Date.After(latest) {
				latest = e.Date
			}
		}
	}
	if latest.IsZero() {
		return service.CivilDay(c.now())
	}
	return latest.AddDate(0, 0, 1)
}

// Periods returns a copy of the current period list; nil before the first
// ready state.
func (c *Controller) Periods() []period.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.periods == nil {
		return nil
	}
	out := make([]period.Period, len(c.periods))
	for i, p := range c.periods {
		out[i] = p
		out[i].Entries = append([]model.DayEntry(nil), p.Entries...)
	}
	return out
}

func (c *Controller) Snapshot() *model.LogSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil
	}
	l := *c.snapshot
	l.Entries = append([]model.DayEntry(nil), c.snapshot.Entries...)
	return &l
}

func (c *Controller) Estimate() *estimator.Payload {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.estimate == nil {
		return nil
	}
	p := *c.estimate
	return &p
}

func (c *Controller) rebuildLocked() {
	if c.snapshot == nil {
		return
	}
	periods := period.Split(c.snapshot.Entries, c.length, c.now())
	period.Order(periods, period.GranularityFor(c.length), c.order)
	c.periods = periods
}

func (c *Controller) notify() {
	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
