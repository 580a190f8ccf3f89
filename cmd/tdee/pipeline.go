package tdee

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saadjs/tdee-cli/internal/feed"
	"github.com/saadjs/tdee-cli/internal/listview"
	"github.com/saadjs/tdee-cli/internal/logsync"
	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/period"
)

type viewOptions struct {
	periodDays int
	order      string
	offline    bool
}

// liveView wires the feeds of one log through the aggregator into a list
// view controller.
type liveView struct {
	store *feed.Store
	sync  *logsync.Service
	ctrl  *listview.Controller
	sub   feed.Subscription
	prefs model.Preferences
}

func resolveViewPrefs(prefs model.Preferences, opts viewOptions) (model.Preferences, period.Direction, error) {
	if opts.periodDays > 0 {
		prefs.PeriodDays = opts.periodDays
	}
	if opts.order != "" {
		prefs.Order = opts.order
	}
	order, err := period.ParseDirection(prefs.Order)
	if err != nil {
		return prefs, period.Unset, err
	}
	if prefs.PeriodDays <= 0 {
		return prefs, period.Unset, fmt.Errorf("period length must be at least one day")
	}
	return prefs, order, nil
}

// onChange runs on the aggregator's goroutine after every rebuild of the view.
func startLiveView(sqldb *sql.DB, logID int64, prefs model.Preferences, opts viewOptions, onChange func(*listview.Controller), onError func(error)) (*liveView, error) {
	prefs, order, err := resolveViewPrefs(prefs, opts)
	if err != nil {
		return nil, err
	}
	est, err := newEstimator(opts.offline)
	if err != nil {
		return nil, err
	}

	store := feed.NewStore(sqldb, log)
	svc := logsync.New(logsync.Options{
		Summaries: store,
		Entries:   store,
		Estimator: est,
		Logger:    log,
		OnError:   onError,
	})
	ctrl := listview.New(listview.Config{
		PeriodLength: period.Days(prefs.PeriodDays),
		Order:        order,
		Now:          time.Now,
	})
	if onChange != nil {
		ctrl.OnChange(func() { onChange(ctrl) })
	}
	v := &liveView{store: store, sync: svc, ctrl: ctrl, prefs: prefs}
	v.sub = ctrl.Attach(svc.SetLogSubscription(logID))
	return v, nil
}

func (v *liveView) Close() {
	v.sub.Unsubscribe()
	v.sync.Close()
}
