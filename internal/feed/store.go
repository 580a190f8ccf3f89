package feed

import (
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saadjs/tdee-cli/internal/model"
	"github.com/saadjs/tdee-cli/internal/service"
)

// SummaryDelta is the partial log update carried by the summary feed.
type SummaryDelta struct {
	ID       int64
	Title    string
	Goal     model.GoalCategory
	LastEdit time.Time
}

type summaryEvent struct {
	delta SummaryDelta
	err   error
}

type entriesEvent struct {
	entries []model.DayEntry
	err     error
}

type logFeeds struct {
	summary *Broker[summaryEvent]
	entries *Broker[entriesEvent]
}

// Store serves per-log summary and entries feeds from the database. Each
// subscriber gets the current value immediately and again on every Refresh.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	mu    sync.Mutex
	feeds map[int64]*logFeeds

	// serializes reads so subscribers never see an older read after a newer one
	reads sync.Mutex
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, log: logger, feeds: map[int64]*logFeeds{}}
}

func (s *Store) SubscribeSummary(logID int64, fn func(SummaryDelta, error)) Subscription {
	s.reads.Lock()
	defer s.reads.Unlock()

	f := s.feedsFor(logID)
	delta, err := s.readSummary(logID)
	fn(delta, err)
	sub := f.summary.Subscribe(func(ev summaryEvent) { fn(ev.delta, ev.err) })
	return &storeSubscription{Subscription: sub, release: func() { s.release(logID) }}
}

func (s *Store) SubscribeEntries(logID int64, fn func([]model.DayEntry, error)) Subscription {
	s.reads.Lock()
	defer s.reads.Unlock()

	f := s.feedsFor(logID)
	entries, err := s.readEntries(logID)
	fn(entries, err)
	sub := f.entries.Subscribe(func(ev entriesEvent) { fn(ev.entries, ev.err) })
	return &storeSubscription{Subscription: sub, release: func() { s.release(logID) }}
}

// Refresh re-reads one log and pushes the result to its live subscribers.
func (s *Store) Refresh(logID int64) {
	s.reads.Lock()
	defer s.reads.Unlock()

	s.mu.Lock()
	f, ok := s.feeds[logID]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.push(logID, f)
}

func (s *Store) RefreshAll() {
	s.reads.Lock()
	defer s.reads.Unlock()

	s.mu.Lock()
	live := make(map[int64]*logFeeds, len(s.feeds))
	for id, f := range s.feeds {
		live[id] = f
	}
	s.mu.Unlock()

	for id, f := range live {
		s.push(id, f)
	}
}

func (s *Store) push(logID int64, f *logFeeds) {
	if f.summary.Len() > 0 {
		delta, err := s.readSummary(logID)
		f.summary.Publish(summaryEvent{delta: delta, err: err})
	}
	if f.entries.Len() > 0 {
		entries, err := s.readEntries(logID)
		f.entries.Publish(entriesEvent{entries: entries, err: err})
	}
}

func (s *Store) readSummary(logID int64) (SummaryDelta, error) {
	l, err := service.GetLog(s.db, logID)
	if err != nil {
		s.log.Debug().Err(err).Int64("log_id", logID).Msg("summary feed read failed")
		return SummaryDelta{}, err
	}
	return SummaryDelta{ID: l.ID, Title: l.Title, Goal: l.Goal, LastEdit: l.LastEdit}, nil
}

func (s *Store) readEntries(logID int64) ([]model.DayEntry, error) {
	if _, err := service.GetLog(s.db, logID); err != nil {
		s.log.Debug().Err(err).Int64("log_id", logID).Msg("entries feed read failed")
		return nil, err
	}
	entries, err := service.ListDayEntries(s.db, service.DayEntryFilter{LogID: logID})
	if err != nil {
		s.log.Debug().Err(err).Int64("log_id", logID).Msg("entries feed read failed")
		return nil, err
	}
	return entries, nil
}

func (s *Store) feedsFor(logID int64) *logFeeds {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feeds[logID]
	if !ok {
		f = &logFeeds{summary: NewBroker[summaryEvent](), entries: NewBroker[entriesEvent]()}
		s.feeds[logID] = f
	}
	return f
}

func (s *Store) release(logID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feeds[logID]
	if !ok {
		return
	}
	if f.summary.Len() == 0 && f.entries.Len() == 0 {
		delete(s.feeds, logID)
	}
}

type storeSubscription struct {
	Subscription
	release func()
}

func (s *storeSubscription) Unsubscribe() {
	s.Subscription.Unsubscribe()
	s.release()
}
