// Package logsync merges a log's summary and entries feeds into one stream of
// combined states, each carrying the latest estimate.
package logsync

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/saadjs/tdee-cli/internal/estimator"
	"github.com/saadjs/tdee-cli/internal/feed"
	"github.com/saadjs/tdee-cli/internal/model"
)

type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingBoth
	StateReady
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingBoth:
		return "awaiting-both"
	case StateReady:
		return "ready"
	}
	return "idle"
}

// State is what subscribers receive. The zero State is the placeholder sent
// before anything is known, and after a feed failure.
type State struct {
	Log      *model.LogSummary
	Estimate *estimator.Payload
}

// Ready reports whether both halves of the state are present.
func (s State) Ready() bool {
	return s.Log != nil && s.Estimate != nil
}

type SummaryFeed interface {
	SubscribeSummary(logID int64, fn func(feed.SummaryDelta, error)) feed.Subscription
}

type EntriesFeed interface {
	SubscribeEntries(logID int64, fn func([]model.DayEntry, error)) feed.Subscription
}

type Options struct {
	Summaries SummaryFeed
	Entries   EntriesFeed
	Estimator estimator.Estimator
	Logger    zerolog.Logger
	// OnError receives estimation failures. Feed failures are absorbed into
	// the state instead.
	OnError func(error)
}

// Service owns at most one subscription session at a time.
type Service struct {
	opts Options

	mu   sync.Mutex
	sess *session
	gen  uint64
}

func New(opts Options) *Service {
	if opts.Estimator == nil {
		opts.Estimator = estimator.Offline{}
	}
	return &Service{opts: opts}
}

// SetLogSubscription returns the state stream for logID. Asking again for the
// log of the live session returns the same stream; any other id tears the
// current session down and starts a new one.
func (s *Service) SetLogSubscription(logID int64) *feed.Broker[State] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil && s.sess.logID == logID && !s.sess.stream.Closed() {
		return s.sess.stream
	}
	if s.sess != nil {
		s.sess.teardown()
	}

	s.gen++
	sess := newSession(s.opts, logID, s.gen)
	s.sess = sess
	sessionsStarted.Inc()
	go sess.run()

	sess.summarySub = s.opts.Summaries.SubscribeSummary(logID, sess.onSummary)
	sess.entriesSub = s.opts.Entries.SubscribeEntries(logID, sess.onEntries)
	return sess.stream
}

// Current reports the live session's state machine position and the last
// state it published.
func (s *Service) Current() (SessionState, State) {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()
	if sess == nil {
		return StateIdle, State{}
	}
	return sess.snapshot()
}

// Close tears down the live session and waits for its event loop to exit.
func (s *Service) Close() {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()
	if sess == nil {
		return
	}
	sess.teardown()
	<-sess.exited
}

type eventKind int

const (
	summaryDelivered eventKind = iota
	entriesDelivered
)

type event struct {
	kind    eventKind
	summary feed.SummaryDelta
	entries []model.DayEntry
	err     error
}

type session struct {
	logID     int64
	gen       uint64
	estimator estimator.Estimator
	log       zerolog.Logger
	onError   func(error)

	stream *feed.Broker[State]
	events chan event
	done   chan struct{}
	exited chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	summarySub feed.Subscription
	entriesSub feed.Subscription

	// owned by the event loop
	working    *model.LogSummary
	pending    []model.DayEntry
	gotSummary bool
	gotEntries bool

	mu     sync.Mutex
	state  SessionState
	latest State
}

func newSession(opts Options, logID int64, gen uint64) *session {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		logID:     logID,
		gen:       gen,
		estimator: opts.Estimator,
		log:       opts.Logger.With().Int64("log_id", logID).Uint64("session", gen).Logger(),
		onError:   opts.OnError,
		stream:    feed.NewReplayBroker[State](),
		events:    make(chan event, 16),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateAwaitingBoth,
	}
	sess.stream.Publish(State{})
	return sess
}

func (s *session) onSummary(d feed.SummaryDelta, err error) {
	s.deliver(event{kind: summaryDelivered, summary: d, err: err})
}

func (s *session) onEntries(entries []model.DayEntry, err error) {
	s.deliver(event{kind: entriesDelivered, entries: cloneEntries(entries), err: err})
}

func (s *session) deliver(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *session) run() {
	defer close(s.exited)
	s.log.Debug().Msg("log session started")
	for {
		select {
		case <-s.done:
			s.log.Debug().Msg("log session stopped")
			return
		case ev := <-s.events:
			s.apply(ev)
		}
	}
}

func (s *session) apply(ev event) {
	switch ev.kind {
	case summaryDelivered:
		s.gotSummary = true
		s.mergeSummary(ev)
	case entriesDelivered:
		s.gotEntries = true
		s.mergeEntries(ev)
	}
	if !s.gotSummary || !s.gotEntries {
		return
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.log.Debug().Msg("log session ready")
	}
	s.state = StateReady
	s.mu.Unlock()
	s.recompute()
}

func (s *session) mergeSummary(ev event) {
	if ev.err != nil {
		feedFailures.WithLabelValues("summary").Inc()
		s.log.Warn().Err(ev.err).Msg("summary feed failed")
		s.working = nil
		return
	}
	d := ev.summary
	if s.working == nil {
		s.working = &model.LogSummary{ID: d.ID, Title: d.Title, Goal: d.Goal, LastEdit: d.LastEdit, Entries: s.pending}
		s.pending = nil
		return
	}
	s.working.ID = d.ID
	s.working.Title = d.Title
	s.working.LastEdit = d.LastEdit
}

func (s *session) mergeEntries(ev event) {
	if ev.err != nil {
		feedFailures.WithLabelValues("entries").Inc()
		s.log.Warn().Err(ev.err).Msg("entries feed failed")
		s.working = nil
		s.pending = nil
		return
	}
	if len(ev.entries) == 0 {
		return
	}
	if s.working == nil {
		// Held until the summary creates the working copy.
		s.pending = ev.entries
		return
	}
	s.working.Entries = ev.entries
}

func (s *session) recompute() {
	if s.working == nil {
		s.publish(State{})
		return
	}
	snapshot := cloneLog(*s.working)
	payload, err := s.estimator.Estimate(s.ctx, snapshot)
	if s.stopped() {
		s.log.Debug().Msg("dropping estimate for a closed session")
		return
	}
	if err != nil {
		estimatorErrors.Inc()
		s.log.Error().Err(err).Msg("estimate failed")
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	s.publish(State{Log: &snapshot, Estimate: payload})
}

func (s *session) publish(st State) {
	s.mu.Lock()
	s.latest = st
	s.mu.Unlock()
	statesPublished.Inc()
	s.stream.Publish(st)
}

func (s *session) snapshot() (SessionState, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.latest
}

func (s *session) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *session) teardown() {
	s.once.Do(func() {
		if s.summarySub != nil {
			s.summarySub.Unsubscribe()
		}
		if s.entriesSub != nil {
			s.entriesSub.Unsubscribe()
		}
		close(s.done)
		s.cancel()
		s.stream.Close()
	})
}

func cloneLog(l model.LogSummary) model.LogSummary {
	l.Entries = cloneEntries(l.Entries)
	return l
}

func cloneEntries(entries []model.DayEntry) []model.DayEntry {
	if entries == nil {
		return nil
	}
	return append([]model.DayEntry(nil), entries...)
}
