package logsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/tdee-cli/internal/estimator"
	"github.com/saadjs/tdee-cli/internal/feed"
	"github.com/saadjs/tdee-cli/internal/model"
)

type fakeSub struct {
	id   uuid.UUID
	stop func()
}

func (s *fakeSub) ID() uuid.UUID { return s.id }
func (s *fakeSub) Unsubscribe() { s.stop() }

// fakeFeeds lets a test decide when, and in which order, each feed delivers.
type fakeFeeds struct {
	mu        sync.Mutex
	summaries map[int64]func(feed.SummaryDelta, error)
	entries   map[int64]func([]model.DayEntry, error)
}

func newFakeFeeds() *fakeFeeds {
	return &fakeFeeds{
		summaries: map[int64]func(feed.SummaryDelta, error){},
		entries:   map[int64]func([]model.DayEntry, error){},
	}
}

func (f *fakeFeeds) SubscribeSummary(logID int64, fn func(feed.SummaryDelta, error)) feed.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[logID] = fn
	return &fakeSub{id: uuid.New(), stop: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.summaries, logID)
	}}
}

func (f *fakeFeeds) SubscribeEntries(logID int64, fn func([]model.DayEntry, error)) feed.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[logID] = fn
	return &fakeSub{id: uuid.New(), stop: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.entries, logID)
	}}
}

func (f *fakeFeeds) sendSummary(logID int64, d feed.SummaryDelta, err error) {
	f.mu.Lock()
	fn := f.summaries[logID]
	f.mu.Unlock()
	if fn != nil {
		fn(d, err)
	}
}

func (f *fakeFeeds) sendEntries(logID int64, e []model.DayEntry, err error) {
	f.mu.Lock()
	fn := f.entries[logID]
	f.mu.Unlock()
	if fn != nil {
		fn(e, err)
	}
}

func (f *fakeFeeds) subscribed(logID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.summaries[logID]
	_, e := f.entries[logID]
	return s || e
}

type countingEstimator struct {
	mu    sync.Mutex
	calls int
	fail  error
	block chan struct{}
}

func (c *countingEstimator) Estimate(ctx context.Context, l model.LogSummary) (*estimator.Payload, error) {
	c.mu.Lock()
	c.calls++
	fail, block := c.fail, c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	if fail != nil {
		return nil, fail
	}
	return &estimator.Payload{Estimate: float64(2000 + len(l.Entries)), Confidence: "test"}, nil
}

func (c *countingEstimator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func entries(dates ...string) []model.DayEntry {
	out := make([]model.DayEntry, 0, len(dates))
	for i, d := range dates {
		out = append(out, model.DayEntry{ID: int64(i + 1), LogID: 1, Date: day(d)})
	}
	return out
}

// collect records every state the stream publishes, placeholder included.
func collect(t *testing.T, stream *feed.Broker[State]) func() []State {
	t.Helper()
	var mu sync.Mutex
	var got []State
	stream.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	})
	return func() []State {
		mu.Lock()
		defer mu.Unlock()
		return append([]State(nil), got...)
	}
}

func readyStates(states []State) []State {
	out := make([]State, 0, len(states))
	for _, s := range states {
		if s.Ready() {
			out = append(out, s)
		}
	}
	return out
}

func newService(t *testing.T, feeds *fakeFeeds, est estimator.Estimator, onError func(error)) *Service {
	t.Helper()
	svc := New(Options{Summaries: feeds, Entries: feeds, Estimator: est, Logger: zerolog.Nop(), OnError: onError})
	t.Cleanup(svc.Close)
	return svc
}

func TestMergeIsIndependentOfArrivalOrder(t *testing.T) {
	t.Parallel()
	delta := feed.SummaryDelta{ID: 1, Title: "cut", Goal: model.GoalFatLoss, LastEdit: day("2026-01-10")}
	items := entries("2026-01-01", "2026-01-03")

	run := func(summaryFirst bool) State {
		feeds := newFakeFeeds()
		svc := newService(t, feeds, &countingEstimator{}, nil)
		got := collect(t, svc.SetLogSubscription(1))

		if summaryFirst {
			feeds.sendSummary(1, delta, nil)
			feeds.sendEntries(1, items, nil)
		} else {
			feeds.sendEntries(1, items, nil)
			feeds.sendSummary(1, delta, nil)
		}
		require.Eventually(t, func() bool { return len(readyStates(got())) == 1 }, time.Second, 5*time.Millisecond)
		return readyStates(got())[0]
	}

	a := run(true)
	b := run(false)
	assert.Equal(t, a.Log, b.Log)
	assert.Equal(t, a.Estimate, b.Estimate)
	assert.Equal(t, "cut", a.Log.Title)
	assert.Len(t, a.Log.Entries, 2)
	assert.Equal(t, 2002.0, a.Estimate.Estimate)
}

func TestEntriesFirstStaysAwaitingUntilSummary(t *testing.T) {
	t.Parallel()
	feeds := newFakeFeeds()
	est := &countingEstimator{}
	svc := newService(t, feeds, est, nil)
	got := collect(t, svc.SetLogSubscription(1))

	state, _ := svc.Current()
	assert.Equal(t, StateAwaitingBoth, state)

	feeds.sendEntries(1, entries("2026-02-01"), nil)
	time.Sleep(30 * time.Millisecond)
	state, _ = svc.Current()
	assert.Equal(t, StateAwaitingBoth, state)
	assert.Empty(t, readyStates(got()))
	assert.Zero(t, est.callCount())

	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "bulk"}, nil)
	require.Eventually(t, func() bool { return len(readyStates(got())) == 1 }, time.Second, 5*time.Millisecond)

	state, latest := svc.Current()
	assert.Equal(t, StateReady, state)
	assert.Equal(t, "bulk", latest.Log.Title)
	assert.Len(t, latest.Log.Entries, 1)
}

func TestEveryDeltaAfterReadyRepublishes(t *testing.T) {
	t.Parallel()
	feeds := newFakeFeeds()
	svc := newService(t, feeds, &countingEstimator{}, nil)
	got := collect(t, svc.SetLogSubscription(1))

	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "cut", Goal: model.GoalFatLoss}, nil)
	feeds.sendEntries(1, entries("2026-01-01"), nil)
	feeds.sendEntries(1, entries("2026-01-01", "2026-01-02"), nil)
	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "spring cut", Goal: model.GoalMaintain}, nil)
	feeds.sendEntries(1, nil, nil)

	require.Eventually(t, func() bool { return len(readyStates(got())) == 4 }, time.Second, 5*time.Millisecond)
	states := readyStates(got())
	last := states[3]
	assert.Equal(t, "spring cut", last.Log.Title)
	assert.Equal(t, model.GoalFatLoss, last.Log.Goal, "summary deltas after adoption only touch title, id and last edit")
	assert.Len(t, last.Log.Entries, 2, "an empty entries delivery keeps the attached entries")
	assert.Len(t, states[1].Log.Entries, 2)
}

func TestFeedErrorResetsWorkingCopyAndStillLatches(t *testing.T) {
	t.Parallel()
	feeds := newFakeFeeds()
	est := &countingEstimator{}
	svc := newService(t, feeds, est, nil)
	got := collect(t, svc.SetLogSubscription(1))

	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "cut"}, nil)
	feeds.sendEntries(1, nil, errors.New("malformed payload"))

	require.Eventually(t, func() bool {
		state, _ := svc.Current()
		return state == StateReady
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(got()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, State{}, got()[1])
	assert.Zero(t, est.callCount())

	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "cut again"}, nil)
	require.Eventually(t, func() bool { return len(readyStates(got())) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "cut again", readyStates(got())[0].Log.Title)
	assert.Empty(t, readyStates(got())[0].Log.Entries)
}

func TestEstimatorFailureIsReportedNotPublished(t *testing.T) {
	feeds := newFakeFeeds()
	est := &countingEstimator{fail: errors.New("service down")}
	var mu sync.Mutex
	var reported []error
	svc := newService(t, feeds, est, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	})
	before := testutil.ToFloat64(estimatorErrors)
	got := collect(t, svc.SetLogSubscription(1))

	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "cut"}, nil)
	feeds.sendEntries(1, entries("2026-01-01"), nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, readyStates(got()))
	assert.Equal(t, before+1, testutil.ToFloat64(estimatorErrors))
}

func TestSameLogReusesStreamAndNewLogRestarts(t *testing.T) {
	t.Parallel()
	feeds := newFakeFeeds()
	svc := newService(t, feeds, &countingEstimator{}, nil)

	first := svc.SetLogSubscription(1)
	assert.Same(t, first, svc.SetLogSubscription(1))
	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "one"}, nil)
	feeds.sendEntries(1, entries("2026-01-01"), nil)
	require.Eventually(t, func() bool {
		state, _ := svc.Current()
		return state == StateReady
	}, time.Second, 5*time.Millisecond)

	second := svc.SetLogSubscription(2)
	assert.NotSame(t, first, second)
	assert.True(t, first.Closed())
	assert.False(t, feeds.subscribed(1))
	assert.True(t, feeds.subscribed(2))

	state, latest := svc.Current()
	assert.Equal(t, StateAwaitingBoth, state)
	assert.Nil(t, latest.Log)

	got := collect(t, second)
	feeds.sendSummary(2, feed.SummaryDelta{ID: 2, Title: "two"}, nil)
	feeds.sendEntries(2, entries("2026-03-01"), nil)
	require.Eventually(t, func() bool { return len(readyStates(got())) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), readyStates(got())[0].Log.ID)
}

func TestTeardownDropsInFlightEstimate(t *testing.T) {
	t.Parallel()
	feeds := newFakeFeeds()
	block := make(chan struct{})
	est := &countingEstimator{block: block}
	svc := New(Options{Summaries: feeds, Entries: feeds, Estimator: est, Logger: zerolog.Nop()})

	stream := svc.SetLogSubscription(1)
	got := collect(t, stream)
	feeds.sendSummary(1, feed.SummaryDelta{ID: 1, Title: "slow"}, nil)
	feeds.sendEntries(1, entries("2026-01-01"), nil)
	require.Eventually(t, func() bool { return est.callCount() == 1 }, time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		svc.Close()
		close(closed)
	}()
	require.Eventually(t, stream.Closed, time.Second, 5*time.Millisecond)
	close(block)
	<-closed

	assert.Empty(t, readyStates(got()))
	state, _ := svc.Current()
	assert.Equal(t, StateIdle, state)
}

func TestPlaceholderIsReplayedToLateSubscribers(t *testing.T) {
	t.Parallel()
	svc := newService(t, newFakeFeeds(), nil, nil)
	got := collect(t, svc.SetLogSubscription(5))
	require.Len(t, got(), 1)
	assert.False(t, got()[0].Ready())
}
