package executors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"autotrader/src/autotrade"
	"autotrader/src/model"
)

type fakeSignalSource struct {
	mu      sync.Mutex
	batches [][]model.Signal
	seen    []uint
	err     error
}

func (f *fakeSignalSource) FindPendingAfterID(ctx context.Context, lastID uint, limit int) ([]model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.seen = append(f.seen, lastID)
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

type fakeEnabledUsers struct {
	users []uint
	err   error
}

func (f *fakeEnabledUsers) ListEnabledUserIDs(ctx context.Context) ([]uint, error) {
	return f.users, f.err
}

type recordedCall struct {
	userID   uint
	signalID uint
}

type fakeTrader struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeTrader) ExecuteAutoTrade(ctx context.Context, userID uint, signal *model.Signal) autotrade.ExecutionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{userID: userID, signalID: signal.ID})
	return autotrade.ExecutionResult{Executed: true, Reason: "All checks passed"}
}

func newTestDispatcher(signals signalSource, users enabledUsers, trader trader) *Dispatcher {
	return NewDispatcher(signals, users, trader, Config{
		LoopPeriod: time.Millisecond,
		BatchSize:  100,
		Workers:    2,
	})
}

// Every pending signal must reach every enabled user exactly once.
func TestDispatchPendingFansOut(t *testing.T) {
	signals := &fakeSignalSource{batches: [][]model.Signal{{
		{ID: 5, Symbol: "BTCUSDT", Side: model.SignalSideLong},
		{ID: 6, Symbol: "ETHUSDT", Side: model.SignalSideShort},
	}}}
	users := &fakeEnabledUsers{users: []uint{1, 2, 3}}
	trader := &fakeTrader{}

	d := newTestDispatcher(signals, users, trader)

	if err := d.dispatchPending(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(trader.calls) != 6 {
		t.Fatalf("expected 6 executions (2 signals x 3 users), got %d", len(trader.calls))
	}

	counts := map[recordedCall]int{}
	for _, call := range trader.calls {
		counts[call]++
	}
	for userID := uint(1); userID <= 3; userID++ {
		for _, signalID := range []uint{5, 6} {
			if counts[recordedCall{userID, signalID}] != 1 {
				t.Fatalf("expected exactly one call for user %d signal %d", userID, signalID)
			}
		}
	}
}

// The dispatcher must only ask for signals newer than the last batch.
func TestDispatchPendingAdvancesCursor(t *testing.T) {
	signals := &fakeSignalSource{batches: [][]model.Signal{
		{{ID: 3}, {ID: 7}},
		{{ID: 9}},
	}}
	users := &fakeEnabledUsers{users: []uint{1}}
	trader := &fakeTrader{}

	d := newTestDispatcher(signals, users, trader)

	if err := d.dispatchPending(context.Background()); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := d.dispatchPending(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	if len(signals.seen) != 2 || signals.seen[0] != 0 || signals.seen[1] != 7 {
		t.Fatalf("expected cursor progression [0 7], got %v", signals.seen)
	}
	if d.lastID != 9 {
		t.Fatalf("expected lastID 9, got %d", d.lastID)
	}
}

// A tick with no pending signals must not hit the config store.
func TestDispatchPendingEmptyBatch(t *testing.T) {
	signals := &fakeSignalSource{}
	users := &fakeEnabledUsers{err: errors.New("should not be called")}
	trader := &fakeTrader{}

	d := newTestDispatcher(signals, users, trader)

	if err := d.dispatchPending(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(trader.calls) != 0 {
		t.Fatalf("expected no executions, got %d", len(trader.calls))
	}
}

// Query failures surface to the caller so the loop can log them.
func TestDispatchPendingSignalQueryError(t *testing.T) {
	signals := &fakeSignalSource{err: errors.New("db down")}
	users := &fakeEnabledUsers{users: []uint{1}}

	d := newTestDispatcher(signals, users, &fakeTrader{})

	if err := d.dispatchPending(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

// A failing tick must not stop the loop; the next tick still runs.
func TestRunSurvivesTickErrors(t *testing.T) {
	d := newTestDispatcher(&fakeSignalSource{}, &fakeEnabledUsers{}, &fakeTrader{})

	var mu sync.Mutex
	ticks := 0
	d.tickFunc = func(ctx context.Context) error {
		mu.Lock()
		ticks++
		n := ticks
		mu.Unlock()
		if n == 1 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := ticks
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("loop did not keep ticking after an error, got %d ticks", n)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}
}
