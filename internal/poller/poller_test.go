package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/poller"
)

type fakeChecker struct {
	mu        sync.Mutex
	calls     int
	doneAfter int
	err       error
	finished  chan struct{}
	once      sync.Once
}

func newFakeChecker(doneAfter int, err error) *fakeChecker {
	return &fakeChecker{doneAfter: doneAfter, err: err, finished: make(chan struct{})}
}

func (f *fakeChecker) CheckSession(ctx context.Context, transactionID, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		f.signal()
		return false, f.err
	}
	if f.calls >= f.doneAfter {
		f.signal()
		return true, nil
	}
	return false, nil
}

func (f *fakeChecker) signal() {
	f.once.Do(func() { close(f.finished) })
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func shortSchedule(n int) []time.Duration {
	schedule := make([]time.Duration, n)
	for i := range schedule {
		schedule[i] = time.Millisecond
	}
	return schedule
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	checker := newFakeChecker(3, nil)
	p := poller.NewWithSchedule(checker, shortSchedule(10), logger.NewLogger())

	p.Schedule("tx-1", "cs_1")

	select {
	case <-checker.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reached a terminal status")
	}
	p.Stop()

	assert.Equal(t, 3, checker.callCount(), "polling must stop at the first terminal status")
}

func TestPollerStopsOnError(t *testing.T) {
	checker := newFakeChecker(0, errors.New("provider unreachable"))
	p := poller.NewWithSchedule(checker, shortSchedule(10), logger.NewLogger())

	p.Schedule("tx-1", "cs_1")

	select {
	case <-checker.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never ran a check")
	}
	p.Stop()

	assert.Equal(t, 1, checker.callCount(), "an error ends the sequence")
}

func TestPollerScheduleExhausted(t *testing.T) {
	checker := newFakeChecker(100, nil) // never done
	p := poller.NewWithSchedule(checker, shortSchedule(4), logger.NewLogger())

	p.Schedule("tx-1", "cs_1")
	time.Sleep(200 * time.Millisecond)
	p.Stop()

	assert.Equal(t, 4, checker.callCount(), "an unresolved session is checked once per schedule entry")
}

func TestPollerCancel(t *testing.T) {
	checker := newFakeChecker(100, nil)
	p := poller.NewWithSchedule(checker, []time.Duration{time.Hour}, logger.NewLogger())

	p.Schedule("tx-1", "cs_1")
	p.Cancel("tx-1")
	p.Stop()

	assert.Equal(t, 0, checker.callCount(), "cancel during the initial delay skips all checks")
}

func TestPollerDuplicateSchedule(t *testing.T) {
	checker := newFakeChecker(1, nil)
	p := poller.NewWithSchedule(checker, shortSchedule(1), logger.NewLogger())

	p.Schedule("tx-1", "cs_1")
	p.Schedule("tx-1", "cs_1")

	select {
	case <-checker.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never ran a check")
	}
	p.Stop()

	assert.Equal(t, 1, checker.callCount(), "a duplicate schedule is a no-op")
}
