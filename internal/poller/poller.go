package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
)

// SessionChecker re-queries the provider for one session and applies any
// status change. done reports that a terminal status was observed and no
// further checks are needed.
type SessionChecker interface {
	CheckSession(ctx context.Context, transactionID, sessionID string) (done bool, err error)
}

// DefaultSchedule staggers re-checks from seconds out to roughly one day.
// The first entry is the initial delay after session creation.
var DefaultSchedule = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	2 * time.Minute,
	3 * time.Minute,
	4 * time.Minute,
	5 * time.Minute,
	6 * time.Minute,
	7 * time.Minute,
	8 * time.Minute,
	9 * time.Minute,
	10 * time.Minute,
	11 * time.Minute,
	12 * time.Minute,
	13 * time.Minute,
	14 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
	5 * time.Hour,
	24 * time.Hour,
}

// Poller runs one cancellable re-check sequence per pending session
// transaction. No webhook is wired for the session provider, so this is the
// only path that discovers asynchronous status changes.
type Poller struct {
	checker  SessionChecker
	schedule []time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func New(checker SessionChecker, log *logger.Logger) *Poller {
	return &Poller{
		checker:  checker,
		schedule: DefaultSchedule,
		log:      log,
		active:   make(map[string]context.CancelFunc),
	}
}

// NewWithSchedule is used by tests to shrink the delays.
func NewWithSchedule(checker SessionChecker, schedule []time.Duration, log *logger.Logger) *Poller {
	p := New(checker, log)
	p.schedule = schedule
	return p
}

// Schedule starts the re-check sequence for a transaction. Scheduling the
// same transaction twice is a no-op.
func (p *Poller) Schedule(transactionID, sessionID string) {
	p.mu.Lock()
	if _, exists := p.active[transactionID]; exists {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.active[transactionID] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx, transactionID, sessionID)
}

func (p *Poller) run(ctx context.Context, transactionID, sessionID string) {
	defer p.wg.Done()
	defer p.remove(transactionID)

	for _, delay := range p.schedule {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		done, err := p.checker.CheckSession(ctx, transactionID, sessionID)
		if err != nil {
			// Transient provider errors end this sequence; a user-initiated
			// status query or callback can still recover the final state.
			p.log.Warn("POLLER", fmt.Sprintf("Check failed for transaction %s: %v", transactionID, err))
			return
		}
		if done {
			p.log.Info("POLLER", fmt.Sprintf("Polling complete for transaction %s", transactionID))
			return
		}
	}

	p.log.Warn("POLLER", fmt.Sprintf("Polling schedule exhausted for transaction %s without terminal status", transactionID))
}

// Cancel stops the sequence for one transaction, typically after a callback
// settled it first.
func (p *Poller) Cancel(transactionID string) {
	p.mu.Lock()
	cancel, ok := p.active[transactionID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

func (p *Poller) remove(transactionID string) {
	p.mu.Lock()
	delete(p.active, transactionID)
	p.mu.Unlock()
}

// Stop cancels every active sequence and waits for the goroutines to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	for _, cancel := range p.active {
		cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}
