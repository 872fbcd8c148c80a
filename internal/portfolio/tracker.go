package portfolio

import (
	"fmt"
	"sync"
	"time"

	"github.com/tradelab/crypto-risk-engine/internal/position"
	"github.com/tradelab/crypto-risk-engine/internal/risk"
)

// Tracker maintains the running financial state of the account: balance,
// realized profit for the current UTC day, and cumulative profit since start.
// It produces the PortfolioState snapshots the risk gate evaluates.
type Tracker struct {
	mu             sync.Mutex
	store          Store
	balance        float64
	initialBalance float64
	dailyPnL       float64
	cumulativePnL  float64
	lastReset      time.Time
	now            func() time.Time
}

// NewTracker creates a tracker seeded with the starting balance.
func NewTracker(initialBalance float64, store Store) *Tracker {
	nowFn := func() time.Time { return time.Now().UTC() }
	return &Tracker{
		store:          store,
		balance:        initialBalance,
		initialBalance: initialBalance,
		lastReset:      nowFn(),
		now:            nowFn,
	}
}

// RecordRealizedPnL applies a realized profit or loss to the balance and the
// daily and cumulative totals.
func (t *Tracker) RecordRealizedPnL(pnl float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyIfNeeded()
	t.balance += pnl
	t.dailyPnL += pnl
	t.cumulativePnL += pnl
}

// SetBalance overrides the tracked balance, for reconciling against an
// externally reported account balance.
func (t *Tracker) SetBalance(balance float64) error {
	if balance < 0 {
		return fmt.Errorf("balance must be non-negative, got %v", balance)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balance = balance
	return nil
}

// Balance returns the current tracked balance.
func (t *Tracker) Balance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance
}

// DailyRealizedPnL returns the realized profit for the current UTC day.
func (t *Tracker) DailyRealizedPnL() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyIfNeeded()
	return t.dailyPnL
}

// CumulativePnL returns the realized profit since the tracker started.
func (t *Tracker) CumulativePnL() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cumulativePnL
}

// FreeBalance returns the balance not committed as margin to open positions.
func (t *Tracker) FreeBalance() (float64, error) {
	open, err := t.store.GetPositions(position.StatusOpen)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	committed := 0.0
	for i := range open {
		committed += open[i].CommittedMargin()
	}
	free := t.balance - committed
	if free < 0 {
		free = 0
	}
	return free, nil
}

// Snapshot builds the portfolio state the risk gate and sizer evaluate
// against. The daily total rolls over at UTC midnight.
func (t *Tracker) Snapshot() (risk.PortfolioState, error) {
	open, err := t.store.GetPositions(position.StatusOpen)
	if err != nil {
		return risk.PortfolioState{}, fmt.Errorf("loading open positions: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetDailyIfNeeded()
	return risk.PortfolioState{
		Balance:          t.balance,
		InitialBalance:   t.initialBalance,
		DailyRealizedPnL: t.dailyPnL,
		CumulativePnL:    t.cumulativePnL,
		Positions:        open,
	}, nil
}

// resetDailyIfNeeded zeroes the daily total when the UTC calendar day has
// rolled over since the last reset. Callers must hold the lock.
func (t *Tracker) resetDailyIfNeeded() {
	now := t.now()
	if now.YearDay() != t.lastReset.YearDay() || now.Year() != t.lastReset.Year() {
		t.dailyPnL = 0
		t.lastReset = now
	}
}
