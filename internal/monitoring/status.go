package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/tradelab/crypto-risk-engine/internal/risk"
)

// StatusHandler serves the dashboard-facing risk status snapshot as JSON.
// The engine pushes fresh snapshots; the handler never computes anything.
type StatusHandler struct {
	mu       sync.RWMutex
	snapshot RiskStatus
}

// RiskStatus is the JSON shape of the risk status endpoint.
type RiskStatus struct {
	Timestamp        time.Time   `json:"timestamp"`
	Balance          float64     `json:"balance"`
	DailyRealizedPnL float64     `json:"daily_realized_pnl"`
	CumulativePnL    float64     `json:"cumulative_pnl"`
	OpenPositions    int         `json:"open_positions"`
	Exposure         float64     `json:"exposure"`
	Limits           risk.Limits `json:"risk_management"`
}

// NewStatusHandler creates a status handler.
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

// Update replaces the published snapshot.
func (s *StatusHandler) Update(state risk.PortfolioState, limits risk.Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = RiskStatus{
		Timestamp:        time.Now().UTC(),
		Balance:          state.Balance,
		DailyRealizedPnL: state.DailyRealizedPnL,
		CumulativePnL:    state.CumulativePnL,
		OpenPositions:    len(state.OpenPositions()),
		Exposure:         state.AggregateExposure(),
		Limits:           limits,
	}
}

func (s *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshot)
}
