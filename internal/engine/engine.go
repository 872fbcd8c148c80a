// Package engine runs the evaluation loop: each tick it manages open
// positions (trailing stops, protective levels) and turns strategy signals
// into sized, gated, protected entries.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradelab/crypto-risk-engine/internal/config"
	enginerrors "github.com/tradelab/crypto-risk-engine/internal/errors"
	"github.com/tradelab/crypto-risk-engine/internal/indicators"
	"github.com/tradelab/crypto-risk-engine/internal/logger"
	"github.com/tradelab/crypto-risk-engine/internal/monitoring"
	"github.com/tradelab/crypto-risk-engine/internal/notifications"
	"github.com/tradelab/crypto-risk-engine/internal/portfolio"
	"github.com/tradelab/crypto-risk-engine/internal/position"
	"github.com/tradelab/crypto-risk-engine/internal/risk"
	"github.com/tradelab/crypto-risk-engine/internal/strategy"
	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// defaultMaintenanceMarginRate feeds the advisory liquidation estimate until
// the venue reports the real price.
const defaultMaintenanceMarginRate = 0.005

// candleWindow is how many candles each tick fetches for the indicators.
const candleWindow = 100

// MarketData supplies prices and candles. Implementations wrap an exchange
// or a replay file; the engine never talks to a venue directly.
type MarketData interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]types.OHLCV, error)
}

// OrderExecutor carries out the engine's decisions. In test mode the
// NoopExecutor is used and decisions are only recorded.
type OrderExecutor interface {
	OpenPosition(ctx context.Context, p *position.Position) error
	ClosePosition(ctx context.Context, p *position.Position, price float64, reason position.CloseReason) error
}

// SignalProvider produces at most one trade signal per tick.
type SignalProvider interface {
	Evaluate(candles []types.OHLCV, currentPrice float64) (*strategy.TradeSignal, error)
}

// NoopExecutor records nothing and never fails. Used in test mode.
type NoopExecutor struct{}

func (NoopExecutor) OpenPosition(ctx context.Context, p *position.Position) error { return nil }
func (NoopExecutor) ClosePosition(ctx context.Context, p *position.Position, price float64, reason position.CloseReason) error {
	return nil
}

// Deps are the collaborators the engine is wired with.
type Deps struct {
	Market   MarketData
	Executor OrderExecutor
	Signals  SignalProvider
	Store    portfolio.Store
	Tracker  *portfolio.Tracker
	Logger   *logger.Logger
	Notifier notifications.Notifier
	Health   *monitoring.HealthChecker
	Status   *monitoring.StatusHandler
}

// Engine is the tick-driven risk engine for one symbol.
type Engine struct {
	cfg        *config.Config
	deps       Deps
	sizer      *risk.PositionSizer
	protective *risk.ProtectiveLevelCalculator
	trailing   *risk.TrailingStopEngine
	gate       *risk.RiskGate
	volatility *indicators.Volatility

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New wires an engine from its configuration and collaborators.
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Market == nil || deps.Signals == nil || deps.Store == nil || deps.Tracker == nil {
		return nil, fmt.Errorf("market data, signal provider, store and tracker are required")
	}
	if deps.Executor == nil {
		if !cfg.Engine.TestMode {
			return nil, fmt.Errorf("order executor is required outside test mode")
		}
		deps.Executor = NoopExecutor{}
	}

	return &Engine{
		cfg:        cfg,
		deps:       deps,
		sizer:      risk.NewPositionSizer(),
		protective: risk.NewProtectiveLevelCalculator(),
		trailing:   risk.NewTrailingStopEngine(),
		gate:       risk.NewRiskGate(),
		volatility: indicators.NewVolatility(cfg.Risk.VolatilityPeriod, indicators.HoursPerYear),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start launches the evaluation loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine already running")
	}
	e.running = true

	if e.deps.Health != nil {
		e.deps.Health.SetRunning(true)
	}
	e.logInfo("engine started for %s, evaluating every %s", e.cfg.Engine.Symbol, e.cfg.EvaluateEvery())

	e.wg.Add(1)
	go e.loop()
	return nil
}

// Stop signals the loop to exit and waits for the in-flight tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopChan)
	e.mu.Unlock()

	e.wg.Wait()
	if e.deps.Health != nil {
		e.deps.Health.SetRunning(false)
	}
	e.logInfo("engine stopped")
}

func (e *Engine) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.EvaluateEvery())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.safeTick()
		case <-e.stopChan:
			return
		}
	}
}

// safeTick isolates a tick failure so one bad evaluation never kills the
// loop.
func (e *Engine) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			e.logError("panic in evaluation tick", fmt.Errorf("%v", r))
			monitoring.RecordError(string(enginerrors.CategoryFatal))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.tick(ctx); err != nil {
		categorized := enginerrors.Categorize(err, "engine", "tick")
		monitoring.RecordError(string(categorized.Category))
		if e.deps.Health != nil {
			e.deps.Health.RecordError(categorized.Error())
		}
		e.logError("evaluation tick failed", categorized)
	}
}

// tick runs one full evaluation pass.
func (e *Engine) tick(ctx context.Context) error {
	symbol := e.cfg.Engine.Symbol

	price, err := e.deps.Market.LatestPrice(ctx, symbol)
	if err != nil {
		return enginerrors.NewMarketDataError("engine", "latest_price", err)
	}
	if e.deps.Health != nil {
		e.deps.Health.RecordEvaluation(price)
	}

	if err := e.manageOpenPositions(ctx, price); err != nil {
		return err
	}

	if err := e.evaluateEntry(ctx, price); err != nil {
		return err
	}

	e.publishStatus()
	return nil
}

// manageOpenPositions ratchets trailing stops and closes positions whose
// protective levels were hit.
func (e *Engine) manageOpenPositions(ctx context.Context, price float64) error {
	open, err := e.deps.Store.GetPositions(position.StatusOpen)
	if err != nil {
		return enginerrors.NewStoreError("engine", "load_open_positions", err)
	}

	remaining := make([]position.Position, 0, len(open))
	for _, p := range open {
		if p.Symbol != e.cfg.Engine.Symbol {
			remaining = append(remaining, p)
			continue
		}

		if e.cfg.Risk.TrailingStopEnabled {
			updated, triggered, err := e.trailing.Update(p, price,
				e.cfg.Risk.TrailingActivationPct, e.cfg.Risk.TrailingStopPct)
			if err != nil {
				e.logError(fmt.Sprintf("trailing update for %s", p.ID), err)
			} else {
				if updated.TrailingStopPrice != nil &&
					(p.TrailingStopPrice == nil || *updated.TrailingStopPrice != *p.TrailingStopPrice) {
					monitoring.RecordTrailingUpdate(p.Symbol, "ratchet")
				}
				p = updated
				if err := e.deps.Store.Save(p); err != nil {
					return enginerrors.NewStoreError("engine", "save_trailing_state", err)
				}
				if triggered {
					monitoring.RecordTrailingUpdate(p.Symbol, "trigger")
					if err := e.closePosition(ctx, p, price, position.CloseReasonTrailingStop); err != nil {
						return err
					}
					continue
				}
			}
		}
		remaining = append(remaining, p)
	}

	hits, err := risk.CheckProtectiveLevels(price, remaining, e.cfg.Risk.Limits)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		if hit.Position.Symbol != e.cfg.Engine.Symbol {
			continue
		}
		if err := e.closePosition(ctx, hit.Position, price, hit.Reason); err != nil {
			return err
		}
	}
	return nil
}

// closePosition executes and records a close, realizing its PnL.
func (e *Engine) closePosition(ctx context.Context, p position.Position, price float64, reason position.CloseReason) error {
	if err := e.deps.Executor.ClosePosition(ctx, &p, price, reason); err != nil {
		return enginerrors.NewExecutionError("engine", "close_position", err)
	}

	p.Close(price, time.Now().UTC())
	if err := e.deps.Store.Save(p); err != nil {
		return enginerrors.NewStoreError("engine", "save_closed_position", err)
	}
	e.deps.Tracker.RecordRealizedPnL(p.PnL)

	e.logDecision("closed %s %s %s at %.2f (%s), pnl %.2f", p.Symbol, p.Side, p.ID, price, reason, p.PnL)
	e.logRiskEvent(string(reason), p.Symbol, map[string]interface{}{
		"position_id": p.ID,
		"exit_price":  price,
		"pnl":         p.PnL,
	})

	level := notifications.LevelSuccess
	if p.PnL < 0 {
		level = notifications.LevelWarning
	}
	e.notify(level, fmt.Sprintf("Closed %s %s at %.2f (%s), PnL %.2f", p.Side, p.Symbol, price, reason, p.PnL))
	return nil
}

// evaluateEntry asks the strategy for a signal and runs it through sizing,
// the gate and protective-level computation.
func (e *Engine) evaluateEntry(ctx context.Context, price float64) error {
	symbol := e.cfg.Engine.Symbol

	candles, err := e.deps.Market.RecentCandles(ctx, symbol, e.cfg.Engine.Interval, candleWindow)
	if err != nil {
		return enginerrors.NewMarketDataError("engine", "recent_candles", err)
	}

	signal, err := e.deps.Signals.Evaluate(candles, price)
	if err != nil {
		return enginerrors.Wrap(err, enginerrors.CategoryTemporary, "engine", "evaluate_signal")
	}
	if signal == nil || signal.Direction == strategy.DirectionHold {
		return nil
	}
	if signal.Expired(time.Now().UTC()) {
		e.logInfo("signal %s expired before evaluation", signal.ID)
		return nil
	}

	volatility, err := e.volatility.Calculate(candles)
	if err != nil {
		// Not enough history yet: fall back to the baseline so sizing
		// stays defined.
		volatility = e.cfg.Risk.Limits.BaseVolatility
	}

	snapshot, err := e.deps.Tracker.Snapshot()
	if err != nil {
		return enginerrors.NewStoreError("engine", "portfolio_snapshot", err)
	}

	size, err := e.sizer.ComputeSize(*signal, snapshot.Balance, price, volatility, snapshot.Positions, e.cfg.Risk.Limits)
	if err != nil {
		return err
	}
	if size <= 0 {
		e.logDecision("signal %s sized to zero, no trade", signal.ID)
		return nil
	}

	side, err := position.SideFromOrder(string(signal.Direction))
	if err != nil {
		return enginerrors.NewValidationError("engine", "map_signal_side", err.Error())
	}

	trade := risk.ProposedTrade{Symbol: symbol, Side: side, Amount: size, Price: price}
	decision, err := e.gate.Evaluate(trade, snapshot, e.cfg.Risk.Limits)
	if err != nil {
		return err
	}
	monitoring.RecordDecision(symbol, decision.Approved)
	if !decision.Approved {
		monitoring.RecordRejection(string(decision.Code))
		e.logWarning("trade rejected [%s]: %s", decision.Code, decision.Reason)
		e.logRiskEvent("gate_reject", symbol, map[string]interface{}{
			"code":   string(decision.Code),
			"reason": decision.Reason,
			"amount": size,
		})
		if decision.Code == risk.RejectDailyLoss || decision.Code == risk.RejectMaxLoss {
			e.notify(notifications.LevelError, fmt.Sprintf("Loss limit reached: %s", decision.Reason))
		}
		return nil
	}

	return e.openPosition(ctx, side, size, price, signal)
}

// openPosition creates, protects and persists an approved entry.
func (e *Engine) openPosition(ctx context.Context, side position.Side, size, price float64, signal *strategy.TradeSignal) error {
	p := position.New(e.cfg.Engine.Symbol, side, size, price)
	p.Leverage = e.cfg.Engine.Leverage

	levels, err := e.protective.ComputeLevels(price, side, e.cfg.Risk.Limits)
	if err != nil {
		return err
	}
	stopLoss, takeProfit := levels.StopLoss, levels.TakeProfit
	if signal.StopLoss != nil {
		stopLoss = *signal.StopLoss
	}
	if signal.TakeProfit != nil {
		takeProfit = *signal.TakeProfit
	}
	p.SetProtectiveLevels(&stopLoss, &takeProfit)

	if p.Leverage > 1 {
		liq, err := e.protective.EstimateLiquidationPrice(price, side, p.Leverage, defaultMaintenanceMarginRate)
		if err != nil {
			e.logError("liquidation estimate", err)
		} else {
			p.SetEstimatedLiquidationPrice(liq)
		}
	}

	if err := e.deps.Executor.OpenPosition(ctx, p); err != nil {
		return enginerrors.NewExecutionError("engine", "open_position", err)
	}
	if err := e.deps.Store.Save(*p); err != nil {
		return enginerrors.NewStoreError("engine", "save_position", err)
	}

	monitoring.RecordPositionSize(p.Symbol, size)
	e.logDecision("opened %s %s amount %.6f at %.2f (sl %.2f, tp %.2f), signal %s",
		p.Side, p.Symbol, size, price, stopLoss, takeProfit, signal.ID)
	e.logRiskEvent("position_opened", p.Symbol, map[string]interface{}{
		"position_id": p.ID,
		"side":        string(side),
		"amount":      size,
		"entry_price": price,
		"stop_loss":   stopLoss,
		"take_profit": takeProfit,
		"strategy":    signal.StrategyName,
	})
	e.notify(notifications.LevelInfo, fmt.Sprintf("Opened %s %s, amount %.6f at %.2f", side, p.Symbol, size, price))
	return nil
}

// publishStatus refreshes the gauges and the dashboard snapshot.
func (e *Engine) publishStatus() {
	snapshot, err := e.deps.Tracker.Snapshot()
	if err != nil {
		e.logError("status snapshot", err)
		return
	}
	monitoring.UpdatePortfolio(len(snapshot.OpenPositions()), snapshot.AggregateExposure(), snapshot.Balance)
	if e.deps.Status != nil {
		e.deps.Status.Update(snapshot, e.cfg.Risk.Limits)
	}
}

func (e *Engine) notify(level, message string) {
	if e.deps.Notifier == nil {
		return
	}
	if err := e.deps.Notifier.SendAlert(level, message); err != nil {
		e.logError("notification", err)
	}
}

func (e *Engine) logInfo(format string, args ...interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.Info(format, args...)
	}
}

func (e *Engine) logWarning(format string, args ...interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.Warning(format, args...)
	}
}

func (e *Engine) logDecision(format string, args ...interface{}) {
	if e.deps.Logger != nil {
		e.deps.Logger.Decision(format, args...)
	}
}

func (e *Engine) logError(context string, err error) {
	if e.deps.Logger != nil {
		e.deps.Logger.LogError(context, err)
	}
}

func (e *Engine) logRiskEvent(eventType, symbol string, details map[string]interface{}) {
	if e.deps.Logger == nil {
		return
	}
	if err := e.deps.Logger.LogRiskEvent(eventType, symbol, details); err != nil {
		e.deps.Logger.Error("failed to record risk event: %v", err)
	}
}
