package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Strategy scores entries and exits. Implementations never error; degraded
// data shows up as neutral scores.
type Strategy interface {
	EvaluateBuy(ctx context.Context, coin string) domain.SignalScore
	EvaluateSell(ctx context.Context, coin string, pos *domain.Position) domain.SignalScore
}

// PremiumGate decides whether the cross-exchange premium permits an entry
// and how hard to size it.
type PremiumGate interface {
	ShouldAllowBuy(premium float64) bool
	SizeMultiplier(premium float64) float64
}

// MarketReader is the slice of the collector the engine needs directly.
type MarketReader interface {
	GetPremiumData(ctx context.Context, coin string) domain.PremiumSnapshot
	GetCurrentPrice(ctx context.Context, coin string) float64
}

// OrderExecutor places orders. Buy spends a KRW budget and reports the
// resulting position; Sell closes it and reports the fill price.
type OrderExecutor interface {
	Buy(ctx context.Context, coin string, krwBudget float64) (*domain.Position, error)
	Sell(ctx context.Context, pos domain.Position) (float64, error)
}

// DecisionStore persists executed decisions for audit.
type DecisionStore interface {
	InsertDecision(ctx context.Context, d domain.TradeDecision) error
}

// Notifier pushes executed decisions out-of-band. May be nil.
type Notifier interface {
	NotifyDecision(d domain.TradeDecision)
}

// Status is a point-in-time snapshot of the engine for the status endpoint.
type Status struct {
	Running    bool                `json:"running"`
	Coin       string              `json:"coin"`
	Position   *domain.Position    `json:"position,omitempty"`
	LastSignal *domain.SignalScore `json:"last_signal,omitempty"`
	LastRunAt  time.Time           `json:"last_run_at"`
}

// Engine is the trade loop. It holds at most one open position, polls the
// strategy on a fixed interval, and records every executed decision. One
// engine drives one coin.
type Engine struct {
	tracer    trace.Tracer
	strategy  Strategy
	premium   PremiumGate
	market    MarketReader
	executor  OrderExecutor
	decisions DecisionStore
	notifier  Notifier

	coin      string
	budgetKRW float64
	interval  time.Duration

	mu         sync.Mutex
	position   *domain.Position
	lastSignal *domain.SignalScore
	lastRunAt  time.Time
	running    bool
}

func NewEngine(
	tracer trace.Tracer,
	strategy Strategy,
	premium PremiumGate,
	market MarketReader,
	executor OrderExecutor,
	decisions DecisionStore,
	notifier Notifier,
	coin string,
	budgetKRW float64,
	pollIntervalSecs int,
) *Engine {
	return &Engine{
		tracer:    tracer,
		strategy:  strategy,
		premium:   premium,
		market:    market,
		executor:  executor,
		decisions: decisions,
		notifier:  notifier,
		coin:      coin,
		budgetKRW: budgetKRW,
		interval:  time.Duration(pollIntervalSecs) * time.Second,
	}
}

// SetNotifier attaches a notifier after construction. The Telegram bot needs
// the engine for its /status command, so the two are wired in that order.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

// Start runs the poll loop. Blocks until ctx is cancelled. The first
// evaluation happens immediately, not one interval in.
func (e *Engine) Start(ctx context.Context) {
	log.Printf("trade engine starting for %s (interval %s)", e.coin, e.interval)

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	if err := e.runOnce(ctx); err != nil {
		log.Printf("trade engine initial run error: %v", err)
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			log.Println("trade engine stopped")
			return
		case <-ticker.C:
			if err := e.runOnce(ctx); err != nil {
				log.Printf("trade engine run error: %v", err)
			}
		}
	}
}

// Status reports the engine's current state. Safe for concurrent use.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Running:   e.running,
		Coin:      e.coin,
		LastRunAt: e.lastRunAt,
	}
	if e.position != nil {
		p := *e.position
		st.Position = &p
	}
	if e.lastSignal != nil {
		s := *e.lastSignal
		st.LastSignal = &s
	}
	return st
}

// runOnce is one tick of the state machine: flat means evaluate an entry,
// holding means evaluate an exit.
func (e *Engine) runOnce(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "trade-engine.run-once")
	defer span.End()

	e.mu.Lock()
	pos := e.position
	e.mu.Unlock()

	var err error
	if pos == nil {
		err = e.tryBuy(ctx)
	} else {
		err = e.trySell(ctx, pos)
	}

	e.mu.Lock()
	e.lastRunAt = time.Now().UTC()
	e.mu.Unlock()
	return err
}

func (e *Engine) tryBuy(ctx context.Context) error {
	signal := e.strategy.EvaluateBuy(ctx, e.coin)
	e.setLastSignal(signal)

	if !signal.Buy {
		return nil
	}

	snap := e.market.GetPremiumData(ctx, e.coin)
	if !e.premium.ShouldAllowBuy(snap.Premium) {
		log.Printf("buy signal for %s suppressed: premium %.4f too rich", e.coin, snap.Premium)
		return nil
	}

	multiplier := e.premium.SizeMultiplier(snap.Premium)
	budget := e.budgetKRW * multiplier

	pos, err := e.executor.Buy(ctx, e.coin, budget)
	if err != nil {
		return fmt.Errorf("buy order for %s: %w", e.coin, err)
	}

	e.mu.Lock()
	e.position = pos
	e.mu.Unlock()

	e.recordDecision(ctx, domain.TradeDecision{
		Coin:        e.coin,
		Side:        domain.SideBuy,
		Quantity:    pos.Quantity,
		Price:       pos.EntryPrice,
		SignalScore: signal.SignalScore,
		Premium:     snap.Premium,
		Multiplier:  multiplier,
		Reason:      signal.Reason,
		DecidedAt:   time.Now().UTC(),
	})
	return nil
}

func (e *Engine) trySell(ctx context.Context, pos *domain.Position) error {
	signal := e.strategy.EvaluateSell(ctx, e.coin, pos)
	e.setLastSignal(signal)

	if !signal.Sell {
		return nil
	}

	price, err := e.executor.Sell(ctx, *pos)
	if err != nil {
		return fmt.Errorf("sell order for %s: %w", e.coin, err)
	}

	e.mu.Lock()
	e.position = nil
	e.mu.Unlock()

	snap := e.market.GetPremiumData(ctx, e.coin)
	e.recordDecision(ctx, domain.TradeDecision{
		Coin:        e.coin,
		Side:        domain.SideSell,
		Quantity:    pos.Quantity,
		Price:       price,
		SignalScore: signal.SignalScore,
		Premium:     snap.Premium,
		Multiplier:  1.0,
		Reason:      signal.Reason,
		DecidedAt:   time.Now().UTC(),
	})
	return nil
}

// recordDecision persists and notifies. Neither failure unwinds the trade;
// the order already happened.
func (e *Engine) recordDecision(ctx context.Context, d domain.TradeDecision) {
	if e.decisions != nil {
		if err := e.decisions.InsertDecision(ctx, d); err != nil {
			log.Printf("failed to persist %s decision for %s: %v", d.Side, d.Coin, err)
		}
	}
	e.mu.Lock()
	notifier := e.notifier
	e.mu.Unlock()
	if notifier != nil {
		notifier.NotifyDecision(d)
	}
	log.Printf("executed %s %s qty=%.8f price=%.2f signal=%.1f reason=%q",
		d.Side, d.Coin, d.Quantity, d.Price, d.SignalScore, d.Reason)
}

func (e *Engine) setLastSignal(s domain.SignalScore) {
	e.mu.Lock()
	e.lastSignal = &s
	e.mu.Unlock()
}
