package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestRunOnceBuysOnSignal(t *testing.T) {
	strategy := &stubStrategy{buy: domain.SignalScore{Coin: "BTC", Buy: true, SignalScore: 75, Reason: "calm market"}}
	gate := &stubGate{allow: true, multiplier: 2.0}
	market := &stubMarket{premium: -0.015}
	exec := &stubExecutor{fill: domain.Position{Coin: "BTC", Quantity: 0.002, EntryPrice: 95000000}}
	store := &stubStore{}

	e := newTestEngine(strategy, gate, market, exec, store)
	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.buyCalls != 1 {
		t.Fatalf("expected one buy order, got %d", exec.buyCalls)
	}
	if exec.lastBudget != 200000 {
		t.Fatalf("expected premium multiplier to double the budget, got %v", exec.lastBudget)
	}
	if e.Status().Position == nil {
		t.Fatal("expected open position after fill")
	}
	if len(store.decisions) != 1 || store.decisions[0].Side != domain.SideBuy {
		t.Fatalf("expected one buy decision, got %+v", store.decisions)
	}
	if store.decisions[0].Multiplier != 2.0 {
		t.Fatalf("expected multiplier on decision, got %v", store.decisions[0].Multiplier)
	}
}

func TestRunOnceSkipsWeakSignal(t *testing.T) {
	strategy := &stubStrategy{buy: domain.SignalScore{Coin: "BTC", Buy: false, SignalScore: 40}}
	exec := &stubExecutor{}

	e := newTestEngine(strategy, &stubGate{allow: true, multiplier: 1.0}, &stubMarket{}, exec, &stubStore{})
	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.buyCalls != 0 {
		t.Fatalf("expected no order on weak signal, got %d", exec.buyCalls)
	}
	if e.Status().LastSignal == nil || e.Status().LastSignal.SignalScore != 40 {
		t.Fatal("expected last signal recorded even without an order")
	}
}

func TestRunOnceBlockedByPremium(t *testing.T) {
	strategy := &stubStrategy{buy: domain.SignalScore{Coin: "BTC", Buy: true, SignalScore: 80}}
	exec := &stubExecutor{}
	store := &stubStore{}

	e := newTestEngine(strategy, &stubGate{allow: false}, &stubMarket{premium: 0.06}, exec, store)
	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.buyCalls != 0 {
		t.Fatal("rich premium must suppress the order")
	}
	if len(store.decisions) != 0 {
		t.Fatal("suppressed entries must not be recorded as decisions")
	}
}

func TestRunOnceSellsAndClearsPosition(t *testing.T) {
	strategy := &stubStrategy{sell: domain.SignalScore{Coin: "BTC", Sell: true, SignalScore: 100, Reason: "take profit at +6.00%"}}
	exec := &stubExecutor{sellPrice: 101000000}
	store := &stubStore{}

	e := newTestEngine(strategy, &stubGate{allow: true, multiplier: 1.0}, &stubMarket{}, exec, store)
	e.position = &domain.Position{Coin: "BTC", Quantity: 0.002, EntryPrice: 95000000, EntryTime: time.Now()}

	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exec.sellCalls != 1 {
		t.Fatalf("expected one sell order, got %d", exec.sellCalls)
	}
	if e.Status().Position != nil {
		t.Fatal("expected position cleared after sell")
	}
	if len(store.decisions) != 1 || store.decisions[0].Side != domain.SideSell {
		t.Fatalf("expected one sell decision, got %+v", store.decisions)
	}
	if store.decisions[0].Price != 101000000 {
		t.Fatalf("expected fill price on decision, got %v", store.decisions[0].Price)
	}
}

func TestRunOnceHoldsWithoutSellSignal(t *testing.T) {
	strategy := &stubStrategy{sell: domain.SignalScore{Coin: "BTC", Sell: false, SignalScore: 10}}
	exec := &stubExecutor{}

	e := newTestEngine(strategy, &stubGate{allow: true, multiplier: 1.0}, &stubMarket{}, exec, &stubStore{})
	e.position = &domain.Position{Coin: "BTC", Quantity: 0.002, EntryPrice: 95000000, EntryTime: time.Now()}

	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.sellCalls != 0 {
		t.Fatal("expected no order while the exit score is weak")
	}
	if e.Status().Position == nil {
		t.Fatal("position must survive a hold tick")
	}
}

func TestRunOnceSurfacesOrderError(t *testing.T) {
	strategy := &stubStrategy{buy: domain.SignalScore{Coin: "BTC", Buy: true, SignalScore: 80}}
	exec := &stubExecutor{buyErr: errors.New("exchange down")}
	store := &stubStore{}

	e := newTestEngine(strategy, &stubGate{allow: true, multiplier: 1.0}, &stubMarket{}, exec, store)
	if err := e.runOnce(context.Background()); err == nil {
		t.Fatal("expected order error to propagate")
	}
	if e.Status().Position != nil {
		t.Fatal("failed order must not open a position")
	}
	if len(store.decisions) != 0 {
		t.Fatal("failed order must not be recorded")
	}
}

func TestRecordDecisionNotifies(t *testing.T) {
	strategy := &stubStrategy{buy: domain.SignalScore{Coin: "BTC", Buy: true, SignalScore: 75}}
	exec := &stubExecutor{fill: domain.Position{Coin: "BTC", Quantity: 0.001, EntryPrice: 90000000}}
	notifier := &stubNotifier{}

	e := newTestEngine(strategy, &stubGate{allow: true, multiplier: 1.0}, &stubMarket{}, exec, &stubStore{})
	e.SetNotifier(notifier)

	if err := e.runOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.received) != 1 || notifier.received[0].Side != domain.SideBuy {
		t.Fatalf("expected one notification, got %+v", notifier.received)
	}
}

func TestStatusSnapshotIsACopy(t *testing.T) {
	e := newTestEngine(&stubStrategy{}, &stubGate{}, &stubMarket{}, &stubExecutor{}, &stubStore{})
	e.position = &domain.Position{Coin: "BTC", Quantity: 0.002, EntryPrice: 95000000}

	st := e.Status()
	st.Position.Quantity = 99

	if e.position.Quantity != 0.002 {
		t.Fatal("status must not expose internal state")
	}
}

func newTestEngine(strategy Strategy, gate PremiumGate, market MarketReader, exec OrderExecutor, store DecisionStore) *Engine {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	return NewEngine(tracer, strategy, gate, market, exec, store, nil, "BTC", 100000, 60)
}

type stubStrategy struct {
	buy  domain.SignalScore
	sell domain.SignalScore
}

func (s *stubStrategy) EvaluateBuy(context.Context, string) domain.SignalScore {
	return s.buy
}

func (s *stubStrategy) EvaluateSell(context.Context, string, *domain.Position) domain.SignalScore {
	return s.sell
}

type stubGate struct {
	allow      bool
	multiplier float64
}

func (g *stubGate) ShouldAllowBuy(float64) bool    { return g.allow }
func (g *stubGate) SizeMultiplier(float64) float64 { return g.multiplier }

type stubMarket struct {
	premium float64
	price   float64
}

func (m *stubMarket) GetPremiumData(_ context.Context, coin string) domain.PremiumSnapshot {
	return domain.PremiumSnapshot{Coin: coin, Premium: m.premium}
}

func (m *stubMarket) GetCurrentPrice(context.Context, string) float64 {
	return m.price
}

type stubExecutor struct {
	fill       domain.Position
	buyErr     error
	sellPrice  float64
	buyCalls   int
	sellCalls  int
	lastBudget float64
}

func (e *stubExecutor) Buy(_ context.Context, _ string, krwBudget float64) (*domain.Position, error) {
	e.buyCalls++
	e.lastBudget = krwBudget
	if e.buyErr != nil {
		return nil, e.buyErr
	}
	pos := e.fill
	return &pos, nil
}

func (e *stubExecutor) Sell(context.Context, domain.Position) (float64, error) {
	e.sellCalls++
	return e.sellPrice, nil
}

type stubStore struct {
	decisions []domain.TradeDecision
}

func (s *stubStore) InsertDecision(_ context.Context, d domain.TradeDecision) error {
	s.decisions = append(s.decisions, d)
	return nil
}

type stubNotifier struct {
	received []domain.TradeDecision
}

func (n *stubNotifier) NotifyDecision(d domain.TradeDecision) {
	n.received = append(n.received, d)
}
