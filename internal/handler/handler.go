package handler

import (
	"context"
	"time"

	"whale-sentry/internal/anomaly"
	"whale-sentry/internal/bot"
	"whale-sentry/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// RiskService is the scoring surface the HTTP layer exposes.
type RiskService interface {
	PredictRisk(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error)
	PredictBatch(ctx context.Context, coin string, start, end time.Time) ([]domain.RiskResult, error)
	PredictRiskWeekly(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error)
	PredictBatchWeekly(ctx context.Context, coin string, start, end time.Time) ([]domain.RiskResult, error)
	Variant() domain.ModelVariant
}

// SignalService scores entries on demand.
type SignalService interface {
	EvaluateBuy(ctx context.Context, coin string) domain.SignalScore
}

// CommentaryService writes the plain-language read of a risk result.
type CommentaryService interface {
	Commentary(ctx context.Context, risk domain.RiskResult, signal domain.SignalScore) string
}

// PremiumService reads the latest premium snapshot.
type PremiumService interface {
	GetPremiumData(ctx context.Context, coin string) domain.PremiumSnapshot
	GetWhaleData(ctx context.Context, coin string, limit int) []domain.WhaleTransfer
}

// DecisionLister reads the trade decision audit log.
type DecisionLister interface {
	RecentDecisions(ctx context.Context, coin string, limit int) ([]domain.TradeDecision, error)
}

type Handler struct {
	tracer    trace.Tracer
	risk      RiskService
	signals   SignalService
	advisor   CommentaryService
	collector PremiumService
	decisions DecisionLister
	anomalies *anomaly.Detector
	engine    *bot.Engine
}

func New(
	tracer trace.Tracer,
	risk RiskService,
	signals SignalService,
	advisor CommentaryService,
	collector PremiumService,
	decisions DecisionLister,
	anomalies *anomaly.Detector,
	engine *bot.Engine,
) *Handler {
	return &Handler{
		tracer:    tracer,
		risk:      risk,
		signals:   signals,
		advisor:   advisor,
		collector: collector,
		decisions: decisions,
		anomalies: anomalies,
		engine:    engine,
	}
}

// RegisterRoutes mounts the API. Health stays open; everything under /api
// sits behind the optional API key check.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/risk/:coin", h.GetRisk)
	api.GET("/risk/:coin/batch", h.GetRiskBatch)
	api.GET("/signal/:coin", h.GetSignal)
	api.GET("/premium/:coin", h.GetPremium)
	api.GET("/whales/:coin", h.GetWhales)
	api.GET("/engine/status", h.GetEngineStatus)
	api.GET("/engine/decisions", h.GetDecisions)
}
