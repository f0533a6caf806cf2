package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"whale-sentry/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const dateLayout = "2006-01-02"

// GetRisk godoc
// @Summary      Get the risk score for a coin
// @Description  Scores one coin on one date with the loaded model variant. Defaults to today.
// @Tags         risk
// @Produce      json
// @Param        coin    path   string  true   "Coin symbol (e.g., BTC, ETH)"
// @Param        date    query  string  false  "Target date (YYYY-MM-DD)"
// @Param        period  query  string  false  "daily or weekly"  default(daily)
// @Success      200  {object}  domain.RiskResult
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/risk/{coin} [get]
func (h *Handler) GetRisk(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-risk")
	defer span.End()

	coin := strings.ToUpper(c.Param("coin"))
	span.SetAttributes(attribute.String("coin", coin))
	if !domain.IsSupportedCoin(coin) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "unsupported coin: " + coin,
			"supported_coins": domain.SupportedCoins,
		})
		return
	}

	target := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD: " + raw})
			return
		}
		target = parsed
	}

	var res *domain.RiskResult
	var err error
	switch c.DefaultQuery("period", "daily") {
	case "weekly":
		res, err = h.risk.PredictRiskWeekly(ctx, coin, target)
	case "daily":
		res, err = h.risk.PredictRisk(ctx, coin, target)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily or weekly"})
		return
	}
	if err != nil {
		h.riskError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetRiskBatch godoc
// @Summary      Get risk scores over a date range
// @Description  Scores every available date in [start, end]. Dates without enough history are skipped.
// @Tags         risk
// @Produce      json
// @Param        coin    path   string  true   "Coin symbol (e.g., BTC, ETH)"
// @Param        start   query  string  true   "Range start (YYYY-MM-DD)"
// @Param        end     query  string  true   "Range end (YYYY-MM-DD)"
// @Param        period  query  string  false  "daily or weekly"  default(daily)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/risk/{coin}/batch [get]
func (h *Handler) GetRiskBatch(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-risk-batch")
	defer span.End()

	coin := strings.ToUpper(c.Param("coin"))
	span.SetAttributes(attribute.String("coin", coin))
	if !domain.IsSupportedCoin(coin) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "unsupported coin: " + coin,
			"supported_coins": domain.SupportedCoins,
		})
		return
	}

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start, want YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end, want YYYY-MM-DD"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end is before start"})
		return
	}

	var results []domain.RiskResult
	switch c.DefaultQuery("period", "daily") {
	case "weekly":
		results, err = h.risk.PredictBatchWeekly(ctx, coin, start, end)
	case "daily":
		results, err = h.risk.PredictBatch(ctx, coin, start, end)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily or weekly"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coin":    coin,
		"count":   len(results),
		"results": results,
	})
}

// riskError maps scoring failures onto HTTP. A missing date is a 404 carrying
// the closest scoreable date so clients can retry sensibly.
func (h *Handler) riskError(c *gin.Context, err error) {
	var dnf *domain.DateNotFoundError
	switch {
	case errors.As(err, &dnf):
		c.JSON(http.StatusNotFound, gin.H{
			"error":        err.Error(),
			"closest_date": dnf.Closest.Format(dateLayout),
			"days_diff":    dnf.DaysDiff,
		})
	case errors.Is(err, domain.ErrInsufficientData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
