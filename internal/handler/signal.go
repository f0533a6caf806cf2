package handler

import (
	"net/http"
	"strings"
	"time"

	"whale-sentry/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSignal godoc
// @Summary      Get the current trading signal for a coin
// @Description  Evaluates the buy side of the data-driven strategy and attaches a written commentary
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Param        coin  path  string  true  "Coin symbol (e.g., BTC, ETH)"
// @Router       /api/signal/{coin} [get]
func (h *Handler) GetSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
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

	signal := h.signals.EvaluateBuy(ctx, coin)

	var commentary string
	if h.advisor != nil {
		risk, err := h.risk.PredictRisk(ctx, coin, time.Now().UTC())
		if err == nil {
			commentary = h.advisor.Commentary(ctx, *risk, signal)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"signal":     signal,
		"commentary": commentary,
	})
}

// GetPremium godoc
// @Summary      Get the latest cross-exchange premium for a coin
// @Tags         signals
// @Produce      json
// @Success      200  {object}  domain.PremiumSnapshot
// @Failure      400  {object}  map[string]string
// @Param        coin  path  string  true  "Coin symbol (e.g., BTC, ETH)"
// @Router       /api/premium/{coin} [get]
func (h *Handler) GetPremium(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-premium")
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

	c.JSON(http.StatusOK, h.collector.GetPremiumData(ctx, coin))
}

// GetWhales godoc
// @Summary      Get recent whale transfers with anomaly scores
// @Description  Returns the newest large transfers; each carries an isolation-forest anomaly score when enough history exists
// @Tags         signals
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Param        coin  path  string  true  "Coin symbol (e.g., BTC, ETH)"
// @Router       /api/whales/{coin} [get]
func (h *Handler) GetWhales(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-whales")
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

	transfers := h.collector.GetWhaleData(ctx, coin, 100)
	scores := h.anomalies.ScoreTransfers(ctx, transfers)

	c.JSON(http.StatusOK, gin.H{
		"coin":      coin,
		"transfers": transfers,
		"anomalies": scores,
	})
}
