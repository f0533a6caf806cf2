package handler

import (
	"net/http"
	"strconv"
	"strings"

	"whale-sentry/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetEngineStatus godoc
// @Summary      Get the trade engine status
// @Description  Reports whether the engine is running, its open position, and the last evaluated signal
// @Tags         engine
// @Produce      json
// @Success      200  {object}  bot.Status
// @Router       /api/engine/status [get]
func (h *Handler) GetEngineStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-engine-status")
	defer span.End()

	if h.engine == nil {
		c.JSON(http.StatusOK, gin.H{"running": false})
		return
	}
	c.JSON(http.StatusOK, h.engine.Status())
}

// GetDecisions godoc
// @Summary      Get recent trade decisions
// @Tags         engine
// @Produce      json
// @Param        coin   query  string  false  "Coin symbol (default BTC)"
// @Param        limit  query  int     false  "Number of decisions (default 20, max 200)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/engine/decisions [get]
func (h *Handler) GetDecisions(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-decisions")
	defer span.End()

	coin := strings.ToUpper(c.DefaultQuery("coin", "BTC"))
	if !domain.IsSupportedCoin(coin) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "unsupported coin: " + coin,
			"supported_coins": domain.SupportedCoins,
		})
		return
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	decisions, err := h.decisions.RecentDecisions(ctx, coin, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coin":      coin,
		"decisions": decisions,
	})
}
