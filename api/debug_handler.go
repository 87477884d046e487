package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultLedgerLimit = 20
	maxLedgerLimit     = 100
)

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GET /debug/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": h.sessions.Count(),
		"keys":  h.sessions.Keys(),
	})
}

// GET /debug/purchases?limit=N
func (h *Handler) ListLedgerPurchases(c *gin.Context) {
	if h.ledger == nil {
		abortWithError(c, http.StatusServiceUnavailable, codeUnavailable, "Histórico de compras indisponível.")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLedgerLimit)))
	if err != nil || limit < 1 {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, messageInvalidRequest)
		return
	}
	limit = min(limit, maxLedgerLimit)

	entries, err := h.ledger.ListRecent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(entries),
		"purchases": entries,
	})
}
