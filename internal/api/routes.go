package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoffmang9/greenfloor/internal/store"
)

const defaultListLimit = 50

// APIHandler serves GreenFloor's read-only admin surface over
// internal/store, the counterpart to the teacher's APIHandler over
// internal/db.PostgresStore.
type APIHandler struct {
	store   *store.Store
	network string
	wsHub   *Hub
}

// SetupRouter builds the admin HTTP surface: health, offer state,
// coin-op fee-budget reporting, and recent audit events, all backed by
// internal/store's real query methods, plus a websocket stream of
// daemon_cycle_summary events pushed via wsHub.
func SetupRouter(st *store.Store, network string, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("GREENFLOOR_API_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	handler := &APIHandler{store: st, network: network, wsHub: wsHub}

	pub := r.Group("/")
	{
		pub.GET("/healthz", handler.handleHealthz)
		if wsHub != nil {
			pub.GET("/stream", wsHub.Subscribe)
		}
	}

	protected := r.Group("/")
	protected.Use(AuthMiddleware())
	protected.Use(NewRateLimiter(60, 10).Middleware())
	{
		protected.GET("/offers", handler.handleOffers)
		protected.GET("/coin-op-budget", handler.handleCoinOpBudget)
		protected.GET("/audit-events", handler.handleAuditEvents)
	}

	return r
}

// handleHealthz reports liveness plus whether the store is reachable,
// mirroring the teacher's handleHealth but over GreenFloor's own store.
func (h *APIHandler) handleHealthz(c *gin.Context) {
	dbOK := true
	if _, err := h.store.GetLatestXCHPriceSnapshot(c.Request.Context()); err != nil {
		dbOK = false
	}

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":      "operational",
		"daemon":      "greenfloord",
		"network":     h.network,
		"dbConnected": dbOK,
	})
}

// handleOffers returns tracked offer lifecycle state for a market.
// GET /offers?market_id=xch-usdc&limit=50
func (h *APIHandler) handleOffers(c *gin.Context) {
	marketID := c.Query("market_id")
	limit := queryLimit(c, defaultListLimit)

	rows, err := h.store.ListOfferStates(c.Request.Context(), marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list offer states", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": rows, "count": len(rows)})
}

// handleCoinOpBudget reports today's (UTC) coin-op fee-budget spend
// against spec §4.10's daily cap.
// GET /coin-op-budget
func (h *APIHandler) handleCoinOpBudget(c *gin.Context) {
	report, err := h.store.GetCoinOpBudgetReportUTC(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build coin-op budget report", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleAuditEvents returns the most recent audit_event rows, optionally
// filtered by event type(s) and market.
// GET /audit-events?types=daemon_cycle_summary,offer_cancel_policy&market_id=xch-usdc&limit=100
func (h *APIHandler) handleAuditEvents(c *gin.Context) {
	var eventTypes []string
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				eventTypes = append(eventTypes, t)
			}
		}
	}
	marketID := c.Query("market_id")
	limit := queryLimit(c, 100)

	rows, err := h.store.ListRecentAuditEvents(c.Request.Context(), eventTypes, marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit events", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows, "count": len(rows)})
}

func queryLimit(c *gin.Context, def int) int {
	raw := c.DefaultQuery("limit", strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
