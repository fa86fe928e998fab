package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/db"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/metrics"
)

// Router assembles the HTTP surface. Health and metrics stay outside auth;
// everything under /api/v1 requires a verified staff token.
//
// Item-level operations live under /draft-items because the item id alone
// identifies the row; the ownership guard resolves it back to its draft.
func Router(h *Handler, conn *db.Conn, jwtSecret string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		if err := conn.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", Auth(jwtSecret))
	{
		v1.POST("/sessions", h.openSession)
		v1.GET("/sessions/:id", h.getSession)
		v1.POST("/sessions/:id/close", h.closeSession)
		v1.POST("/sessions/:id/abandon", h.abandonSession)

		v1.POST("/drafts", h.createDraft)
		v1.DELETE("/drafts", h.clearDrafts)
		v1.GET("/drafts/:id", h.getDraft)
		v1.POST("/drafts/:id/items", h.addItem)
		v1.PATCH("/drafts/:id/hold", h.setHold)
		v1.POST("/drafts/:id/confirm", h.confirmDraft)

		v1.POST("/draft-items/:itemID/addons", h.addAddon)
		v1.PATCH("/draft-items/:itemID/quantity", h.updateQuantity)
		v1.DELETE("/draft-items/:itemID", h.removeItem)

		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/advance", h.advanceOrder)
		v1.POST("/orders/:id/void", h.voidOrder)

		v1.GET("/tables", h.listTables)
	}
	return r
}
