package notifier

import (
	"io"
	"net/http"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreamHandler struct {
	hub     *Hub
	tracker Tracker
	buffer  int
	logger  logger.ZapLogger
}

func NewStreamHandler(hub *Hub, tracker Tracker, buffer int, log logger.ZapLogger) *StreamHandler {
	return &StreamHandler{hub: hub, tracker: tracker, buffer: buffer, logger: log}
}

func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock/stream", h.Stream)
	rg.POST("/stock/subscriptions", h.Subscribe)
}

// Stream serves stock_updated server-sent events until the client disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe(h.buffer)
	defer sub.Close()

	h.logger.Debug("stock stream opened", zap.String("subscriber_id", sub.ID))
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("connected", gin.H{"subscriber_id": sub.ID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.Events:
			if !ok {
				return false
			}
			c.SSEvent(EventStockUpdated, ev)
			return true
		}
	})
	h.logger.Debug("stock stream closed", zap.String("subscriber_id", sub.ID))
}

type subscribeRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required"`
	ProductID    string `json:"product_id" binding:"required"`
}

func (h *StreamHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.tracker.Track(c.Request.Context(), req.SubscriberID, req.ProductID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Envelope{Success: true, Data: gin.H{
		"subscriber_id": req.SubscriberID,
		"product_id":    req.ProductID,
	}})
}
