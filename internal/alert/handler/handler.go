package handler

import (
	"strconv"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/response"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	uc     alert.UseCase
	logger logger.ZapLogger
}

func NewAlertHandler(uc alert.UseCase, log logger.ZapLogger) *AlertHandler {
	return &AlertHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/alerts")
	g.GET("", h.ListAlerts)
	g.GET("/statistics", h.Statistics)
	g.POST("/sync", h.SyncOutOfStock)
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	page, pageSize := response.Pagination(c)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "true"))

	items, total, err := h.uc.ListAlerts(c.Request.Context(), &dto.AlertFilters{
		ProductID:  c.Query("product_id"),
		ActiveOnly: activeOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *AlertHandler) Statistics(c *gin.Context) {
	stats, err := h.uc.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, stats)
}

func (h *AlertHandler) SyncOutOfStock(c *gin.Context) {
	result, err := h.uc.SyncOutOfStock(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, result)
}
