package handler

import (
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/response"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	g.POST("", h.CreateOrder)
	g.GET("", h.ListOrders)
	g.POST("/availability", h.ValidateStockAvailability)
	g.GET("/:id", h.GetOrder)
	g.POST("/:id/cancel", h.CancelOrder)
	g.PATCH("/:id/status", h.UpdateOrderStatus)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.UserID = auth.GetUserID(c.Request.Context())

	o, err := h.uc.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, o)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, pageSize := response.Pagination(c)

	items, total, err := h.uc.ListOrders(c.Request.Context(), &dto.OrderFilters{
		CustomerID: c.Query("customer_id"),
		Status:     c.Query("status"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.uc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, o)
}

type availabilityRequest struct {
	Items []dto.OrderItemInput `json:"items"`
}

func (h *OrderHandler) ValidateStockAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	report, err := h.uc.ValidateStockAvailability(c.Request.Context(), req.Items)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, report)
}

type cancelRequest struct {
	Notes *string `json:"notes"`
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	o, err := h.uc.CancelOrder(c.Request.Context(), &dto.CancelOrderInput{
		OrderID: c.Param("id"),
		UserID:  auth.GetUserID(c.Request.Context()),
		Notes:   req.Notes,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, o)
}

type statusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	o, err := h.uc.UpdateOrderStatus(c.Request.Context(), &dto.UpdateStatusInput{
		OrderID: c.Param("id"),
		Status:  model.OrderStatus(req.Status),
		UserID:  auth.GetUserID(c.Request.Context()),
		Notes:   req.Notes,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, o)
}
