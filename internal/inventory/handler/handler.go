package handler

import (
	"strconv"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/response"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	p := rg.Group("/products/:id")
	p.PATCH("/stock", h.UpdateStock)
	p.PUT("/stock", h.SetStockLevel)
	p.GET("/stock/history", h.GetStockHistory)
	p.GET("/ledger/verify", h.VerifyLedger)
	p.POST("/adjustments", h.CreateAdjustment)
	p.GET("/reorder/suggestion", h.SuggestReorderPoint)
	p.POST("/reorder/validate", h.ValidateReorderPoint)
	p.PUT("/reorder-point", h.UpdateReorderPoint)

	inv := rg.Group("/inventory")
	inv.GET("/movements", h.ListMovements)
	inv.GET("/movements/statistics", h.MovementStatistics)
	inv.GET("/adjustments", h.ListAdjustments)
	inv.POST("/reorder/bulk", h.BulkUpdateReorderPoints)
	inv.GET("/reorder/alerts", h.ListAtOrBelowReorderPoint)
}

type updateStockRequest struct {
	Delta           int     `json:"delta"`
	MovementType    string  `json:"movement_type" binding:"required"`
	Reason          *string `json:"reason"`
	Reference       *string `json:"reference"`
	Notes           *string `json:"notes"`
	ExpectedVersion *int    `json:"expected_version"`
	// RetryOnConflict reloads the version and retries instead of returning 409.
	RetryOnConflict bool `json:"retry_on_conflict"`
}

func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input := &dto.UpdateStockInput{
		ProductID:       c.Param("id"),
		Delta:           req.Delta,
		UserID:          auth.GetUserID(c.Request.Context()),
		MovementType:    model.MovementType(req.MovementType),
		Reason:          req.Reason,
		Reference:       req.Reference,
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	}

	var (
		result *dto.StockResult
		err    error
	)
	if req.RetryOnConflict {
		result, err = h.uc.RetryWithLatestVersion(c.Request.Context(), input)
	} else {
		result, err = h.uc.UpdateStock(c.Request.Context(), input)
	}
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

type setStockRequest struct {
	NewQuantity *int    `json:"new_quantity" binding:"required"`
	Reason      string  `json:"reason"`
	Notes       *string `json:"notes"`
}

func (h *InventoryHandler) SetStockLevel(c *gin.Context) {
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.uc.SetStockLevel(c.Request.Context(), &dto.SetStockLevelInput{
		ProductID:   c.Param("id"),
		NewQuantity: *req.NewQuantity,
		UserID:      auth.GetUserID(c.Request.Context()),
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

func (h *InventoryHandler) GetStockHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.uc.GetStockHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, movements)
}

func (h *InventoryHandler) VerifyLedger(c *gin.Context) {
	report, err := h.uc.VerifyProductLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, report)
}

type adjustmentRequest struct {
	Direction string `json:"direction" binding:"required"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	Confirmed bool   `json:"confirmed"`
}

func (h *InventoryHandler) CreateAdjustment(c *gin.Context) {
	var req adjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.uc.CreateManualAdjustment(c.Request.Context(), &dto.AdjustmentInput{
		ProductID: c.Param("id"),
		Direction: dto.AdjustmentDirection(req.Direction),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		UserID:    auth.GetUserID(c.Request.Context()),
		Confirmed: req.Confirmed,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if result.RequiresConfirmation {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

func (h *InventoryHandler) ListAdjustments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.uc.ListAdjustments(c.Request.Context(), &dto.AdjustmentFilters{
		ProductID: c.Query("product_id"),
		UserID:    c.Query("user_id"),
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, items)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, pageSize := response.Pagination(c)
	from, to, err := timeRange(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	items, total, err := h.uc.ListMovements(c.Request.Context(), &dto.MovementFilters{
		ProductID:    c.Query("product_id"),
		MovementType: c.Query("movement_type"),
		UserID:       c.Query("user_id"),
		OrderID:      c.Query("order_id"),
		From:         from,
		To:           to,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, response.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *InventoryHandler) MovementStatistics(c *gin.Context) {
	from, to, err := timeRange(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	stats, err := h.uc.MovementStatistics(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, stats)
}

func (h *InventoryHandler) SuggestReorderPoint(c *gin.Context) {
	// Missing or malformed values fall back to the configured defaults.
	lead := queryInt(c, "lead_time_days", 0)
	safety := queryInt(c, "safety_stock_days", -1)

	suggestion, err := h.uc.SuggestReorderPoint(c.Request.Context(), c.Param("id"), lead, safety)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, suggestion)
}

type reorderPointRequest struct {
	ReorderPoint *int `json:"reorder_point" binding:"required"`
}

func (h *InventoryHandler) ValidateReorderPoint(c *gin.Context) {
	var req reorderPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	validation, err := h.uc.ValidateReorderPoint(c.Request.Context(), c.Param("id"), *req.ReorderPoint)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, validation)
}

func (h *InventoryHandler) UpdateReorderPoint(c *gin.Context) {
	var req reorderPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.uc.UpdateReorderPoint(c.Request.Context(), c.Param("id"), *req.ReorderPoint)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, product)
}

type bulkReorderRequest struct {
	CategoryID        string `json:"category_id" binding:"required"`
	ReorderPoint      *int   `json:"reorder_point" binding:"required"`
	OverwriteExisting *bool  `json:"overwrite_existing"`
}

func (h *InventoryHandler) BulkUpdateReorderPoints(c *gin.Context) {
	var req bulkReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	overwrite := true
	if req.OverwriteExisting != nil {
		overwrite = *req.OverwriteExisting
	}

	result, err := h.uc.BulkUpdateReorderPoints(c.Request.Context(), &dto.BulkReorderInput{
		CategoryID:        req.CategoryID,
		ReorderPoint:      *req.ReorderPoint,
		OverwriteExisting: overwrite,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, result)
}

func (h *InventoryHandler) ListAtOrBelowReorderPoint(c *gin.Context) {
	products, err := h.uc.ListAtOrBelowReorderPoint(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, products)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func timeRange(c *gin.Context) (from, to *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		raw := c.Query(key)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, apperror.NewValidationError(key, "must be an RFC3339 timestamp")
		}
		return &t, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
