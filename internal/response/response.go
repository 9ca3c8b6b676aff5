package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Page struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest reports a request that could not be decoded.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: &ErrorBody{Code: apperror.CodeValidation, Message: message}})
}

// Error maps err onto the envelope. Infrastructure causes are logged, never returned.
func Error(c *gin.Context, log logger.ZapLogger, err error) {
	appErr := apperror.As(err)
	status := appErr.HTTPStatus()

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code()),
			zap.Error(err),
		)
	} else {
		log.Info("request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code()),
			zap.String("reason", err.Error()),
		)
	}

	c.AbortWithStatusJSON(status, Envelope{Error: &ErrorBody{
		Code:    appErr.Code(),
		Message: appErr.PublicMessage(),
		Details: details(err),
	}})
}

func details(err error) interface{} {
	var insufficient *apperror.InsufficientStockError
	if errors.As(err, &insufficient) {
		return gin.H{"shortfalls": insufficient.Shortfalls}
	}
	var conflict *apperror.ConcurrencyError
	if errors.As(err, &conflict) {
		return gin.H{
			"product_id":       conflict.ProductID,
			"expected_version": conflict.ExpectedVersion,
			"actual_version":   conflict.ActualVersion,
			"retry":            true,
		}
	}
	var validation *apperror.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		return gin.H{"field": validation.Field}
	}
	return nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination reads page and page_size query parameters, clamping them to sane bounds.
func Pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
