// Package apperror holds the error taxonomy shared by the stock engine and the order engine.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeAdjustmentValidation = "ADJUSTMENT_VALIDATION_ERROR"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeConcurrency          = "CONCURRENCY_ERROR"
	CodeStockUpdate          = "STOCK_UPDATE_ERROR"
	CodeNotFound             = "RESOURCE_NOT_FOUND"
)

// AppError is implemented by every error in the taxonomy.
type AppError interface {
	error
	Code() string
	Retryable() bool
	HTTPStatus() int
	// PublicMessage is safe to return to callers.
	PublicMessage() string
}

// ValidationError is a malformed input or a business rule violated before storage is touched.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Code() string          { return CodeValidation }
func (e *ValidationError) Retryable() bool       { return false }
func (e *ValidationError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *ValidationError) PublicMessage() string { return e.Message }

// AdjustmentValidationError is raised by the manual adjustment rules.
type AdjustmentValidationError struct {
	Message string
}

func NewAdjustmentValidationError(format string, args ...any) *AdjustmentValidationError {
	return &AdjustmentValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *AdjustmentValidationError) Error() string         { return "adjustment rejected: " + e.Message }
func (e *AdjustmentValidationError) Code() string          { return CodeAdjustmentValidation }
func (e *AdjustmentValidationError) Retryable() bool       { return false }
func (e *AdjustmentValidationError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *AdjustmentValidationError) PublicMessage() string { return e.Message }

// Shortfall describes one product that cannot cover the requested quantity.
type Shortfall struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError carries one shortfall for a direct mutation and one per short
// line item for an order.
type InsufficientStockError struct {
	Message    string
	Shortfalls []Shortfall
}

func NewInsufficientStock(productID, productName string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		Message: fmt.Sprintf("insufficient stock for %s: requested %d, available %d", productID, requested, available),
		Shortfalls: []Shortfall{{
			ProductID:   productID,
			ProductName: productName,
			Requested:   requested,
			Available:   available,
		}},
	}
}

func NewInsufficientStockForItems(shortfalls []Shortfall) *InsufficientStockError {
	return &InsufficientStockError{
		Message:    fmt.Sprintf("insufficient stock for %d product(s)", len(shortfalls)),
		Shortfalls: shortfalls,
	}
}

func (e *InsufficientStockError) Error() string         { return e.Message }
func (e *InsufficientStockError) Code() string          { return CodeInsufficientStock }
func (e *InsufficientStockError) Retryable() bool       { return false }
func (e *InsufficientStockError) HTTPStatus() int       { return http.StatusBadRequest }
func (e *InsufficientStockError) PublicMessage() string { return e.Message }

// ConcurrencyError means the row changed since the caller read it. Safe to retry with fresh state.
// Err carries the driver failure when the conflict came from the database.
type ConcurrencyError struct {
	ProductID       string
	ExpectedVersion int
	ActualVersion   int
	Err             error
}

func (e *ConcurrencyError) Error() string {
	if e.ExpectedVersion == 0 && e.ActualVersion == 0 {
		if e.ProductID == "" {
			return fmt.Sprintf("concurrent modification: %v", e.Err)
		}
		return fmt.Sprintf("concurrent modification of product %s", e.ProductID)
	}
	return fmt.Sprintf("product %s was modified concurrently: expected version %d, actual version %d",
		e.ProductID, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

func (e *ConcurrencyError) Code() string    { return CodeConcurrency }
func (e *ConcurrencyError) Retryable() bool { return true }
func (e *ConcurrencyError) HTTPStatus() int { return http.StatusConflict }
func (e *ConcurrencyError) PublicMessage() string {
	return "stock was modified by another user, reload and try again"
}

// StockUpdateError wraps an infrastructure failure. The cause is never exposed publicly.
type StockUpdateError struct {
	Op  string
	Err error
}

func NewStockUpdateError(op string, err error) *StockUpdateError {
	return &StockUpdateError{Op: op, Err: err}
}

func (e *StockUpdateError) Error() string {
	if e.Err == nil {
		return e.Op + ": stock update failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StockUpdateError) Unwrap() error         { return e.Err }
func (e *StockUpdateError) Code() string          { return CodeStockUpdate }
func (e *StockUpdateError) Retryable() bool       { return false }
func (e *StockUpdateError) HTTPStatus() int       { return http.StatusInternalServerError }
func (e *StockUpdateError) PublicMessage() string { return "stock update failed" }

type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string         { return fmt.Sprintf("%s %s not found", e.Resource, e.ID) }
func (e *NotFoundError) Code() string          { return CodeNotFound }
func (e *NotFoundError) Retryable() bool       { return false }
func (e *NotFoundError) HTTPStatus() int       { return http.StatusNotFound }
func (e *NotFoundError) PublicMessage() string { return e.Error() }

// Wrap keeps app errors as they are and turns anything else into a StockUpdateError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr AppError
	if errors.As(err, &appErr) {
		return err
	}
	return NewStockUpdateError(op, err)
}

// As returns the AppError in err's chain, mapping unknown errors to StockUpdateError.
func As(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewStockUpdateError("unexpected", err)
}

func IsRetryable(err error) bool {
	var appErr AppError
	return errors.As(err, &appErr) && appErr.Retryable()
}

// WithProductID attributes an unattributed ConcurrencyError in err's chain to productID.
func WithProductID(err error, productID string) error {
	var ce *ConcurrencyError
	if errors.As(err, &ce) && ce.ProductID == "" {
		ce.ProductID = productID
	}
	return err
}

func IsConcurrency(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}

func HTTPStatus(err error) int {
	return As(err).HTTPStatus()
}
