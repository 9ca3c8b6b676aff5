package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/stock/p1", nil)
	Error(c, logger.NewNop(), err)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperror.NewValidationError("quantity", "must be positive"), http.StatusBadRequest, apperror.CodeValidation},
		{"adjustment", apperror.NewAdjustmentValidationError("reason too short"), http.StatusBadRequest, apperror.CodeAdjustmentValidation},
		{"insufficient", apperror.NewInsufficientStock("p1", "Widget", 5, 3), http.StatusBadRequest, apperror.CodeInsufficientStock},
		{"concurrency", &apperror.ConcurrencyError{ProductID: "p1", ExpectedVersion: 1, ActualVersion: 2}, http.StatusConflict, apperror.CodeConcurrency},
		{"not found", apperror.NewNotFound("order", "o1"), http.StatusNotFound, apperror.CodeNotFound},
		{"infrastructure", errors.New("connection reset by peer"), http.StatusInternalServerError, apperror.CodeStockUpdate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := serve(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestError_DoesNotLeakCause(t *testing.T) {
	w, env := serve(t, apperror.NewStockUpdateError("update stock", errors.New("pq: password authentication failed")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "stock update failed", env.Error.Message)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestError_ConcurrencyDetails(t *testing.T) {
	_, env := serve(t, &apperror.ConcurrencyError{ProductID: "p1", ExpectedVersion: 3, ActualVersion: 4})
	details, ok := env.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, details["retry"])
	assert.Equal(t, float64(4), details["actual_version"])
}
