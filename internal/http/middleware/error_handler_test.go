package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/immo-backend/internal/pkg/apperror"
)

func serveWithError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		c.Error(err)
	})

	req, _ := http.NewRequest("GET", "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandler_NotFound(t *testing.T) {
	w := serveWithError(t, apperror.ErrContractNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestErrorHandler_InvalidState(t *testing.T) {
	w := serveWithError(t, apperror.InvalidState("окно отзыва истекло", "CANCELLED", "SIGNED"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STATE")
}

func TestErrorHandler_InvalidParty(t *testing.T) {
	w := serveWithError(t, apperror.ErrInvalidParty)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PARTY")
}

func TestErrorHandler_Validation(t *testing.T) {
	w := serveWithError(t, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestErrorHandler_InternalMasked(t *testing.T) {
	w := serveWithError(t, apperror.New(apperror.ErrCodeTransactionFailed, "tx деталь наружу не уходит"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "деталь")
	assert.Contains(t, w.Body.String(), "внутренняя ошибка сервера")
}

func TestErrorHandler_UnknownError(t *testing.T) {
	w := serveWithError(t, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
