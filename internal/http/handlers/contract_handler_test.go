package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestContractHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.POST("/contracts", handler.Create)

	req, _ := http.NewRequest("POST", "/contracts", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContractHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.GET("/contracts/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/contracts/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractHandler_Sign_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.POST("/contracts/:id/signatures", handler.Sign)

	req, _ := http.NewRequest("POST", "/contracts/00000000-0000-0000-0000-000000000001/signatures", strings.NewReader(`{"signature_hash":"abcd"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContractHandler_Cancel_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.POST("/contracts/:id/cancel", handler.Cancel)

	req, _ := http.NewRequest("POST", "/contracts/not-a-uuid/cancel", strings.NewReader(`{"reason":"передумал"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractHandler_Cancel_MissingReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.POST("/contracts/:id/cancel", handler.Cancel)

	req, _ := http.NewRequest("POST", "/contracts/00000000-0000-0000-0000-000000000001/cancel", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractHandler_Activate_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ContractHandler{contracts: nil}
	r.POST("/contracts/:id/activate", handler.Activate)

	req, _ := http.NewRequest("POST", "/contracts/xyz/activate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
