package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
	"github.com/ignatzorin/immo-backend/internal/http/handlers/common"
	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/service"
)

type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Create POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	ownerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Type           string  `json:"type" binding:"required"`
		TenantID       string  `json:"tenant_id" binding:"required"`
		ListingID      *string `json:"listing_id"`
		MonthlyRent    int64   `json:"monthly_rent"`
		DepositAmount  int64   `json:"deposit_amount"`
		DurationMonths int     `json:"duration_months"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contractType, err := valueobject.NewContractType(req.Type)
	if err != nil {
		c.Error(err)
		return
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		common.RespondBadRequest(c, "неверный tenant_id")
		return
	}

	input := service.CreateContractInput{
		Type:           contractType,
		OwnerID:        ownerID,
		TenantID:       tenantID,
		MonthlyRent:    req.MonthlyRent,
		DepositAmount:  req.DepositAmount,
		DurationMonths: req.DurationMonths,
	}
	if req.ListingID != nil {
		listingID, err := uuid.Parse(*req.ListingID)
		if err != nil {
			common.RespondBadRequest(c, "неверный listing_id")
			return
		}
		input.ListingID = &listingID
	}

	contract, err := h.contracts.Create(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, contract)
}

// Get GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	contract, err := h.contracts.GetByID(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// UpdateTerms PATCH /contracts/:id/terms
func (h *ContractHandler) UpdateTerms(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	var req struct {
		MonthlyRent    int64 `json:"monthly_rent"`
		DepositAmount  int64 `json:"deposit_amount"`
		DurationMonths int   `json:"duration_months"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.UpdateTerms(c.Request.Context(), contractID, req.MonthlyRent, req.DepositAmount, req.DurationMonths)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Sign POST /contracts/:id/signatures
func (h *ContractHandler) Sign(c *gin.Context) {
	partyID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	var req struct {
		SignatureHash string `json:"signature_hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "хэш подписи обязателен")
		return
	}

	meta := models.SignatureMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	contract, err := h.contracts.RecordSignature(c.Request.Context(), contractID, partyID, req.SignatureHash, meta)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Signatures GET /contracts/:id/signatures
func (h *ContractHandler) Signatures(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	sigs, err := h.contracts.ListSignatures(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, sigs)
}

// Cancel POST /contracts/:id/cancel
func (h *ContractHandler) Cancel(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина отмены обязательна")
		return
	}

	contract, err := h.contracts.Cancel(c.Request.Context(), contractID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Activate POST /contracts/:id/activate
func (h *ContractHandler) Activate(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	contract, err := h.contracts.Activate(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Lock POST /contracts/:id/lock
func (h *ContractHandler) Lock(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	contract, err := h.contracts.Lock(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Terminate POST /contracts/:id/terminate
func (h *ContractHandler) Terminate(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	contract, err := h.contracts.Terminate(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Renew POST /contracts/:id/renew
func (h *ContractHandler) Renew(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	var req struct {
		MonthlyRent    *int64 `json:"monthly_rent"`
		DepositAmount  *int64 `json:"deposit_amount"`
		DurationMonths *int   `json:"duration_months"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	renewed, err := h.contracts.Renew(c.Request.Context(), contractID, service.RenewOverrides{
		MonthlyRent:    req.MonthlyRent,
		DepositAmount:  req.DepositAmount,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, renewed)
}

// Archive POST /contracts/:id/archive
func (h *ContractHandler) Archive(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	contract, err := h.contracts.Archive(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}
