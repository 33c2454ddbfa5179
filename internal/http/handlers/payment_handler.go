package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
	"github.com/ignatzorin/immo-backend/internal/http/handlers/common"
	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	payerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		ContractID    string `json:"contract_id" binding:"required"`
		BeneficiaryID string `json:"beneficiary_id" binding:"required"`
		AmountRent    int64  `json:"amount_rent"`
		AmountDeposit int64  `json:"amount_deposit"`
		Commission    int64  `json:"amount_commission"`
		Method        string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		common.RespondBadRequest(c, "неверный contract_id")
		return
	}
	beneficiaryID, err := uuid.Parse(req.BeneficiaryID)
	if err != nil {
		common.RespondBadRequest(c, "неверный beneficiary_id")
		return
	}

	amounts := models.PaymentAmounts{
		Rent:       req.AmountRent,
		Deposit:    req.AmountDeposit,
		Commission: req.Commission,
	}

	payment, err := h.payments.Create(c.Request.Context(), contractID, payerID, beneficiaryID, amounts, req.Method)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Get GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	payment, err := h.payments.GetByID(c.Request.Context(), paymentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetByContract GET /contracts/:id/payment
func (h *PaymentHandler) GetByContract(c *gin.Context) {
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id договора")
		return
	}

	payment, err := h.payments.GetByContractID(c.Request.Context(), contractID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Escrow POST /payments/:id/escrow
func (h *PaymentHandler) Escrow(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	var req struct {
		HoldHours int `json:"hold_hours"`
	}
	// тело опционально, без него действует срок из конфигурации
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	payment, err := h.payments.PlaceInEscrow(c.Request.Context(), paymentID, req.HoldHours)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Confirm POST /payments/:id/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	var req struct {
		ExternalTxnID *string `json:"external_txn_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	payment, err := h.payments.Confirm(c.Request.Context(), paymentID, req.ExternalTxnID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Release POST /payments/:id/release
func (h *PaymentHandler) Release(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	payment, err := h.payments.ReleaseFromEscrow(c.Request.Context(), paymentID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Refund POST /payments/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина возврата обязательна")
		return
	}

	payment, err := h.payments.Refund(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Fail POST /payments/:id/fail
func (h *PaymentHandler) Fail(c *gin.Context) {
	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id платежа")
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина сбоя обязательна")
		return
	}

	payment, err := h.payments.Fail(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Commission GET /payments/commission?amount=&type=
func (h *PaymentHandler) Commission(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		common.RespondBadRequest(c, "сумма должна быть положительной")
		return
	}

	contractType, err := valueobject.NewContractType(c.Query("type"))
	if err != nil {
		c.Error(err)
		return
	}

	commission, err := h.payments.CalculateCommission(amount, contractType)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount":     amount,
		"type":       contractType,
		"commission": commission,
	})
}
