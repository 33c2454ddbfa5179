package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
)

// Способы оплаты.
const (
	PaymentMethodWave        = "wave"
	PaymentMethodOrangeMoney = "orange_money"
	PaymentMethodCard        = "card"
	PaymentMethodCash        = "cash"
)

// Payment - платёж по договору (аренда + залог + комиссия площадки).
// У договора не более одного платежа. Переходы статуса выполняет
// только движок escrow.
type Payment struct {
	ID         uuid.UUID                 `db:"id" json:"id"`
	Reference  string                    `db:"reference" json:"reference"`
	ContractID uuid.UUID                 `db:"contract_id" json:"contract_id"`
	Status     valueobject.PaymentStatus `db:"status" json:"status"`

	PayerID       uuid.UUID `db:"payer_id" json:"payer_id"`
	BeneficiaryID uuid.UUID `db:"beneficiary_id" json:"beneficiary_id"`

	// Разбивка суммы в целых FCFA. Total = Rent + Deposit + Commission.
	AmountRent       int64 `db:"amount_rent" json:"amount_rent"`
	AmountDeposit    int64 `db:"amount_deposit" json:"amount_deposit"`
	AmountCommission int64 `db:"amount_commission" json:"amount_commission"`
	AmountTotal      int64 `db:"amount_total" json:"amount_total"`

	Method        string  `db:"method" json:"method"`
	ExternalTxnID *string `db:"external_txn_id" json:"external_txn_id,omitempty"`

	// Метки escrow имеют смысл, пока статус IN_ESCROW; после
	// COMPLETE/REFUNDED/FAILED это неизменяемая история.
	EscrowStartedAt  *time.Time `db:"escrow_started_at" json:"escrow_started_at,omitempty"`
	EscrowExpiresAt  *time.Time `db:"escrow_expires_at" json:"escrow_expires_at,omitempty"`
	EscrowReleasedAt *time.Time `db:"escrow_released_at" json:"escrow_released_at,omitempty"`
	RefundedAt       *time.Time `db:"refunded_at" json:"refunded_at,omitempty"`
	DateValidation   *time.Time `db:"date_validation" json:"date_validation,omitempty"`

	FailureReason *string `db:"failure_reason" json:"failure_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentAmounts - разбивка суммы при создании платежа.
type PaymentAmounts struct {
	Rent       int64 `json:"rent"`
	Deposit    int64 `json:"deposit"`
	Commission int64 `json:"commission"`
}

// Total возвращает итоговую сумму платежа.
func (a PaymentAmounts) Total() int64 {
	return a.Rent + a.Deposit + a.Commission
}
