package valueobject

import "github.com/ignatzorin/immo-backend/internal/pkg/apperror"

// ContractStatus - закрытый словарь статусов договора. Значения
// хранятся в базе как есть, менять их нельзя без миграции данных.
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusSigned     ContractStatus = "SIGNED"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusTerminated ContractStatus = "TERMINATED"
	ContractStatusCancelled  ContractStatus = "CANCELLED"
)

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusSigned, ContractStatusActive, ContractStatusTerminated, ContractStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода по машине состояний:
// DRAFT -> SIGNED -> ACTIVE -> TERMINATED, CANCELLED только из SIGNED.
// Окно отзыва проверяется движком отдельно, здесь только топология.
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	transitions := map[ContractStatus][]ContractStatus{
		ContractStatusDraft:      {ContractStatusSigned},
		ContractStatusSigned:     {ContractStatusActive, ContractStatusCancelled},
		ContractStatusActive:     {ContractStatusTerminated},
		ContractStatusTerminated: {},
		ContractStatusCancelled:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов вперёд.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusTerminated || s == ContractStatusCancelled
}

func NewContractStatus(status string) (ContractStatus, error) {
	s := ContractStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус договора")
	}
	return s, nil
}

// PaymentStatus - закрытый словарь статусов платежа.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusInEscrow PaymentStatus = "IN_ESCROW"
	PaymentStatusComplete PaymentStatus = "COMPLETE"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusInEscrow, PaymentStatusComplete, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo: PENDING -> IN_ESCROW -> COMPLETE/REFUNDED,
// PENDING -> COMPLETE напрямую (оплата без escrow, например наличными),
// PENDING -> FAILED.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:  {PaymentStatusInEscrow, PaymentStatusComplete, PaymentStatusFailed},
		PaymentStatusInEscrow: {PaymentStatusComplete, PaymentStatusRefunded},
		PaymentStatusComplete: {},
		PaymentStatusRefunded: {},
		PaymentStatusFailed:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

// IsFinal сообщает, что история платежа закрыта и неизменяема.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusComplete || s == PaymentStatusRefunded || s == PaymentStatusFailed
}

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус платежа")
	}
	return s, nil
}
