package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
)

// Contract описывает договор между владельцем и арендатором/покупателем.
// Статус и временные метки пишутся только движком жизненного цикла,
// прямые записи полей мимо переходов запрещены.
type Contract struct {
	ID        uuid.UUID                  `db:"id" json:"id"`
	Reference string                     `db:"reference" json:"reference"`
	Type      valueobject.ContractType   `db:"type" json:"type"`
	Status    valueobject.ContractStatus `db:"status" json:"status"`

	OwnerID   uuid.UUID  `db:"owner_id" json:"owner_id"`
	TenantID  uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	ListingID *uuid.UUID `db:"listing_id" json:"listing_id,omitempty"`

	// Денежные условия в целых FCFA.
	MonthlyRent    int64 `db:"monthly_rent" json:"monthly_rent"`
	DepositAmount  int64 `db:"deposit_amount" json:"deposit_amount"`
	DurationMonths int   `db:"duration_months" json:"duration_months"`

	SignatureCompleteAt *time.Time `db:"signature_complete_at" json:"signature_complete_at,omitempty"`
	StartDate           *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate             *time.Time `db:"end_date" json:"end_date,omitempty"`

	IsLocked bool       `db:"is_locked" json:"is_locked"`
	LockedAt *time.Time `db:"locked_at" json:"locked_at,omitempty"`

	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	// Мягкое удаление: договор хранится бессрочно для юридического архива.
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsParty проверяет, что пользователь является одной из сторон договора.
func (c *Contract) IsParty(userID uuid.UUID) bool {
	return userID == c.OwnerID || userID == c.TenantID
}

// ContractSignature - запись о подписи стороны. Создаётся один раз,
// никогда не изменяется и не удаляется. Уникальность пары
// (contract_id, party_id) обеспечивается ограничением в базе.
type ContractSignature struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ContractID    uuid.UUID `db:"contract_id" json:"contract_id"`
	PartyID       uuid.UUID `db:"party_id" json:"party_id"`
	SignatureHash string    `db:"signature_hash" json:"signature_hash"`
	IPAddress     *string   `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent     *string   `db:"user_agent" json:"user_agent,omitempty"`
	SignedAt      time.Time `db:"signed_at" json:"signed_at"`
}

// SignatureMeta - метаданные захвата подписи.
type SignatureMeta struct {
	IPAddress string
	UserAgent string
}
