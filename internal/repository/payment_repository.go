package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/repository/common"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository отвечает за таблицу payments. Как и в договорах,
// каждый переход - один UPDATE с предикатом по исходному статусу:
// все поля перехода коммитятся вместе или не коммитятся вовсе.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create вставляет платёж в статусе PENDING.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			reference, contract_id, status, payer_id, beneficiary_id,
			amount_rent, amount_deposit, amount_commission, amount_total, method
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		payment.Reference,
		payment.ContractID,
		payment.Status,
		payment.PayerID,
		payment.BeneficiaryID,
		payment.AmountRent,
		payment.AmountDeposit,
		payment.AmountCommission,
		payment.AmountTotal,
		payment.Method,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
		return fmt.Errorf("payment repository: create %w", err)
	}
	return nil
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, `SELECT * FROM payments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by id %w", err)
	}
	return &payment, nil
}

// GetByContractID возвращает платёж по договору.
func (r *PaymentRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, `SELECT * FROM payments WHERE contract_id = $1`, contractID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by contract id %w", err)
	}
	return &payment, nil
}

// PlaceInEscrow переводит PENDING -> IN_ESCROW и ставит окно удержания.
func (r *PaymentRepository) PlaceInEscrow(ctx context.Context, id uuid.UUID, startedAt, expiresAt time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'IN_ESCROW', escrow_started_at = $2, escrow_expires_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING *
	`
	return r.casUpdate(ctx, "place in escrow", query, id, startedAt, expiresAt)
}

// Confirm переводит платёж в COMPLETE из PENDING либо IN_ESCROW
// (прямое подтверждение, например оплата наличными).
func (r *PaymentRepository) Confirm(ctx context.Context, id uuid.UUID, externalTxnID *string, validatedAt time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'COMPLETE', date_validation = $2,
			external_txn_id = COALESCE($3, external_txn_id), updated_at = NOW()
		WHERE id = $1 AND status IN ('PENDING', 'IN_ESCROW')
		RETURNING *
	`
	return r.casUpdate(ctx, "confirm", query, id, validatedAt, externalTxnID)
}

// Release переводит IN_ESCROW -> COMPLETE по истечении удержания,
// дополнительно фиксируя момент выхода из escrow.
func (r *PaymentRepository) Release(ctx context.Context, id uuid.UUID, releasedAt time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'COMPLETE', escrow_released_at = $2, date_validation = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_ESCROW'
		RETURNING *
	`
	return r.casUpdate(ctx, "release", query, id, releasedAt)
}

// Refund переводит IN_ESCROW -> REFUNDED.
func (r *PaymentRepository) Refund(ctx context.Context, id uuid.UUID, reason string, refundedAt time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'REFUNDED', refunded_at = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_ESCROW'
		RETURNING *
	`
	return r.casUpdate(ctx, "refund", query, id, refundedAt, reason)
}

// Fail переводит PENDING -> FAILED (средства не были захвачены).
func (r *PaymentRepository) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'FAILED', failure_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING *
	`
	return r.casUpdate(ctx, "fail", query, id, reason)
}

// ListExpiredEscrow возвращает платежи, у которых удержание истекло к
// now, а связанный договор не отменён и уже вышел из окна отзыва.
// Платежи по отменённым договорам свипер не трогает: их судьба
// решена транзакцией отмены.
func (r *PaymentRepository) ListExpiredEscrow(ctx context.Context, now, retractionCutoff time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	query := `
		SELECT p.* FROM payments p
		JOIN contracts c ON c.id = p.contract_id
		WHERE p.status = 'IN_ESCROW'
		  AND p.escrow_expires_at <= $1
		  AND c.status <> 'CANCELLED'
		  AND (c.status = 'ACTIVE' OR c.signature_complete_at <= $2)
		ORDER BY p.escrow_expires_at
		LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &payments, query, now, retractionCutoff, limit); err != nil {
		return nil, fmt.Errorf("payment repository: list expired escrow %w", err)
	}
	return payments, nil
}

func (r *PaymentRepository) casUpdate(ctx context.Context, op, query string, args ...interface{}) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrStatusConflict
		}
		return nil, fmt.Errorf("payment repository: %s %w", op, err)
	}
	return &payment, nil
}
