package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/repository/common"
)

var (
	ErrContractNotFound  = errors.New("contract not found")
	ErrSignatureConflict = errors.New("signature already recorded for party")
)

// ContractRepository отвечает за таблицы contracts и contract_signatures.
// Каждый переход статуса - один UPDATE с предикатом по исходному
// статусу (compare-and-swap): либо строка переводится целиком, либо не
// трогается вовсе. 0 затронутых строк у существующего договора означает
// проигранную гонку и возвращается как common.ErrStatusConflict.
type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create вставляет новый договор в статусе DRAFT.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (
			reference, type, status, owner_id, tenant_id, listing_id,
			monthly_rent, deposit_amount, duration_months
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		contract.Reference,
		contract.Type,
		contract.Status,
		contract.OwnerID,
		contract.TenantID,
		contract.ListingID,
		contract.MonthlyRent,
		contract.DepositAmount,
		contract.DurationMonths,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt); err != nil {
		return fmt.Errorf("contract repository: create %w", err)
	}
	return nil
}

// GetByID возвращает договор по идентификатору.
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by id %w", err)
	}
	return &contract, nil
}

// GetByReference возвращает договор по человекочитаемому номеру.
func (r *ContractRepository) GetByReference(ctx context.Context, ref string) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.GetContext(ctx, &contract, `SELECT * FROM contracts WHERE reference = $1`, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: get by reference %w", err)
	}
	return &contract, nil
}

// AddSignature вставляет запись о подписи. Повторная подпись той же
// стороны упирается в уникальный индекс и возвращается как
// ErrSignatureConflict.
func (r *ContractRepository) AddSignature(ctx context.Context, sig *models.ContractSignature) error {
	query := `
		INSERT INTO contract_signatures (contract_id, party_id, signature_hash, ip_address, user_agent, signed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		sig.ContractID,
		sig.PartyID,
		sig.SignatureHash,
		sig.IPAddress,
		sig.UserAgent,
		sig.SignedAt,
	).Scan(&sig.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSignatureConflict
		}
		return fmt.Errorf("contract repository: add signature %w", err)
	}
	return nil
}

// ListSignatures возвращает все подписи договора.
func (r *ContractRepository) ListSignatures(ctx context.Context, contractID uuid.UUID) ([]models.ContractSignature, error) {
	var sigs []models.ContractSignature
	query := `SELECT * FROM contract_signatures WHERE contract_id = $1 ORDER BY signed_at`
	if err := r.db.SelectContext(ctx, &sigs, query, contractID); err != nil {
		return nil, fmt.Errorf("contract repository: list signatures %w", err)
	}
	return sigs, nil
}

// MarkSigned переводит договор DRAFT -> SIGNED и фиксирует момент
// полного подписания.
func (r *ContractRepository) MarkSigned(ctx context.Context, id uuid.UUID, completeAt time.Time) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET status = 'SIGNED', signature_complete_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT'
		RETURNING *
	`
	return r.casUpdate(ctx, "mark signed", query, id, completeAt)
}

// Activate переводит договор SIGNED -> ACTIVE и ставит дату начала.
func (r *ContractRepository) Activate(ctx context.Context, id uuid.UUID, startDate time.Time) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET status = 'ACTIVE', start_date = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'SIGNED'
		RETURNING *
	`
	return r.casUpdate(ctx, "activate", query, id, startDate)
}

// Terminate переводит договор ACTIVE -> TERMINATED и ставит дату конца.
func (r *ContractRepository) Terminate(ctx context.Context, id uuid.UUID, endDate time.Time) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET status = 'TERMINATED', end_date = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE'
		RETURNING *
	`
	return r.casUpdate(ctx, "terminate", query, id, endDate)
}

// Lock помечает договор неизменяемым.
func (r *ContractRepository) Lock(ctx context.Context, id uuid.UUID, lockedAt time.Time) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET is_locked = TRUE, locked_at = COALESCE(locked_at, $2), updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`
	var contract models.Contract
	if err := r.db.QueryRowxContext(ctx, query, id, lockedAt).StructScan(&contract); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("contract repository: lock %w", err)
	}
	return &contract, nil
}

// UpdateTerms изменяет денежные условия черновика. Заблокированный или
// уже подписанный договор не трогается - предикат не совпадёт.
func (r *ContractRepository) UpdateTerms(ctx context.Context, id uuid.UUID, monthlyRent, depositAmount int64, durationMonths int) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET monthly_rent = $2, deposit_amount = $3, duration_months = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'DRAFT' AND is_locked = FALSE
		RETURNING *
	`
	return r.casUpdate(ctx, "update terms", query, id, monthlyRent, depositAmount, durationMonths)
}

// Archive ставит метку мягкого удаления завершённому договору.
func (r *ContractRepository) Archive(ctx context.Context, id uuid.UUID, archivedAt time.Time) (*models.Contract, error) {
	query := `
		UPDATE contracts
		SET archived_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'TERMINATED' AND archived_at IS NULL
		RETURNING *
	`
	return r.casUpdate(ctx, "archive", query, id, archivedAt)
}

// CancelWithRefund отменяет договор и, если по нему есть платёж в
// escrow, возвращает средства - обе записи в одной транзакции. Никогда
// не оставляет отменённый договор с удержанным платежом.
func (r *ContractRepository) CancelWithRefund(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Contract, *models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("contract repository: cancel begin tx %w", err)
	}
	defer tx.Rollback()

	var contract models.Contract
	err = tx.QueryRowxContext(ctx, `
		UPDATE contracts
		SET status = 'CANCELLED', cancelled_at = $2, cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'SIGNED'
		RETURNING *
	`, id, now, reason).StructScan(&contract)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrStatusConflict
		}
		return nil, nil, fmt.Errorf("contract repository: cancel %w", err)
	}

	// Платёж блокируем до проверки статуса, чтобы не гоняться со
	// свипером releaseDueEscrows.
	var payment models.Payment
	err = tx.GetContext(ctx, &payment, `SELECT * FROM payments WHERE contract_id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Платежа нет - отменяем только договор.
			return &contract, nil, tx.Commit()
		}
		return nil, nil, fmt.Errorf("contract repository: cancel get payment %w", err)
	}

	if payment.Status == valueobject.PaymentStatusInEscrow {
		err = tx.QueryRowxContext(ctx, `
			UPDATE payments
			SET status = 'REFUNDED', refunded_at = $2, failure_reason = $3, updated_at = NOW()
			WHERE id = $1 AND status = 'IN_ESCROW'
			RETURNING *
		`, payment.ID, now, reason).StructScan(&payment)
		if err != nil {
			return nil, nil, fmt.Errorf("contract repository: cancel refund payment %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, nil, fmt.Errorf("contract repository: cancel commit %w", err)
		}
		return &contract, &payment, nil
	}

	return &contract, nil, tx.Commit()
}

// ListDueForActivation возвращает подписанные договоры, у которых окно
// отзыва закрылось не позднее cutoff.
func (r *ContractRepository) ListDueForActivation(ctx context.Context, cutoff time.Time, limit int) ([]models.Contract, error) {
	var contracts []models.Contract
	query := `
		SELECT * FROM contracts
		WHERE status = 'SIGNED' AND signature_complete_at <= $1
		ORDER BY signature_complete_at
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &contracts, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("contract repository: list due for activation %w", err)
	}
	return contracts, nil
}

// casUpdate выполняет UPDATE с предикатом по статусу. sql.ErrNoRows
// здесь означает либо отсутствие строки, либо чужой переход; различает
// их вызывающая сторона по повторному чтению.
func (r *ContractRepository) casUpdate(ctx context.Context, op, query string, args ...interface{}) (*models.Contract, error) {
	var contract models.Contract
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&contract); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrStatusConflict
		}
		return nil, fmt.Errorf("contract repository: %s %w", op, err)
	}
	return &contract, nil
}
