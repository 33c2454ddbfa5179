package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/immo-backend/internal/clock"
	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
	"github.com/ignatzorin/immo-backend/internal/logger"
	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/pkg/apperror"
	"github.com/ignatzorin/immo-backend/internal/pkg/reference"
	"github.com/ignatzorin/immo-backend/internal/repository"
	"github.com/ignatzorin/immo-backend/internal/repository/common"
	"github.com/ignatzorin/immo-backend/internal/validation"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) (*models.Payment, error)
	PlaceInEscrow(ctx context.Context, id uuid.UUID, startedAt, expiresAt time.Time) (*models.Payment, error)
	Confirm(ctx context.Context, id uuid.UUID, externalTxnID *string, validatedAt time.Time) (*models.Payment, error)
	Release(ctx context.Context, id uuid.UUID, releasedAt time.Time) (*models.Payment, error)
	Refund(ctx context.Context, id uuid.UUID, reason string, refundedAt time.Time) (*models.Payment, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Payment, error)
	ListExpiredEscrow(ctx context.Context, now, retractionCutoff time.Time, limit int) ([]models.Payment, error)
}

// ContractReader - доступ движка платежей к договорам только на чтение.
type ContractReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// PaymentService - движок жизненного цикла платежа:
// PENDING -> IN_ESCROW -> COMPLETE/REFUNDED, PENDING -> COMPLETE
// напрямую, PENDING -> FAILED. Каждый переход - один атомарный UPDATE
// с проверкой исходного статуса.
type PaymentService struct {
	repo       PaymentRepository
	contracts  ContractReader
	notifier   Notifier
	clk        clock.Clock
	escrowHold time.Duration
	retraction time.Duration
	log        *logrus.Entry
}

func NewPaymentService(repo PaymentRepository, contracts ContractReader, notifier Notifier, clk clock.Clock, escrowHold, retraction time.Duration) *PaymentService {
	if escrowHold <= 0 {
		escrowHold = 48 * time.Hour
	}
	if retraction <= 0 {
		retraction = 48 * time.Hour
	}
	return &PaymentService{
		repo:       repo,
		contracts:  contracts,
		notifier:   notifier,
		clk:        clk,
		escrowHold: escrowHold,
		retraction: retraction,
		log:        logger.WithComponent("escrow-engine"),
	}
}

// Create создаёт платёж по договору в статусе PENDING. Плательщик и
// получатель обязаны быть сторонами договора.
func (s *PaymentService) Create(ctx context.Context, contractID, payerID, beneficiaryID uuid.UUID, amounts models.PaymentAmounts, method string) (*models.Payment, error) {
	if err := validation.ValidateAmount("арендная часть", amounts.Rent); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("залоговая часть", amounts.Deposit); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("комиссия", amounts.Commission); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if amounts.Total() <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "итоговая сумма должна быть положительной")
	}

	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать договор")
	}
	if !contract.IsParty(payerID) || !contract.IsParty(beneficiaryID) {
		return nil, apperror.ErrInvalidParty
	}

	payment := &models.Payment{
		Reference:        reference.Payment(s.clk.Now()),
		ContractID:       contractID,
		Status:           valueobject.PaymentStatusPending,
		PayerID:          payerID,
		BeneficiaryID:    beneficiaryID,
		AmountRent:       amounts.Rent,
		AmountDeposit:    amounts.Deposit,
		AmountCommission: amounts.Commission,
		AmountTotal:      amounts.Total(),
		Method:           method,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать платёж")
	}
	return payment, nil
}

// GetByID возвращает платёж.
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.getPayment(ctx, id)
}

// GetByContractID возвращает платёж по договору.
func (s *PaymentService) GetByContractID(ctx context.Context, contractID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.GetByContractID(ctx, contractID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать платёж")
	}
	return payment, nil
}

// PlaceInEscrow переводит платёж на удержание: средства захвачены,
// окно escrow пошло. holdHours <= 0 означает дефолт конфигурации.
func (s *PaymentService) PlaceInEscrow(ctx context.Context, paymentID uuid.UUID, holdHours int) (*models.Payment, error) {
	// Верхняя граница обязательна: без неё произведение на time.Hour
	// переполняет int64 и expires_at уезжает в прошлое.
	if err := validation.ValidateEscrowHoldHours(holdHours); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	hold := s.escrowHold
	if holdHours > 0 {
		hold = time.Duration(holdHours) * time.Hour
	}

	now := s.clk.Now()
	payment, err := s.repo.PlaceInEscrow(ctx, paymentID, now, now.Add(hold))
	if err != nil {
		return nil, s.transitionError(ctx, paymentID, valueobject.PaymentStatusInEscrow, err)
	}

	s.emit(models.EventPaymentInEscrow, payment, map[string]any{
		"reference":         payment.Reference,
		"amount":            payment.AmountTotal,
		"escrow_expires_at": payment.EscrowExpiresAt,
	})
	return payment, nil
}

// Confirm подтверждает платёж вручную (касса, наличные, внешний шлюз):
// терминальный переход "средства рассчитаны" из PENDING или IN_ESCROW.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uuid.UUID, externalTxnID *string) (*models.Payment, error) {
	payment, err := s.repo.Confirm(ctx, paymentID, externalTxnID, s.clk.Now())
	if err != nil {
		return nil, s.transitionError(ctx, paymentID, valueobject.PaymentStatusComplete, err)
	}

	s.emit(models.EventPaymentCompleted, payment, map[string]any{
		"reference": payment.Reference,
		"amount":    payment.AmountTotal,
	})
	return payment, nil
}

// ReleaseFromEscrow выпускает средства из escrow: тот же COMPLETE, что
// и Confirm, но дополнительно фиксируется момент выхода из удержания.
// Валиден только из IN_ESCROW.
func (s *PaymentService) ReleaseFromEscrow(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.Release(ctx, paymentID, s.clk.Now())
	if err != nil {
		return nil, s.transitionError(ctx, paymentID, valueobject.PaymentStatusComplete, err)
	}

	s.emit(models.EventPaymentCompleted, payment, map[string]any{
		"reference":          payment.Reference,
		"amount":             payment.AmountTotal,
		"escrow_released_at": payment.EscrowReleasedAt,
	})
	return payment, nil
}

// Refund возвращает средства из escrow плательщику. Вызывается
// транзакцией отмены договора либо вручную администратором.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.repo.Refund(ctx, paymentID, reason, s.clk.Now())
	if err != nil {
		return nil, s.transitionError(ctx, paymentID, valueobject.PaymentStatusRefunded, err)
	}

	s.notify(models.NotificationEvent{
		EventType:  models.EventPaymentRefunded,
		Recipients: []uuid.UUID{payment.PayerID},
		Payload: map[string]any{
			"reference": payment.Reference,
			"amount":    payment.AmountTotal,
			"reason":    reason,
		},
	})
	return payment, nil
}

// Fail помечает платёж неуспешным: средства так и не были захвачены.
func (s *PaymentService) Fail(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.repo.Fail(ctx, paymentID, reason)
	if err != nil {
		return nil, s.transitionError(ctx, paymentID, valueobject.PaymentStatusFailed, err)
	}

	s.notify(models.NotificationEvent{
		EventType:  models.EventPaymentFailed,
		Recipients: []uuid.UUID{payment.PayerID},
		Payload: map[string]any{
			"reference": payment.Reference,
			"reason":    reason,
		},
	})
	return payment, nil
}

// CalculateCommission возвращает комиссию площадки. Чистая функция,
// точная десятичная арифметика.
func (s *PaymentService) CalculateCommission(amount int64, contractType valueobject.ContractType) (int64, error) {
	return valueobject.CalculateCommission(amount, contractType)
}

// ReleaseDueEscrows - свипер: выпускает платежи с истекшим удержанием,
// чьи договоры не отменены и вышли из окна отзыва. Ошибки отдельных
// платежей не прерывают проход.
func (s *PaymentService) ReleaseDueEscrows(ctx context.Context) (int, error) {
	now := s.clk.Now()
	due, err := s.repo.ListExpiredEscrow(ctx, now, now.Add(-s.retraction), 500)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выбрать платежи к выпуску")
	}

	released := 0
	for _, payment := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.ReleaseFromEscrow(ctx, payment.ID); err != nil {
			// Типичный случай - платёж возвращён отменой договора
			// между выборкой и выпуском. CAS уже не совпал, просто
			// идём дальше.
			s.log.WithField("payment_id", payment.ID).Warnf("свипер: выпуск из escrow не удался: %v", err)
			continue
		}
		released++
	}
	return released, nil
}

func (s *PaymentService) getPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать платёж")
	}
	return payment, nil
}

// transitionError превращает проигранный CAS в типизированную ошибку:
// перечитываем платёж и называем фактический статус. Если строка в
// недопустимом исходном статусе, UPDATE гарантированно не совпадёт,
// поэтому здесь это INVALID_STATE, а не гонка.
func (s *PaymentService) transitionError(ctx context.Context, id uuid.UUID, attempted valueobject.PaymentStatus, err error) error {
	if !errors.Is(err, common.ErrStatusConflict) {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return apperror.ErrPaymentNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "переход платежа не выполнен")
	}

	current, rerr := s.repo.GetByID(ctx, id)
	if rerr != nil {
		if errors.Is(rerr, repository.ErrPaymentNotFound) {
			return apperror.ErrPaymentNotFound
		}
		return apperror.Wrap(rerr, apperror.ErrCodeInternal, "не удалось прочитать платёж")
	}
	return apperror.InvalidState("переход платежа недопустим из текущего статуса",
		string(attempted), string(current.Status))
}

// emit отправляет событие обеим сторонам платежа.
func (s *PaymentService) emit(eventType string, payment *models.Payment, payload map[string]any) {
	s.notify(models.NotificationEvent{
		EventType:  eventType,
		Recipients: []uuid.UUID{payment.PayerID, payment.BeneficiaryID},
		Payload:    payload,
	})
}

func (s *PaymentService) notify(event models.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.notifier.Notify(ctx, event)
}
