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

// casMaxRetries - сколько раз движок повторяет идемпотентный переход,
// проигравший compare-and-swap, прежде чем отдать ошибку наверх.
const casMaxRetries = 3

type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	GetByReference(ctx context.Context, ref string) (*models.Contract, error)
	AddSignature(ctx context.Context, sig *models.ContractSignature) error
	ListSignatures(ctx context.Context, contractID uuid.UUID) ([]models.ContractSignature, error)
	MarkSigned(ctx context.Context, id uuid.UUID, completeAt time.Time) (*models.Contract, error)
	Activate(ctx context.Context, id uuid.UUID, startDate time.Time) (*models.Contract, error)
	Terminate(ctx context.Context, id uuid.UUID, endDate time.Time) (*models.Contract, error)
	Lock(ctx context.Context, id uuid.UUID, lockedAt time.Time) (*models.Contract, error)
	UpdateTerms(ctx context.Context, id uuid.UUID, monthlyRent, depositAmount int64, durationMonths int) (*models.Contract, error)
	Archive(ctx context.Context, id uuid.UUID, archivedAt time.Time) (*models.Contract, error)
	CancelWithRefund(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Contract, *models.Payment, error)
	ListDueForActivation(ctx context.Context, cutoff time.Time, limit int) ([]models.Contract, error)
}

// CreateContractInput - параметры нового договора.
type CreateContractInput struct {
	Type           valueobject.ContractType
	OwnerID        uuid.UUID
	TenantID       uuid.UUID
	ListingID      *uuid.UUID
	MonthlyRent    int64
	DepositAmount  int64
	DurationMonths int
}

// RenewOverrides - изменяемые условия при продлении. nil-поле означает
// "скопировать из старого договора".
type RenewOverrides struct {
	MonthlyRent    *int64
	DepositAmount  *int64
	DurationMonths *int
}

// ContractService - движок жизненного цикла договора:
// DRAFT -> SIGNED -> ACTIVE -> TERMINATED, CANCELLED из SIGNED внутри
// окна отзыва. Все записи статуса и временных меток идут только отсюда.
type ContractService struct {
	repo       ContractRepository
	notifier   Notifier
	clk        clock.Clock
	retraction time.Duration
	log        *logrus.Entry
}

func NewContractService(repo ContractRepository, notifier Notifier, clk clock.Clock, retraction time.Duration) *ContractService {
	if retraction <= 0 {
		retraction = 48 * time.Hour
	}
	return &ContractService{
		repo:       repo,
		notifier:   notifier,
		clk:        clk,
		retraction: retraction,
		log:        logger.WithComponent("contract-engine"),
	}
}

// Create создаёт черновик договора от имени владельца.
func (s *ContractService) Create(ctx context.Context, input CreateContractInput) (*models.Contract, error) {
	if !input.Type.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип договора")
	}
	if input.OwnerID == uuid.Nil || input.TenantID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "обе стороны договора обязательны")
	}
	if input.OwnerID == input.TenantID {
		return nil, apperror.New(apperror.ErrCodeValidation, "стороны договора должны различаться")
	}
	if err := validateTerms(input.MonthlyRent, input.DepositAmount, input.DurationMonths); err != nil {
		return nil, err
	}

	contract := &models.Contract{
		Reference:      reference.Contract(input.Type.ReferencePrefix(), s.clk.Now()),
		Type:           input.Type,
		Status:         valueobject.ContractStatusDraft,
		OwnerID:        input.OwnerID,
		TenantID:       input.TenantID,
		ListingID:      input.ListingID,
		MonthlyRent:    input.MonthlyRent,
		DepositAmount:  input.DepositAmount,
		DurationMonths: input.DurationMonths,
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать договор")
	}
	return contract, nil
}

// GetByID возвращает договор.
func (s *ContractService) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.getContract(ctx, id)
}

// ListSignatures возвращает подписи договора.
func (s *ContractService) ListSignatures(ctx context.Context, id uuid.UUID) ([]models.ContractSignature, error) {
	if _, err := s.getContract(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListSignatures(ctx, id)
}

// RecordSignature фиксирует подпись стороны. Повторная подпись
// отклоняется (ALREADY_SIGNED, осознанный выбор вместо no-op). Когда
// подписали обе стороны, договор атомарно переходит в SIGNED и обе
// стороны получают уведомление.
func (s *ContractService) RecordSignature(ctx context.Context, contractID, partyID uuid.UUID, signatureHash string, meta models.SignatureMeta) (*models.Contract, error) {
	if err := validation.ValidateSignatureHash(signatureHash); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !contract.IsParty(partyID) {
		return nil, apperror.ErrInvalidParty
	}
	if contract.Status != valueobject.ContractStatusDraft {
		return nil, apperror.InvalidState("подписание доступно только для черновика",
			string(valueobject.ContractStatusSigned), string(contract.Status))
	}

	now := s.clk.Now()
	sig := &models.ContractSignature{
		ContractID:    contractID,
		PartyID:       partyID,
		SignatureHash: signatureHash,
		SignedAt:      now,
	}
	if meta.IPAddress != "" {
		sig.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		sig.UserAgent = &meta.UserAgent
	}

	if err := s.repo.AddSignature(ctx, sig); err != nil {
		if errors.Is(err, repository.ErrSignatureConflict) {
			return nil, apperror.ErrAlreadySigned
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось записать подпись")
	}

	// Кворум: подписи обеих сторон. Порядок подписания не важен.
	sigs, err := s.repo.ListSignatures(ctx, contractID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать подписи")
	}
	if !quorumReached(contract, sigs) {
		return contract, nil
	}

	signed, err := s.repo.MarkSigned(ctx, contractID, now)
	if err != nil {
		if errors.Is(err, common.ErrStatusConflict) {
			// Вторая сторона подписала одновременно и выиграла CAS -
			// договор уже SIGNED, это успех, а не ошибка.
			current, rerr := s.getContract(ctx, contractID)
			if rerr != nil {
				return nil, rerr
			}
			if current.Status == valueobject.ContractStatusSigned {
				return current, nil
			}
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось перевести договор в SIGNED")
	}

	s.emit(models.EventContractSigned, signed, map[string]any{
		"reference":             signed.Reference,
		"signature_complete_at": now,
		"retraction_expires_at": now.Add(s.retraction),
	})
	return signed, nil
}

// CanRetract сообщает, открыто ли ещё окно отзыва подписанного договора.
func (s *ContractService) CanRetract(contract *models.Contract) bool {
	if contract.Status != valueobject.ContractStatusSigned || contract.SignatureCompleteAt == nil {
		return false
	}
	return s.clk.Now().Sub(*contract.SignatureCompleteAt) < s.retraction
}

// Cancel отменяет подписанный договор внутри окна отзыва. Если по
// договору есть платёж в escrow, возврат средств выполняется в той же
// транзакции базы: нельзя наблюдать отменённый договор с удержанным
// платежом.
func (s *ContractService) Cancel(ctx context.Context, contractID uuid.UUID, reason string) (*models.Contract, error) {
	if err := validation.ValidateReason(reason); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != valueobject.ContractStatusSigned {
		return nil, apperror.InvalidState("отменить можно только подписанный договор",
			string(valueobject.ContractStatusCancelled), string(contract.Status))
	}
	if !s.CanRetract(contract) {
		// 48 часов - юридический срок, пользователь должен увидеть
		// именно эту причину, а не общую ошибку.
		return nil, apperror.InvalidState("окно отзыва истекло, отмена больше недоступна",
			string(valueobject.ContractStatusCancelled), string(contract.Status))
	}

	cancelled, refunded, err := s.repo.CancelWithRefund(ctx, contractID, reason, s.clk.Now())
	if err != nil {
		if errors.Is(err, common.ErrStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		// Транзакция отмена+возврат не закоммитилась целиком - сигнал
		// о целостности данных, а не обычный отказ.
		s.log.WithField("contract_id", contractID).Errorf("транзакция отмены не закоммичена: %v", err)
		return nil, apperror.Wrap(err, apperror.ErrCodeTransactionFailed, "не удалось отменить договор")
	}

	s.emit(models.EventContractCancelled, cancelled, map[string]any{
		"reference": cancelled.Reference,
		"reason":    reason,
	})
	if refunded != nil {
		s.notify(models.NotificationEvent{
			EventType:  models.EventPaymentRefunded,
			Recipients: []uuid.UUID{refunded.PayerID},
			Payload: map[string]any{
				"reference": refunded.Reference,
				"amount":    refunded.AmountTotal,
				"reason":    reason,
			},
		})
	}
	return cancelled, nil
}

// Activate переводит подписанный договор в ACTIVE после закрытия окна
// отзыва. Идемпотентна: повторный вызов на активном договоре - успех
// без эффекта, свипер может звать её сколько угодно раз.
func (s *ContractService) Activate(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	for attempt := 0; ; attempt++ {
		contract, err := s.getContract(ctx, contractID)
		if err != nil {
			return nil, err
		}
		if contract.Status == valueobject.ContractStatusActive {
			return contract, nil
		}
		if contract.Status != valueobject.ContractStatusSigned {
			return nil, apperror.InvalidState("активировать можно только подписанный договор",
				string(valueobject.ContractStatusActive), string(contract.Status))
		}
		if s.CanRetract(contract) {
			return nil, apperror.InvalidState("окно отзыва ещё не истекло",
				string(valueobject.ContractStatusActive), string(contract.Status))
		}

		now := s.clk.Now()
		activated, err := s.repo.Activate(ctx, contractID, now)
		if err == nil {
			s.emit(models.EventContractActivated, activated, map[string]any{
				"reference":  activated.Reference,
				"start_date": now,
			})
			return activated, nil
		}
		if !errors.Is(err, common.ErrStatusConflict) {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось активировать договор")
		}
		if attempt >= casMaxRetries {
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		// Проигранный CAS: перечитываем и решаем заново. Если договор
		// успел стать ACTIVE, следующая итерация вернёт его без
		// повторного уведомления.
	}
}

// Lock помечает договор неизменяемым: после этого правки условий
// отклоняются с LOCKED, статусные переходы продолжают работать.
func (s *ContractService) Lock(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	if _, err := s.getContract(ctx, contractID); err != nil {
		return nil, err
	}
	locked, err := s.repo.Lock(ctx, contractID, s.clk.Now())
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось заблокировать договор")
	}
	return locked, nil
}

// UpdateTerms правит денежные условия черновика.
func (s *ContractService) UpdateTerms(ctx context.Context, contractID uuid.UUID, monthlyRent, depositAmount int64, durationMonths int) (*models.Contract, error) {
	if err := validateTerms(monthlyRent, depositAmount, durationMonths); err != nil {
		return nil, err
	}

	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.IsLocked {
		return nil, apperror.ErrContractLocked
	}
	if contract.Status != valueobject.ContractStatusDraft {
		return nil, apperror.InvalidState("условия можно менять только у черновика",
			string(valueobject.ContractStatusDraft), string(contract.Status))
	}

	updated, err := s.repo.UpdateTerms(ctx, contractID, monthlyRent, depositAmount, durationMonths)
	if err != nil {
		if errors.Is(err, common.ErrStatusConflict) {
			// Между чтением и записью договор заблокировали или подписали.
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить условия")
	}
	return updated, nil
}

// Terminate завершает активный договор.
func (s *ContractService) Terminate(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != valueobject.ContractStatusActive {
		return nil, apperror.InvalidState("завершить можно только активный договор",
			string(valueobject.ContractStatusTerminated), string(contract.Status))
	}

	terminated, err := s.repo.Terminate(ctx, contractID, s.clk.Now())
	if err != nil {
		if errors.Is(err, common.ErrStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось завершить договор")
	}

	s.emit(models.EventContractTerminated, terminated, map[string]any{
		"reference": terminated.Reference,
		"end_date":  terminated.EndDate,
	})
	return terminated, nil
}

// Renew завершает старый договор и создаёт новый черновик с теми же
// сторонами и условиями (с учётом overrides). Операция последовательная,
// не атомарная: если создание нового черновика упало, старый договор
// уже завершён - вызывающая сторона повторяет только создание.
func (s *ContractService) Renew(ctx context.Context, oldContractID uuid.UUID, overrides RenewOverrides) (*models.Contract, error) {
	old, err := s.getContract(ctx, oldContractID)
	if err != nil {
		return nil, err
	}

	if _, err := s.Terminate(ctx, oldContractID); err != nil {
		return nil, err
	}

	input := CreateContractInput{
		Type:           old.Type,
		OwnerID:        old.OwnerID,
		TenantID:       old.TenantID,
		ListingID:      old.ListingID,
		MonthlyRent:    old.MonthlyRent,
		DepositAmount:  old.DepositAmount,
		DurationMonths: old.DurationMonths,
	}
	if overrides.MonthlyRent != nil {
		input.MonthlyRent = *overrides.MonthlyRent
	}
	if overrides.DepositAmount != nil {
		input.DepositAmount = *overrides.DepositAmount
	}
	if overrides.DurationMonths != nil {
		input.DurationMonths = *overrides.DurationMonths
	}

	renewed, err := s.Create(ctx, input)
	if err != nil {
		// Старый договор завершён, нового черновика нет. Ошибка
		// восстановимая: создание можно повторить отдельным вызовом.
		s.log.WithField("contract_id", oldContractID).Warnf("продление: черновик не создан после завершения: %v", err)
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "договор завершён, но новый черновик не создан, повторите создание")
	}
	return renewed, nil
}

// Archive ставит метку мягкого удаления на завершённый договор.
// Запись сохраняется бессрочно для юридического архива.
func (s *ContractService) Archive(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != valueobject.ContractStatusTerminated {
		return nil, apperror.InvalidState("в архив уходят только завершённые договоры",
			string(valueobject.ContractStatusTerminated), string(contract.Status))
	}
	if contract.ArchivedAt != nil {
		return contract, nil
	}

	archived, err := s.repo.Archive(ctx, contractID, s.clk.Now())
	if err != nil {
		if errors.Is(err, common.ErrStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConcurrentModification, "договор изменён параллельной операцией")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось архивировать договор")
	}
	return archived, nil
}

// ActivateDueContracts - свипер: активирует все подписанные договоры с
// закрытым окном отзыва. Ошибка одного договора логируется и не
// прерывает остальных; остаток после исчерпания бюджета контекста
// подберёт следующий тик.
func (s *ContractService) ActivateDueContracts(ctx context.Context) (int, error) {
	cutoff := s.clk.Now().Add(-s.retraction)
	due, err := s.repo.ListDueForActivation(ctx, cutoff, 500)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выбрать договоры к активации")
	}

	activated := 0
	for _, contract := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Activate(ctx, contract.ID); err != nil {
			s.log.WithField("contract_id", contract.ID).Warnf("свипер: активация не удалась: %v", err)
			continue
		}
		activated++
	}
	return activated, nil
}

func (s *ContractService) getContract(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrContractNotFound) {
			return nil, apperror.ErrContractNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось прочитать договор")
	}
	return contract, nil
}

// quorumReached: кворум собран, когда есть подписи владельца и
// арендатора. Лишние подписи невозможны - чужие отклоняются раньше.
func quorumReached(contract *models.Contract, sigs []models.ContractSignature) bool {
	ownerSigned, tenantSigned := false, false
	for _, sig := range sigs {
		switch sig.PartyID {
		case contract.OwnerID:
			ownerSigned = true
		case contract.TenantID:
			tenantSigned = true
		}
	}
	return ownerSigned && tenantSigned
}

// validateTerms проверяет денежные условия договора.
func validateTerms(monthlyRent, depositAmount int64, durationMonths int) error {
	if err := validation.ValidateAmount("арендная плата", monthlyRent); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("залог", depositAmount); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDurationMonths(durationMonths); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// emit отправляет событие обеим сторонам договора.
func (s *ContractService) emit(eventType string, contract *models.Contract, payload map[string]any) {
	s.notify(models.NotificationEvent{
		EventType:  eventType,
		Recipients: []uuid.UUID{contract.OwnerID, contract.TenantID},
		Payload:    payload,
	})
}

// notify отдаёт событие в порт доставки. Порт обязан вернуться быстро:
// переход уже закоммичен, каналы доставки работают асинхронно за ним.
func (s *ContractService) notify(event models.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.notifier.Notify(ctx, event)
}
