package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/immo-backend/internal/clock"
	"github.com/ignatzorin/immo-backend/internal/domain/valueobject"
	"github.com/ignatzorin/immo-backend/internal/models"
	"github.com/ignatzorin/immo-backend/internal/pkg/apperror"
	"github.com/ignatzorin/immo-backend/internal/repository"
	"github.com/ignatzorin/immo-backend/internal/repository/common"
	"github.com/ignatzorin/immo-backend/internal/service"
)

// validHash - корректный hex-хэш подписи для тестов.
var validHash = strings.Repeat("ab12cd34", 8)

// fakeContractRepo - in-memory реализация хранилища договоров с той же
// CAS-семантикой, что у Postgres реализации.
type fakeContractRepo struct {
	mu         sync.Mutex
	contracts  map[uuid.UUID]*models.Contract
	signatures map[uuid.UUID][]models.ContractSignature
	payments   map[uuid.UUID]*models.Payment // платёж по договору
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{
		contracts:  make(map[uuid.UUID]*models.Contract),
		signatures: make(map[uuid.UUID][]models.ContractSignature),
		payments:   make(map[uuid.UUID]*models.Payment),
	}
}

func copyContract(c *models.Contract) *models.Contract {
	v := *c
	return &v
}

func (f *fakeContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	contract.ID = uuid.New()
	contract.CreatedAt = time.Now()
	contract.UpdatedAt = contract.CreatedAt
	f.contracts[contract.ID] = copyContract(contract)
	return nil
}

func (f *fakeContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return nil, repository.ErrContractNotFound
	}
	return copyContract(c), nil
}

func (f *fakeContractRepo) GetByReference(ctx context.Context, ref string) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contracts {
		if c.Reference == ref {
			return copyContract(c), nil
		}
	}
	return nil, repository.ErrContractNotFound
}

func (f *fakeContractRepo) AddSignature(ctx context.Context, sig *models.ContractSignature) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.signatures[sig.ContractID] {
		if existing.PartyID == sig.PartyID {
			return repository.ErrSignatureConflict
		}
	}
	sig.ID = uuid.New()
	f.signatures[sig.ContractID] = append(f.signatures[sig.ContractID], *sig)
	return nil
}

func (f *fakeContractRepo) ListSignatures(ctx context.Context, contractID uuid.UUID) ([]models.ContractSignature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ContractSignature(nil), f.signatures[contractID]...), nil
}

func (f *fakeContractRepo) MarkSigned(ctx context.Context, id uuid.UUID, completeAt time.Time) (*models.Contract, error) {
	return f.cas(id, valueobject.ContractStatusDraft, func(c *models.Contract) {
		c.Status = valueobject.ContractStatusSigned
		c.SignatureCompleteAt = &completeAt
	})
}

func (f *fakeContractRepo) Activate(ctx context.Context, id uuid.UUID, startDate time.Time) (*models.Contract, error) {
	return f.cas(id, valueobject.ContractStatusSigned, func(c *models.Contract) {
		c.Status = valueobject.ContractStatusActive
		c.StartDate = &startDate
	})
}

func (f *fakeContractRepo) Terminate(ctx context.Context, id uuid.UUID, endDate time.Time) (*models.Contract, error) {
	return f.cas(id, valueobject.ContractStatusActive, func(c *models.Contract) {
		c.Status = valueobject.ContractStatusTerminated
		c.EndDate = &endDate
	})
}

func (f *fakeContractRepo) Lock(ctx context.Context, id uuid.UUID, lockedAt time.Time) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return nil, repository.ErrContractNotFound
	}
	c.IsLocked = true
	if c.LockedAt == nil {
		c.LockedAt = &lockedAt
	}
	return copyContract(c), nil
}

func (f *fakeContractRepo) UpdateTerms(ctx context.Context, id uuid.UUID, monthlyRent, depositAmount int64, durationMonths int) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != valueobject.ContractStatusDraft || c.IsLocked {
		return nil, common.ErrStatusConflict
	}
	c.MonthlyRent = monthlyRent
	c.DepositAmount = depositAmount
	c.DurationMonths = durationMonths
	return copyContract(c), nil
}

func (f *fakeContractRepo) Archive(ctx context.Context, id uuid.UUID, archivedAt time.Time) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != valueobject.ContractStatusTerminated || c.ArchivedAt != nil {
		return nil, common.ErrStatusConflict
	}
	c.ArchivedAt = &archivedAt
	return copyContract(c), nil
}

func (f *fakeContractRepo) CancelWithRefund(ctx context.Context, id uuid.UUID, reason string, now time.Time) (*models.Contract, *models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != valueobject.ContractStatusSigned {
		return nil, nil, common.ErrStatusConflict
	}
	c.Status = valueobject.ContractStatusCancelled
	c.CancelledAt = &now
	c.CancellationReason = &reason

	var refunded *models.Payment
	if p, ok := f.payments[id]; ok && p.Status == valueobject.PaymentStatusInEscrow {
		p.Status = valueobject.PaymentStatusRefunded
		p.RefundedAt = &now
		v := *p
		refunded = &v
	}
	return copyContract(c), refunded, nil
}

func (f *fakeContractRepo) ListDueForActivation(ctx context.Context, cutoff time.Time, limit int) ([]models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []models.Contract
	for _, c := range f.contracts {
		if c.Status == valueobject.ContractStatusSigned && c.SignatureCompleteAt != nil && !c.SignatureCompleteAt.After(cutoff) {
			due = append(due, *copyContract(c))
			if len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

func (f *fakeContractRepo) cas(id uuid.UUID, expected valueobject.ContractStatus, mutate func(*models.Contract)) (*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != expected {
		return nil, common.ErrStatusConflict
	}
	mutate(c)
	return copyContract(c), nil
}

// fakeNotifier записывает события вместо доставки.
type fakeNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (f *fakeNotifier) Notify(ctx context.Context, event models.NotificationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) byType(eventType string) []models.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NotificationEvent
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type contractFixture struct {
	repo     *fakeContractRepo
	notifier *fakeNotifier
	clk      *clock.Fixed
	svc      *service.ContractService
	owner    uuid.UUID
	tenant   uuid.UUID
}

func newContractFixture(t *testing.T) *contractFixture {
	t.Helper()
	repo := newFakeContractRepo()
	notifier := &fakeNotifier{}
	clk := clock.NewFixed(time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC))
	return &contractFixture{
		repo:     repo,
		notifier: notifier,
		clk:      clk,
		svc:      service.NewContractService(repo, notifier, clk, 48*time.Hour),
		owner:    uuid.New(),
		tenant:   uuid.New(),
	}
}

func (fx *contractFixture) createDraft(t *testing.T) *models.Contract {
	t.Helper()
	contract, err := fx.svc.Create(context.Background(), service.CreateContractInput{
		Type:           valueobject.ContractTypeLocation,
		OwnerID:        fx.owner,
		TenantID:       fx.tenant,
		MonthlyRent:    250_000,
		DepositAmount:  500_000,
		DurationMonths: 12,
	})
	assert.NoError(t, err)
	return contract
}

// signBoth подписывает договор обеими сторонами и возвращает SIGNED договор.
func (fx *contractFixture) signBoth(t *testing.T, contractID uuid.UUID) *models.Contract {
	t.Helper()
	_, err := fx.svc.RecordSignature(context.Background(), contractID, fx.owner, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	signed, err := fx.svc.RecordSignature(context.Background(), contractID, fx.tenant, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	return signed
}

func TestContractService_Create(t *testing.T) {
	fx := newContractFixture(t)

	contract := fx.createDraft(t)

	assert.Equal(t, valueobject.ContractStatusDraft, contract.Status)
	assert.Regexp(t, `^LOC-202603-[A-Z0-9]{6}$`, contract.Reference)
	assert.Nil(t, contract.SignatureCompleteAt)
}

func TestContractService_Create_Validation(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()

	// Совпадающие стороны
	_, err := fx.svc.Create(ctx, service.CreateContractInput{
		Type: valueobject.ContractTypeLocation, OwnerID: fx.owner, TenantID: fx.owner, MonthlyRent: 100,
	})
	assert.True(t, apperror.Is(err, apperror.ErrCodeValidation))

	// Неизвестный тип
	_, err = fx.svc.Create(ctx, service.CreateContractInput{
		Type: valueobject.ContractType("colocation"), OwnerID: fx.owner, TenantID: fx.tenant,
	})
	assert.True(t, apperror.Is(err, apperror.ErrCodeValidation))

	// Отрицательная аренда
	_, err = fx.svc.Create(ctx, service.CreateContractInput{
		Type: valueobject.ContractTypeLocation, OwnerID: fx.owner, TenantID: fx.tenant, MonthlyRent: -1,
	})
	assert.True(t, apperror.Is(err, apperror.ErrCodeValidation))
}

func TestContractService_SignQuorum(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)

	// Первая подпись кворум не собирает
	after, err := fx.svc.RecordSignature(ctx, contract.ID, fx.owner, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusDraft, after.Status)
	assert.Empty(t, fx.notifier.byType(models.EventContractSigned))

	// Вторая подпись переводит договор в SIGNED
	signed, err := fx.svc.RecordSignature(ctx, contract.ID, fx.tenant, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusSigned, signed.Status)
	assert.NotNil(t, signed.SignatureCompleteAt)
	assert.Equal(t, fx.clk.Now(), *signed.SignatureCompleteAt)

	events := fx.notifier.byType(models.EventContractSigned)
	if assert.Len(t, events, 1) {
		assert.ElementsMatch(t, []uuid.UUID{fx.owner, fx.tenant}, events[0].Recipients)
	}
}

func TestContractService_SignQuorum_OrderIrrelevant(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)

	// Арендатор подписывает первым - результат тот же
	_, err := fx.svc.RecordSignature(ctx, contract.ID, fx.tenant, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	signed, err := fx.svc.RecordSignature(ctx, contract.ID, fx.owner, validHash, models.SignatureMeta{})
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusSigned, signed.Status)
}

func TestContractService_Sign_Duplicate(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)

	_, err := fx.svc.RecordSignature(ctx, contract.ID, fx.owner, validHash, models.SignatureMeta{})
	assert.NoError(t, err)

	_, err = fx.svc.RecordSignature(ctx, contract.ID, fx.owner, validHash, models.SignatureMeta{})
	assert.ErrorIs(t, err, apperror.ErrAlreadySigned)

	// Договор остаётся черновиком с одной подписью
	current, err := fx.svc.GetByID(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusDraft, current.Status)
	sigs, err := fx.svc.ListSignatures(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Len(t, sigs, 1)
}

func TestContractService_Sign_Stranger(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)

	_, err := fx.svc.RecordSignature(context.Background(), contract.ID, uuid.New(), validHash, models.SignatureMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidParty)
}

func TestContractService_Sign_NotDraft(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	_, err := fx.svc.RecordSignature(context.Background(), contract.ID, fx.owner, validHash, models.SignatureMeta{})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_Cancel_InsideWindow(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	// Платёж по договору удерживается в escrow
	fx.repo.payments[contract.ID] = &models.Payment{
		ID:          uuid.New(),
		Reference:   "PAY-1767261600-ABCD1234",
		ContractID:  contract.ID,
		Status:      valueobject.PaymentStatusInEscrow,
		PayerID:     fx.tenant,
		AmountTotal: 875_000,
	}

	// За минуту до закрытия окна отмена ещё доступна
	fx.clk.Advance(48*time.Hour - time.Minute)

	cancelled, err := fx.svc.Cancel(ctx, contract.ID, "передумал арендовать")
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	// Возврат произошёл в той же транзакции
	assert.Equal(t, valueobject.PaymentStatusRefunded, fx.repo.payments[contract.ID].Status)

	assert.Len(t, fx.notifier.byType(models.EventContractCancelled), 1)
	refundEvents := fx.notifier.byType(models.EventPaymentRefunded)
	if assert.Len(t, refundEvents, 1) {
		assert.Equal(t, []uuid.UUID{fx.tenant}, refundEvents[0].Recipients)
	}
}

func TestContractService_Cancel_WindowExpired(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	fx.clk.Advance(48*time.Hour + time.Minute)

	_, err := fx.svc.Cancel(ctx, contract.ID, "передумал арендовать")
	assert.True(t, apperror.IsInvalidState(err))

	// Договор остался SIGNED и спокойно активируется
	activated, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusActive, activated.Status)
}

func TestContractService_Cancel_ExactBoundary(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	// Ровно 48 часов: окно уже закрыто, граница не включается
	fx.clk.Advance(48 * time.Hour)

	_, err := fx.svc.Cancel(context.Background(), contract.ID, "передумал арендовать")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_Cancel_Draft(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)

	_, err := fx.svc.Cancel(context.Background(), contract.ID, "передумал арендовать")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_Activate_WindowStillOpen(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	fx.clk.Advance(time.Hour)

	_, err := fx.svc.Activate(context.Background(), contract.ID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_Activate_Idempotent(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)
	fx.clk.Advance(49 * time.Hour)

	first, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusActive, first.Status)

	// Повторная активация - успех без нового уведомления
	second, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusActive, second.Status)
	assert.Len(t, fx.notifier.byType(models.EventContractActivated), 1)
}

func TestContractService_Activate_Concurrent(t *testing.T) {
	// Свипер и пользовательский запрос могут активировать один и тот
	// же договор одновременно: ровно один переход и ровно одно
	// уведомление, остальные вызовы видят уже ACTIVE и завершаются
	// успехом.
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)
	fx.clk.Advance(49 * time.Hour)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Activate(context.Background(), contract.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "вызов %d", i)
	}

	got, err := fx.svc.GetByID(context.Background(), contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusActive, got.Status)
	assert.Len(t, fx.notifier.byType(models.EventContractActivated), 1)
}

func TestContractService_Terminate(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)
	fx.clk.Advance(49 * time.Hour)

	_, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)

	terminated, err := fx.svc.Terminate(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusTerminated, terminated.Status)
	assert.NotNil(t, terminated.EndDate)
	assert.Len(t, fx.notifier.byType(models.EventContractTerminated), 1)
}

func TestContractService_Terminate_NotActive(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	_, err := fx.svc.Terminate(context.Background(), contract.ID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_UpdateTerms(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)

	updated, err := fx.svc.UpdateTerms(ctx, contract.ID, 300_000, 600_000, 24)
	assert.NoError(t, err)
	assert.Equal(t, int64(300_000), updated.MonthlyRent)
	assert.Equal(t, 24, updated.DurationMonths)
}

func TestContractService_UpdateTerms_Locked(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)

	locked, err := fx.svc.Lock(ctx, contract.ID)
	assert.NoError(t, err)
	assert.True(t, locked.IsLocked)

	_, err = fx.svc.UpdateTerms(ctx, contract.ID, 300_000, 600_000, 24)
	assert.ErrorIs(t, err, apperror.ErrContractLocked)
}

func TestContractService_UpdateTerms_Signed(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)

	_, err := fx.svc.UpdateTerms(context.Background(), contract.ID, 300_000, 600_000, 24)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_Renew(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)
	fx.clk.Advance(49 * time.Hour)
	_, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)

	newRent := int64(300_000)
	renewed, err := fx.svc.Renew(ctx, contract.ID, service.RenewOverrides{MonthlyRent: &newRent})
	assert.NoError(t, err)

	// Старый завершён, новый - черновик с теми же сторонами
	old, err := fx.svc.GetByID(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusTerminated, old.Status)

	assert.Equal(t, valueobject.ContractStatusDraft, renewed.Status)
	assert.Equal(t, contract.OwnerID, renewed.OwnerID)
	assert.Equal(t, contract.TenantID, renewed.TenantID)
	assert.Equal(t, newRent, renewed.MonthlyRent)
	assert.Equal(t, contract.DepositAmount, renewed.DepositAmount)
	assert.NotEqual(t, contract.Reference, renewed.Reference)
}

func TestContractService_Archive(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()
	contract := fx.createDraft(t)
	fx.signBoth(t, contract.ID)
	fx.clk.Advance(49 * time.Hour)
	_, err := fx.svc.Activate(ctx, contract.ID)
	assert.NoError(t, err)
	_, err = fx.svc.Terminate(ctx, contract.ID)
	assert.NoError(t, err)

	archived, err := fx.svc.Archive(ctx, contract.ID)
	assert.NoError(t, err)
	assert.NotNil(t, archived.ArchivedAt)

	// Повторный вызов идемпотентен
	again, err := fx.svc.Archive(ctx, contract.ID)
	assert.NoError(t, err)
	assert.Equal(t, archived.ArchivedAt, again.ArchivedAt)
}

func TestContractService_Archive_NotTerminated(t *testing.T) {
	fx := newContractFixture(t)
	contract := fx.createDraft(t)

	_, err := fx.svc.Archive(context.Background(), contract.ID)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestContractService_NotFound(t *testing.T) {
	fx := newContractFixture(t)

	_, err := fx.svc.GetByID(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestContractService_ActivateDueContracts(t *testing.T) {
	fx := newContractFixture(t)
	ctx := context.Background()

	// Два договора подписаны сразу, третий - позже
	first := fx.createDraft(t)
	fx.signBoth(t, first.ID)
	second := fx.createDraft(t)
	fx.signBoth(t, second.ID)

	fx.clk.Advance(40 * time.Hour)
	third := fx.createDraft(t)
	fx.signBoth(t, third.ID)

	// Спустя 49 часов от первых подписей окно третьего ещё открыто
	fx.clk.Advance(9 * time.Hour)

	activated, err := fx.svc.ActivateDueContracts(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, activated)

	stillSigned, err := fx.svc.GetByID(ctx, third.ID)
	assert.NoError(t, err)
	assert.Equal(t, valueobject.ContractStatusSigned, stillSigned.Status)

	// Следующий проход после закрытия третьего окна добирает остаток
	fx.clk.Advance(48 * time.Hour)
	activated, err = fx.svc.ActivateDueContracts(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, activated)
}
