package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/immo-backend/internal/clock"
	"github.com/ignatzorin/immo-backend/internal/goroutine"
	"github.com/ignatzorin/immo-backend/internal/logger"
	"github.com/ignatzorin/immo-backend/internal/models"
)

// Notifier - исходящий порт движков. Движки вызывают его после коммита
// перехода; доставка никогда не блокирует и не откатывает переход.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent)
}

// Channel - один канал доставки (WebSocket, лог, внешний шлюз).
type Channel interface {
	Name() string
	Deliver(ctx context.Context, notification models.Notification) error
}

type NotificationOutbox interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService реализует порт доставки через outbox: строка на
// получателя пишется в базу, затем асинхронно проталкивается в каналы.
// Недоставленные строки подбирает свипер - гарантия at-least-once,
// идемпотентность на стороне получателя.
type NotificationService struct {
	outbox      NotificationOutbox
	channels    []Channel
	clk         clock.Clock
	maxAttempts int
	log         *logrus.Entry
}

func NewNotificationService(outbox NotificationOutbox, clk clock.Clock, maxAttempts int) *NotificationService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &NotificationService{
		outbox:      outbox,
		clk:         clk,
		maxAttempts: maxAttempts,
		log:         logger.WithComponent("notifications"),
	}
}

// RegisterChannel добавляет канал доставки.
func (s *NotificationService) RegisterChannel(ch Channel) {
	s.channels = append(s.channels, ch)
}

// Notify сохраняет событие в outbox и запускает асинхронную доставку.
// Ошибки записи логируются и не возвращаются: переход уже закоммичен,
// откатывать его из-за уведомления нельзя.
func (s *NotificationService) Notify(ctx context.Context, event models.NotificationEvent) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		s.log.WithField("event", event.EventType).Errorf("не удалось сериализовать payload: %v", err)
		return
	}

	for _, recipient := range event.Recipients {
		notification := &models.Notification{
			UserID:    recipient,
			EventType: event.EventType,
			Payload:   payload,
		}
		if err := s.outbox.Create(ctx, notification); err != nil {
			s.log.WithField("event", event.EventType).Errorf("не удалось записать уведомление в outbox: %v", err)
			continue
		}

		n := *notification
		goroutine.SafeGo(func() {
			// Доставка живёт своим контекстом: запрос, породивший
			// переход, к этому моменту может уже завершиться.
			deliverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.deliver(deliverCtx, n)
		})
	}
}

// deliver проталкивает уведомление во все каналы. Достаточно одного
// успешного канала, чтобы пометить строку доставленной.
func (s *NotificationService) deliver(ctx context.Context, notification models.Notification) {
	delivered := false
	for _, ch := range s.channels {
		if err := ch.Deliver(ctx, notification); err != nil {
			s.log.WithFields(logrus.Fields{
				"notification_id": notification.ID,
				"channel":         ch.Name(),
			}).Warnf("канал не доставил уведомление: %v", err)
			continue
		}
		delivered = true
	}

	if !delivered {
		if err := s.outbox.IncrementAttempts(ctx, notification.ID); err != nil {
			s.log.Errorf("не удалось зафиксировать попытку доставки %s: %v", notification.ID, err)
		}
		return
	}

	if err := s.outbox.MarkSent(ctx, notification.ID, s.clk.Now()); err != nil {
		// Строка останется PENDING и будет доставлена повторно - это
		// допустимо при at-least-once.
		s.log.Errorf("не удалось пометить уведомление %s доставленным: %v", notification.ID, err)
	}
}

// RedeliverPending - свипер: переотправляет недоставленные строки
// outbox. Ошибки отдельных строк не прерывают проход.
func (s *NotificationService) RedeliverPending(ctx context.Context) (int, error) {
	pending, err := s.outbox.ListPending(ctx, s.maxAttempts, 200)
	if err != nil {
		return 0, fmt.Errorf("notification service: redeliver list %w", err)
	}

	processed := 0
	for _, notification := range pending {
		if ctx.Err() != nil {
			// Бюджет прохода исчерпан, остаток подберёт следующий тик.
			break
		}
		s.deliver(ctx, notification)
		processed++
	}
	return processed, nil
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	return s.outbox.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.outbox.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.outbox.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.outbox.CountUnread(ctx, userID)
}
