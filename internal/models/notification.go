package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы событий, которые порождают движки жизненного цикла.
const (
	EventContractSigned     = "contract.signed"
	EventContractActivated  = "contract.activated"
	EventContractCancelled  = "contract.cancelled"
	EventContractTerminated = "contract.terminated"
	EventPaymentInEscrow    = "payment.in_escrow"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentRefunded    = "payment.refunded"
	EventPaymentFailed      = "payment.failed"
)

// Статусы доставки в outbox.
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
)

// NotificationEvent - событие перехода, которое движок отдаёт в порт
// доставки. Payload содержит минимум для рендеринга сообщения: номера,
// суммы, даты. Каналы доставки (email/SMS/WhatsApp/WebSocket) движок
// не знает.
type NotificationEvent struct {
	EventType  string
	Recipients []uuid.UUID
	Payload    map[string]any
}

// Notification - строка outbox: одно событие для одного получателя.
// Доставка at-least-once: неотправленные строки переотправляет свипер.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	EventType string          `db:"event_type" json:"event_type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	Status    string          `db:"status" json:"status"`
	Attempts  int             `db:"attempts" json:"attempts"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	SentAt    *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
