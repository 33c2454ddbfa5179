package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/immo-backend/internal/logger"
	"github.com/ignatzorin/immo-backend/internal/models"
)

// LogChannel пишет события в лог. Внешние каналы (email/SMS/WhatsApp)
// подключаются отдельными реализациями Channel на стороне шлюза
// доставки; лог остаётся всегда, чтобы след события был виден даже без
// подключённых получателей.
type LogChannel struct {
	log *logrus.Entry
}

func NewLogChannel() *LogChannel {
	return &LogChannel{log: logger.WithComponent("notify-log")}
}

func (c *LogChannel) Name() string {
	return "log"
}

func (c *LogChannel) Deliver(_ context.Context, notification models.Notification) error {
	c.log.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"user_id":         notification.UserID,
		"event":           notification.EventType,
	}).Info("событие жизненного цикла")
	return nil
}
