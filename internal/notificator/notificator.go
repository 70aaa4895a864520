package notificator

import (
	"runtime/debug"

	"github.com/patronus-pay/patronus/internal/models"
	"github.com/patronus-pay/patronus/pkg/logger"
)

// Notificator fans a transfer outcome out to the configured operator
// channels. Channels left unconfigured are skipped silently.
type Notificator struct {
	logger *logger.Logger

	TelegramNotificator *TelegramNotificator
	EmailNotificator    *EmailNotificator

	operatorChatID string
	operatorEmail  string
}

func NewNotificator(logger *logger.Logger, telNotif *TelegramNotificator, emailNotif *EmailNotificator, operatorChatID, operatorEmail string) *Notificator {
	return &Notificator{
		logger:              logger,
		TelegramNotificator: telNotif,
		EmailNotificator:    emailNotif,
		operatorChatID:      operatorChatID,
		operatorEmail:       operatorEmail,
	}
}

// safeCall runs a function with panic recovery so a broken notification
// channel never takes the transfer flow down with it.
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (n *Notificator) SendNotification(notification *models.Notification) {
	message := notification.String()

	if n.TelegramNotificator != nil && n.operatorChatID != "" {
		n.safeCall(func() { n.TelegramNotificator.SendNotification(n.operatorChatID, message) }, "telegramNotification")
	}
	if n.EmailNotificator != nil && n.operatorEmail != "" {
		n.safeCall(func() { n.EmailNotificator.SendNotification(n.operatorEmail, message) }, "emailNotification")
	}
}
