package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/namann16/support-tickets/internal/config"
	"github.com/namann16/support-tickets/internal/events"
	"github.com/namann16/support-tickets/internal/mail"
)

// NotificationService turns domain events into transactional email.
// Delivery is fire-and-forget: the triggering request never waits on
// the SMTP transport and never sees its failures.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     mail.Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer mail.Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.logTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.logTicketEvent)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return nil
	}

	welcome := fmt.Sprintf("<p>Thank you for registering, %s!</p>", payload.Name)
	n.deliver(event.Type, payload.Email, "Welcome to Support!", welcome)

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", n.cfg.FrontendURL, payload.VerificationToken)
	verifyBody := fmt.Sprintf("<p>Verify your email: <a href='%s'>Verify Link</a></p>", verifyURL)
	n.deliver(event.Type, payload.Email, "Verify your email", verifyBody)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", n.cfg.FrontendURL, payload.ResetToken)
	body := fmt.Sprintf("<p>Reset your password: <a href='%s'>Reset Link</a></p>", resetURL)
	n.deliver(event.Type, payload.Email, "Password Reset", body)
	return nil
}

func (n *NotificationService) logTicketEvent(_ context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("customer_id", event.CustomerID),
		zap.Any("payload", event.Payload))
	return nil
}

// deliver sends on its own goroutine; the request-scoped context has
// usually been released by the time SMTP finishes, so delivery gets a
// background context.
func (n *NotificationService) deliver(eventType events.EventType, to, subject, body string) {
	if n.mailer == nil {
		return
	}
	go func() {
		if err := n.mailer.Send(context.Background(), to, subject, body); err != nil {
			n.logger.Error("email delivery failed",
				zap.String("event_type", string(eventType)),
				zap.String("to", to),
				zap.Error(err))
			return
		}
		n.logger.Debug("email delivered",
			zap.String("event_type", string(eventType)),
			zap.String("to", to))
	}()
}
