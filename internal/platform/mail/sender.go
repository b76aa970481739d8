package mail

import (
	"context"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"stagewatch/internal/platform/config"
)

// Sender delivers HTML mail over SMTP with bounded retries. Delivery is
// fire-and-forget from the engine's perspective: callers log failures
// and move on, so Send never retries forever.
type Sender struct {
	dialer         *gomail.Dialer
	senderAddress  string
	senderName     string
	retryCount     int
	retryBackoffMs int
	logger         *slog.Logger
}

func NewSender(cfg config.MailConfig, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}

	senderAddress := cfg.SenderAddress
	if senderAddress == "" {
		senderAddress = "noreply@stagewatch.local"
	}
	senderName := cfg.SenderName
	if senderName == "" {
		senderName = "Stagewatch SLA"
	}
	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 3
	}
	retryBackoffMs := cfg.RetryBackoffMs
	if retryBackoffMs <= 0 {
		retryBackoffMs = 100
	}

	return &Sender{
		dialer:         gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		senderAddress:  senderAddress,
		senderName:     senderName,
		retryCount:     retryCount,
		retryBackoffMs: retryBackoffMs,
		logger:         logger,
	}
}

func (s *Sender) Send(ctx context.Context, recipients []string, subject string, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	var lastErr error
	backoffMs := s.retryBackoffMs

	for attempt := 0; attempt <= s.retryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(backoffMs) * time.Millisecond):
			}
			backoffMs *= 2
		}

		lastErr = s.dialer.DialAndSend(msg)
		if lastErr == nil {
			s.logger.Debug("mail delivered",
				"event", "mail_delivered",
				"module", "internal/platform/mail",
				"layer", "platform",
				"recipient_count", len(recipients),
				"subject", subject,
			)
			return nil
		}

		s.logger.Warn("mail delivery attempt failed",
			"event", "mail_delivery_attempt_failed",
			"module", "internal/platform/mail",
			"layer", "platform",
			"attempt", attempt+1,
			"error", lastErr.Error(),
		)
	}
	return lastErr
}
