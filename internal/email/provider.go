package email

import (
	"context"

	"apimarket_backend/internal/logger"
)

// Provider определяет интерфейс для отправки email
type Provider interface {
	Send(ctx context.Context, email *Email) error
}

// NewProvider выбирает SMTP или запись в лог
func NewProvider(cfg SMTPConfig) Provider {
	if cfg.Enabled() {
		return NewSMTPProvider(cfg)
	}
	return &LogProvider{}
}

// LogProvider не отправляет письма, а пишет их в лог
type LogProvider struct{}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	logger.CtxInfo(ctx, "Email not sent (smtp disabled)", "to", email.To, "subject", email.Subject)
	return nil
}
