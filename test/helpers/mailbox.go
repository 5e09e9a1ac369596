package helpers

import (
	"context"
	"sync"

	"apimarket_backend/internal/email"
)

// Mailbox сохраняет отправленные письма вместо SMTP
type Mailbox struct {
	mu     sync.Mutex
	emails []email.Email
}

func (m *Mailbox) Send(_ context.Context, e *email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, *e)
	return nil
}

// Sent возвращает копию отправленных писем
func (m *Mailbox) Sent() []email.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Email(nil), m.emails...)
}
