package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureProvider struct {
	sent []*Email
}

func (p *captureProvider) Send(_ context.Context, e *Email) error {
	p.sent = append(p.sent, e)
	return nil
}

func TestNotifier_SendPaymentReceipt(t *testing.T) {
	provider := &captureProvider{}
	n := NewNotifier(provider)

	err := n.SendPaymentReceipt(context.Background(), Receipt{
		To:            "alice@example.com",
		Username:      "alice",
		PlanName:      "Pro",
		TransactionID: "tx-1",
		Amount:        499,
		Currency:      "INR",
		EndDate:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, provider.sent, 1)

	msg := provider.sent[0]
	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	assert.Equal(t, "Payment receipt: Pro", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "499.00 INR")
	assert.Contains(t, msg.HTMLBody, "2026-01-02")
}

func TestNewProvider_LogWhenHostEmpty(t *testing.T) {
	_, ok := NewProvider(SMTPConfig{}).(*LogProvider)
	assert.True(t, ok)

	_, ok = NewProvider(SMTPConfig{Host: "smtp.example.com", Port: 587}).(*SMTPProvider)
	assert.True(t, ok)
}
