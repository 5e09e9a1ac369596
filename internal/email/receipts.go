package email

import (
	"context"
	"time"
)

// Receipt - данные письма об успешной оплате
type Receipt struct {
	To            string
	Username      string
	PlanName      string
	TransactionID string
	Amount        float64
	Currency      string
	EndDate       time.Time
}

// Notifier отправляет письма сервиса
type Notifier struct {
	provider  Provider
	templates *TemplateManager
}

func NewNotifier(provider Provider) *Notifier {
	return &Notifier{provider: provider, templates: NewTemplateManager()}
}

func (n *Notifier) SendPaymentReceipt(ctx context.Context, r Receipt) error {
	body, err := n.templates.Render(TemplatePaymentReceipt, TemplateData{
		"Username":      r.Username,
		"PlanName":      r.PlanName,
		"TransactionID": r.TransactionID,
		"Amount":        r.Amount,
		"Currency":      r.Currency,
		"EndDate":       r.EndDate.Format("2006-01-02"),
	})
	if err != nil {
		return err
	}
	return n.provider.Send(ctx, &Email{
		To:       []string{r.To},
		Subject:  "Payment receipt: " + r.PlanName,
		HTMLBody: body,
	})
}
