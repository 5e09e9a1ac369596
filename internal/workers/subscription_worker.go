package workers

import (
	"context"
	"time"

	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/metrics"
	"apimarket_backend/internal/services"

	"gorm.io/gorm"
)

const subscriptionWorkerName = "subscription_worker"

type SubscriptionWorker struct {
	db          *gorm.DB
	planService services.PlanService
	metrics     *metrics.Metrics
	interval    time.Duration
	now         func() time.Time
}

func NewSubscriptionWorker(db *gorm.DB, planService services.PlanService, m *metrics.Metrics, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWorker{
		db:          db,
		planService: planService,
		metrics:     m,
		interval:    interval,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start запускает фоновую проверку истечения подписок
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.checkExpiredSubscriptions(ctx)
}

// checkExpiredSubscriptions гасит истекшие подписки по тикеру
func (w *SubscriptionWorker) checkExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog(subscriptionWorkerName, "stop", nil)
			return
		case <-ticker.C:
			_ = w.RunOnce(ctx)
		}
	}
}

// RunOnce - один проход: деактивация истекших подписок и снятие премиума
func (w *SubscriptionWorker) RunOnce(ctx context.Context) error {
	expired, downgraded, err := w.planService.ExpireSubscriptions(w.db.WithContext(ctx), w.now())
	if err != nil {
		logger.WorkerLog(subscriptionWorkerName, "expire_subscriptions", err)
		return err
	}
	w.metrics.AddSubscriptionsExpired(expired)
	if expired > 0 || downgraded > 0 {
		logger.WorkerLog(subscriptionWorkerName, "expire_subscriptions", nil,
			"expired", expired,
			"premium_revoked", downgraded,
		)
	}
	return nil
}
