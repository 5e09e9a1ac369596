package workers

import (
	"context"
	"time"

	"apimarket_backend/internal/logger"
	"apimarket_backend/internal/repositories"

	"gorm.io/gorm"
)

const tokenWorkerName = "token_cleanup_worker"

// TokenCleanupWorker удаляет из черного списка refresh-токены с истекшим сроком
type TokenCleanupWorker struct {
	db       *gorm.DB
	repo     repositories.TokenRepository
	interval time.Duration
}

func NewTokenCleanupWorker(db *gorm.DB, repo repositories.TokenRepository, interval time.Duration) *TokenCleanupWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TokenCleanupWorker{db: db, repo: repo, interval: interval}
}

func (w *TokenCleanupWorker) Start(ctx context.Context) {
	go w.cleanup(ctx)
}

func (w *TokenCleanupWorker) cleanup(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog(tokenWorkerName, "stop", nil)
			return
		case <-ticker.C:
			_ = w.RunOnce(ctx)
		}
	}
}

func (w *TokenCleanupWorker) RunOnce(ctx context.Context) error {
	removed, err := w.repo.CleanExpired(w.db.WithContext(ctx), time.Now().UTC())
	if err != nil {
		logger.WorkerLog(tokenWorkerName, "clean_expired", err)
		return err
	}
	if removed > 0 {
		logger.WorkerLog(tokenWorkerName, "clean_expired", nil, "removed", removed)
	}
	return nil
}
