package schedule

// 注册清理：周期性删除过期且未确认的注册申请

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"MonikaNotify/pkg/logger"
)

const defaultInterval = 10 * time.Minute

// ExpiredDeleter 由 repository.RegistrationRepository 实现
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type RegistrationCleaner struct {
	registrations ExpiredDeleter
	logger        *zap.Logger
	now           func() time.Time

	mu          sync.Mutex
	running     bool
	lastRunTime time.Time
}

func NewRegistrationCleaner(registrations ExpiredDeleter) *RegistrationCleaner {
	return &RegistrationCleaner{
		registrations: registrations,
		logger:        logger.Logger,
		now:           time.Now,
	}
}

// CleanExpired 上一轮未结束时直接跳过
func (s *RegistrationCleaner) CleanExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Registration cleanup already running, skipping")
		return 0, nil
	}
	s.running = true
	startTime := s.now()
	s.lastRunTime = startTime
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	deleted, err := s.registrations.DeleteExpired(ctx, startTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired registrations: %w", err)
	}

	s.logger.Info("Registration cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", s.now().Sub(startTime)),
	)
	return deleted, nil
}

// LastRunTime 最近一次开始清理的时间
func (s *RegistrationCleaner) LastRunTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunTime
}

// Loop 每隔 interval 清理一次，阻塞直到 ctx 取消
func (s *RegistrationCleaner) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			if _, err := s.CleanExpired(runCtx); err != nil {
				s.logger.Error("Registration cleanup run failed", zap.Error(err))
			}
			cancel()
		}
	}
}
