package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

var ErrNoProgress = errors.New("暂无进度")

func ProgressKey(runID uuid.UUID) string {
	return fmt.Sprintf("run_%s_progress", runID)
}

func CancelKey(runID uuid.UUID) string {
	return fmt.Sprintf("run_%s_cancel", runID)
}

// Tracker 在 redis 中保存排班任务的进度和取消标记，api 与 worker 通过它通信
type Tracker struct {
	client     *redis.Client
	expiration time.Duration
	timeout    time.Duration
}

func NewTracker(client *redis.Client, cfg *config.Config) *Tracker {
	return &Tracker{
		client:     client,
		expiration: time.Duration(cfg.Redis.ProgressExpiration) * time.Second,
		timeout:    time.Duration(cfg.Redis.OperationExpiration) * time.Second,
	}
}

func (t *Tracker) Publish(ctx context.Context, p domain.RunProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.client.Set(ctx, ProgressKey(p.RunID), data, t.expiration).Err()
}

func (t *Tracker) Get(ctx context.Context, runID uuid.UUID) (*domain.RunProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	data, err := t.client.Get(ctx, ProgressKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoProgress
		}
		return nil, err
	}

	var p domain.RunProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *Tracker) RequestCancel(ctx context.Context, runID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.client.Set(ctx, CancelKey(runID), 1, t.expiration).Err()
}

func (t *Tracker) CancelRequested(ctx context.Context, runID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	n, err := t.client.Exists(ctx, CancelKey(runID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear 删除取消标记，进度保留到过期，方便前端读取最终状态
func (t *Tracker) Clear(ctx context.Context, runID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	return t.client.Del(ctx, CancelKey(runID)).Err()
}
