package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/utils"
)

var (
	ErrRunCancelled = errors.New("排班任务已被取消")
	ErrRunConflict  = errors.New("排班任务状态已被其他进程修改")
)

type RunStore interface {
	GetSchedulingRunByID(id uuid.UUID) (*domain.SchedulingRun, error)
	UpdateSchedulingRunStatus(run *domain.SchedulingRun) error
	InsertSchedulingRunResult(result *domain.SchedulingRunResult) error
}

type ProgressTracker interface {
	Publish(ctx context.Context, p domain.RunProgress) error
	CancelRequested(ctx context.Context, runID uuid.UUID) (bool, error)
	Clear(ctx context.Context, runID uuid.UUID) error
}

type Notifier interface {
	Notify(ctx context.Context, msg domain.MailMessage) error
}

type Worker struct {
	store         RunStore
	tracker       ProgressTracker
	notifier      Notifier
	workers       int
	runTimeout    time.Duration
	progressEvery int
	now           func() time.Time
}

func New(store RunStore, tracker ProgressTracker, notifier Notifier, cfg *config.Config) *Worker {
	return &Worker{
		store:         store,
		tracker:       tracker,
		notifier:      notifier,
		workers:       cfg.Engine.Workers,
		runTimeout:    time.Duration(cfg.Engine.RunTimeout) * time.Second,
		progressEvery: max(cfg.Engine.ProgressEvery, 1),
		now:           time.Now,
	}
}

// Process 执行一个排班任务
// 排班本身失败（参数错误、超时、被取消）会记录在任务中并返回 nil，
// 只有数据库等基础设施出错或者 worker 正在退出时才返回错误
func (w *Worker) Process(ctx context.Context, runID uuid.UUID) error {
	run, err := w.store.GetSchedulingRunByID(runID)
	if err != nil {
		return fmt.Errorf("无法获取排班任务 %s: %w", runID, err)
	}

	if run.Status.Finished() {
		slog.Info("排班任务已经结束，跳过", "run_id", runID, "status", run.Status)
		return nil
	}

	// 标记为运行中
	startedAt := w.now()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &startedAt
	run.Error = ""
	if err := w.updateStatus(run); err != nil {
		return err
	}
	slog.Info("开始排班", "run_id", runID)

	result, runErr := w.schedule(ctx, run)

	// worker 正在退出，把任务放回等待状态，由消息重新入队后继续处理
	if runErr != nil && ctx.Err() != nil {
		run.Status = domain.RunStatusPending
		run.StartedAt = nil
		if err := w.updateStatus(run); err != nil {
			slog.Error("无法重置排班任务状态", "run_id", runID, "error", err)
		}
		return runErr
	}

	if runErr == nil {
		report := result.Report()
		report.RunID = run.ID
		if err := utils.ValidateRoundRobin(run.Constraints, report.Matches); err != nil {
			runErr = fmt.Errorf("%w: %w", scheduler.ErrInvariantViolation, err)
		} else if err := w.store.InsertSchedulingRunResult(report); err != nil {
			runErr = fmt.Errorf("无法保存排班结果: %w", err)
		} else {
			w.publishProgress(ctx, run.ID, result.Generations, result.Evaluation.Score)
		}
	}

	finishedAt := w.now()
	run.FinishedAt = &finishedAt
	switch {
	case runErr == nil:
		run.Status = domain.RunStatusSucceeded
	case errors.Is(runErr, ErrRunCancelled):
		run.Status = domain.RunStatusCancelled
		run.Error = runErr.Error()
	case errors.Is(runErr, context.DeadlineExceeded):
		run.Status = domain.RunStatusFailed
		run.Error = fmt.Sprintf("排班超时（%s）", w.runTimeout)
	default:
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
	}

	if err := w.updateStatus(run); err != nil {
		return err
	}

	if err := w.tracker.Clear(ctx, run.ID); err != nil {
		slog.Warn("无法清除取消标记", "run_id", runID, "error", err)
	}

	slog.Info("排班结束", "run_id", runID, "status", run.Status, "error", run.Error)
	w.notify(ctx, run, result)

	return nil
}

func (w *Worker) schedule(ctx context.Context, run *domain.SchedulingRun) (*scheduler.Result, error) {
	parameters, err := scheduler.ParametersFromRun(run.Parameters)
	if err != nil {
		return nil, err
	}
	parameters.Workers = w.workers

	s, err := scheduler.New(run.Constraints, parameters)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if w.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.runTimeout)
		defer cancel()
	}

	s.OnProgress(func(generation int, bestFitness float64) error {
		if generation%w.progressEvery != 0 {
			return nil
		}

		w.publishProgress(runCtx, run.ID, generation, bestFitness)

		cancelled, err := w.tracker.CancelRequested(runCtx, run.ID)
		if err != nil {
			// redis 不可用时继续排班，只是无法响应取消
			slog.Warn("无法读取取消标记", "run_id", run.ID, "error", err)
			return nil
		}
		if cancelled {
			return fmt.Errorf("%w（第 %d 代）", ErrRunCancelled, generation)
		}
		return nil
	})

	return s.Run(runCtx)
}

func (w *Worker) publishProgress(ctx context.Context, runID uuid.UUID, generation int, bestFitness float64) {
	p := domain.RunProgress{
		RunID:       runID,
		Generation:  generation,
		BestFitness: bestFitness,
		UpdatedAt:   w.now(),
	}
	if err := w.tracker.Publish(ctx, p); err != nil {
		slog.Warn("无法写入排班进度", "run_id", runID, "error", err)
	}
}

func (w *Worker) updateStatus(run *domain.SchedulingRun) error {
	if err := w.store.UpdateSchedulingRunStatus(run); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrRunConflict, run.ID)
		}
		return err
	}
	return nil
}

func (w *Worker) notify(ctx context.Context, run *domain.SchedulingRun, result *scheduler.Result) {
	if run.SubmitterEmail == "" {
		return
	}

	data := domain.RunFinishedMailData{
		RunID:  run.ID.String(),
		Status: string(run.Status),
		Error:  run.Error,
	}
	if result != nil && run.Status == domain.RunStatusSucceeded {
		data.BestScore = result.Evaluation.Score
		data.Generations = result.Generations
		data.StopReason = string(result.StopReason)
	}

	msg := domain.MailMessage{
		Type: domain.MailTypeRunFinished,
		To:   run.SubmitterEmail,
		Data: data,
	}
	if err := w.notifier.Notify(ctx, msg); err != nil {
		slog.Warn("无法投递通知邮件", "run_id", run.ID, "error", err)
	}
}
