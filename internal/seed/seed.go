package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/utils"
)

// LoadConstraints 读取 JSON 格式的约束文件并检查必填字段
func LoadConstraints(path string) (*domain.Constraints, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var c domain.Constraints
	if err := json.NewDecoder(file).Decode(&c); err != nil {
		return nil, fmt.Errorf("无法解析约束文件 %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("约束文件 %s 不合法: %w", path, err)
	}
	if err := utils.ValidateConstraintLabels(c); err != nil {
		return nil, fmt.Errorf("约束文件 %s 不合法: %w", path, err)
	}

	return &c, nil
}

func WriteConstraints(path string, c domain.Constraints) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RunLocal 在本地直接运行一次排班，不经过数据库和队列
func RunLocal(ctx context.Context, c domain.Constraints, rp domain.RunParameters, progressEvery int) (*scheduler.Result, error) {
	parameters, err := scheduler.ParametersFromRun(rp)
	if err != nil {
		return nil, err
	}

	s, err := scheduler.New(c, parameters)
	if err != nil {
		return nil, err
	}

	if progressEvery > 0 {
		s.OnProgress(func(generation int, bestFitness float64) error {
			if generation%progressEvery == 0 {
				slog.Info("排班进度", "generation", generation, "best_fitness", bestFitness)
			}
			return nil
		})
	}

	result, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateRoundRobin(c, result.Schedule()); err != nil {
		return nil, fmt.Errorf("%w: %w", scheduler.ErrInvariantViolation, err)
	}

	return result, nil
}

// WriteScheduleTable 以表格形式输出赛程以及扣分情况
func WriteScheduleTable(w io.Writer, result *scheduler.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "周\t星期\t时段\t场馆\t主队\t客队")
	for _, m := range result.Schedule() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.Week, m.Day, m.TimeSlot, m.VenueName, m.TeamAName, m.TeamBName)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	e := result.Evaluation
	_, err := fmt.Fprintf(w, "\n得分 %g（场馆冲突 %d，休息不足 %d，时段不均 %d），共 %d 代，停止原因 %s\n",
		e.Score, e.VenuePenalty, e.RestPenalty, e.TimePenalty, result.Generations, result.StopReason)
	return err
}

type RunStore interface {
	CreateSchedulingRun(run *domain.SchedulingRun) error
	UpdateSchedulingRunStatus(run *domain.SchedulingRun) error
}

type RunPublisher interface {
	PublishRun(ctx context.Context, runID uuid.UUID) error
}

// SeedRandomRuns 插入 n 个随机生成的排班任务并投递到队列，返回成功投递的数量
func SeedRandomRuns(ctx context.Context, store RunStore, publisher RunPublisher, rng *rand.Rand, n int, opts utils.ConstraintsOptions, submitterEmail string) (int, error) {
	var errs []error
	cnt := 0

	for range n {
		run := &domain.SchedulingRun{
			ID:             uuid.New(),
			Status:         domain.RunStatusPending,
			Parameters:     utils.GenerateRandomRunParameters(rng),
			Constraints:    utils.GenerateRandomConstraints(rng, opts),
			SubmitterEmail: submitterEmail,
		}

		if err := store.CreateSchedulingRun(run); err != nil {
			errs = append(errs, fmt.Errorf("无法插入排班任务: %w", err))
			continue
		}

		if err := publisher.PublishRun(ctx, run.ID); err != nil {
			errs = append(errs, fmt.Errorf("无法投递排班任务 %s: %w", run.ID, err))

			now := time.Now()
			run.Status = domain.RunStatusFailed
			run.Error = "无法投递到排班队列"
			run.FinishedAt = &now
			if err := store.UpdateSchedulingRunStatus(run); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		cnt++
	}

	return cnt, errors.Join(errs...)
}
