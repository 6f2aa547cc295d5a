package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/progress"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
)

type runParametersRequest struct {
	PopulationSize      *int                   `json:"populationSize" validate:"omitempty,min=1,max=10000"`
	GenerationsSize     *int                   `json:"generationsSize" validate:"omitempty,min=0,max=100000"`
	SelectionMethod     string                 `json:"selectionMethod"`
	CrossoverMethod     string                 `json:"crossoverMethod"`
	MutationMethod      string                 `json:"mutationMethod"`
	SurvivorStrategy    string                 `json:"survivorStrategy"`
	EliteSize           *int                   `json:"eliteSize" validate:"omitempty,min=0"`
	TournamentSize      *int                   `json:"tournamentSize" validate:"omitempty,min=1"`
	SelectionPressure   *float64               `json:"selectionPressure" validate:"omitempty,min=1,max=2"`
	MutationRate        *float64               `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	Seed                int64                  `json:"seed"`
	Stagnation          int                    `json:"stagnation" validate:"min=0"`
	Weights             *domain.PenaltyWeights `json:"weights"`
	ImbalanceThreshold  *int                   `json:"imbalanceThreshold" validate:"omitempty,min=1"`
	VenueConflictsByDay bool                   `json:"venueConflictsByDay"`
}

// resolveParameters 补全默认值，保存下来的参数可以原样复现一次排班
func (h *Handler) resolveParameters(req runParametersRequest) domain.RunParameters {
	defaults := scheduler.DefaultParameters()
	if h.config.Engine.PopulationSize > 0 {
		defaults.PopulationSize = h.config.Engine.PopulationSize
	}
	if h.config.Engine.GenerationsSize > 0 {
		defaults.GenerationsSize = h.config.Engine.GenerationsSize
	}
	if h.config.Engine.MutationRate > 0 {
		defaults.MutationRate = h.config.Engine.MutationRate
	}

	p := domain.RunParameters{
		PopulationSize:      valueOr(req.PopulationSize, defaults.PopulationSize),
		GenerationsSize:     valueOr(req.GenerationsSize, defaults.GenerationsSize),
		SelectionMethod:     stringOr(req.SelectionMethod, defaults.Selection.String()),
		CrossoverMethod:     stringOr(req.CrossoverMethod, defaults.Crossover.String()),
		MutationMethod:      stringOr(req.MutationMethod, defaults.Mutation.String()),
		SurvivorStrategy:    stringOr(req.SurvivorStrategy, defaults.Survivor.String()),
		EliteSize:           valueOr(req.EliteSize, defaults.EliteSize),
		TournamentSize:      valueOr(req.TournamentSize, defaults.TournamentSize),
		SelectionPressure:   valueOr(req.SelectionPressure, defaults.SelectionPressure),
		MutationRate:        valueOr(req.MutationRate, defaults.MutationRate),
		Seed:                req.Seed,
		Stagnation:          req.Stagnation,
		ImbalanceThreshold:  valueOr(req.ImbalanceThreshold, defaults.ImbalanceThreshold),
		VenueConflictsByDay: req.VenueConflictsByDay,
		Weights: domain.PenaltyWeights{
			Venue: defaults.Weights.Venue,
			Rest:  defaults.Weights.Rest,
			Time:  defaults.Weights.Time,
		},
	}
	if req.Weights != nil {
		p.Weights = *req.Weights
	}

	return p
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (h *Handler) CreateSchedulingRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Constraints    domain.Constraints   `json:"constraints"`
		Parameters     runParametersRequest `json:"parameters"`
		SubmitterEmail string               `json:"submitterEmail" validate:"omitempty,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	parameters := h.resolveParameters(req.Parameters)

	// 提交前先构建一次，参数或约束有误时直接返回，不进入队列
	schedulerParameters, err := scheduler.ParametersFromRun(parameters)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if _, err := scheduler.New(req.Constraints, schedulerParameters); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrConfiguration), errors.Is(err, scheduler.ErrUnknownStrategy):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	submitterEmail := req.SubmitterEmail
	if submitterEmail == "" {
		submitterEmail = h.config.Admin.Email
	}

	run := &domain.SchedulingRun{
		ID:             uuid.New(),
		Status:         domain.RunStatusPending,
		Parameters:     parameters,
		Constraints:    req.Constraints,
		SubmitterEmail: submitterEmail,
	}
	if err := h.repository.CreateSchedulingRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 投递到排班队列
	if err := h.publisher.PublishRun(r.Context(), run.ID); err != nil {
		// 投递失败的任务永远不会被处理，直接标记为失败
		now := time.Now()
		run.Status = domain.RunStatusFailed
		run.Error = "无法投递到排班队列"
		run.FinishedAt = &now
		if updateErr := h.repository.UpdateSchedulingRunStatus(run); updateErr != nil {
			err = errors.Join(err, updateErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班任务已提交", run)
}

func (h *Handler) GetAllSchedulingRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repository.GetAllSchedulingRuns()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班任务列表成功", runs)
}

func (h *Handler) GetSchedulingRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SchedulingRunCtx).(*domain.SchedulingRun)

	h.successResponse(w, r, "获取排班任务成功", run)
}

func (h *Handler) GetSchedulingRunResult(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SchedulingRunCtx).(*domain.SchedulingRun)

	if run.Status != domain.RunStatusSucceeded {
		h.errorResponse(w, r, fmt.Sprintf("排班任务状态为 %s，暂无结果", run.Status))
		return
	}

	result, err := h.repository.GetSchedulingRunResultByRunID(run.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "排班结果不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班结果成功", result)
}

func (h *Handler) GetSchedulingRunProgress(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SchedulingRunCtx).(*domain.SchedulingRun)

	p, err := h.progress.Get(r.Context(), run.ID)
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrNoProgress):
			h.successResponse(w, r, "暂无进度", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排班进度成功", p)
}

func (h *Handler) CancelSchedulingRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(SchedulingRunCtx).(*domain.SchedulingRun)

	if run.Status.Finished() {
		h.errorResponse(w, r, "排班任务已结束")
		return
	}

	// 运行中的任务由 worker 在两代之间读取这个标记后停止
	if err := h.progress.RequestCancel(r.Context(), run.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if run.Status == domain.RunStatusPending {
		now := time.Now()
		run.Status = domain.RunStatusCancelled
		run.Error = "排班任务已被取消"
		run.FinishedAt = &now
		if err := h.repository.UpdateSchedulingRunStatus(run); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "排班任务状态已变化，请重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
	}

	h.successResponse(w, r, "已请求取消排班任务", run)
}
