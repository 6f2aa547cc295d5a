package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/utils"
)

// EvaluateSchedule 对提交的完整赛程直接评分，不进入队列
func (h *Handler) EvaluateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Constraints         domain.Constraints     `json:"constraints"`
		Matches             []domain.MatchRecord   `json:"matches" validate:"required,min=1,dive"`
		Weights             *domain.PenaltyWeights `json:"weights"`
		ImbalanceThreshold  *int                   `json:"imbalanceThreshold" validate:"omitempty,min=1"`
		VenueConflictsByDay bool                   `json:"venueConflictsByDay"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 名称重复时无法把比赛记录还原到唯一的日和时段
	if err := utils.ValidateConstraintLabels(req.Constraints); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	cc, err := scheduler.NewConstraintContext(req.Constraints)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if req.Weights != nil {
		cc.Weights = scheduler.Weights{Venue: req.Weights.Venue, Rest: req.Weights.Rest, Time: req.Weights.Time}
	}
	if req.ImbalanceThreshold != nil {
		cc.ImbalanceThreshold = *req.ImbalanceThreshold
	}
	cc.VenueConflictsByDay = req.VenueConflictsByDay

	ind, err := cc.IndividualFromRecords(req.Matches)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrConfiguration), errors.Is(err, scheduler.ErrInvariantViolation):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "评分成功", cc.EvaluationReport(scheduler.Evaluate(ind, cc)))
}
