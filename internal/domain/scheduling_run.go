package domain

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Finished 表示该排班任务已经不会再被 worker 处理
func (s RunStatus) Finished() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed || s == RunStatusCancelled
}

type PenaltyWeights struct {
	Venue float64 `json:"venue" validate:"gt=0"`
	Rest  float64 `json:"rest" validate:"gt=0"`
	Time  float64 `json:"time" validate:"gt=0"`
}

// RunParameters 是一次排班任务的全部参数，提交时就已经补全默认值，保证可以复现
type RunParameters struct {
	PopulationSize      int            `json:"populationSize"`
	GenerationsSize     int            `json:"generationsSize"`
	SelectionMethod     string         `json:"selectionMethod"`
	CrossoverMethod     string         `json:"crossoverMethod"`
	MutationMethod      string         `json:"mutationMethod"`
	SurvivorStrategy    string         `json:"survivorStrategy"`
	EliteSize           int            `json:"eliteSize"`
	TournamentSize      int            `json:"tournamentSize"`
	SelectionPressure   float64        `json:"selectionPressure"`
	MutationRate        float64        `json:"mutationRate"`
	Seed                int64          `json:"seed"`
	Stagnation          int            `json:"stagnation"`
	Weights             PenaltyWeights `json:"weights"`
	ImbalanceThreshold  int            `json:"imbalanceThreshold"`
	VenueConflictsByDay bool           `json:"venueConflictsByDay"`
}

type SchedulingRun struct {
	ID             uuid.UUID     `json:"id"`
	Status         RunStatus     `json:"status"`
	Parameters     RunParameters `json:"parameters"`
	Constraints    Constraints   `json:"constraints"`
	SubmitterEmail string        `json:"submitterEmail"`
	Error          string        `json:"error"`
	CreatedAt      time.Time     `json:"createdAt"`
	StartedAt      *time.Time    `json:"startedAt"`
	FinishedAt     *time.Time    `json:"finishedAt"`
	Version        int32         `json:"-"`
}

type SchedulingRunResult struct {
	RunID           uuid.UUID        `json:"runID"`
	BestScore       float64          `json:"bestScore"`
	Generations     int              `json:"generations"`
	StopReason      string           `json:"stopReason"`
	FitnessTrend    []float64        `json:"fitnessTrend"`
	Matches         []MatchRecord    `json:"matches"`
	VenueViolations []VenueViolation `json:"venueViolations"`
	RestViolations  []RestViolation  `json:"restViolations"`
	TimeViolations  []TimeViolation  `json:"timeViolations"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ScheduleEvaluation 是对一份已有赛程的评分
type ScheduleEvaluation struct {
	Score           float64          `json:"score"`
	Feasible        bool             `json:"feasible"`
	VenuePenalty    int              `json:"venuePenalty"`
	RestPenalty     int              `json:"restPenalty"`
	TimePenalty     int              `json:"timePenalty"`
	VenueViolations []VenueViolation `json:"venueViolations"`
	RestViolations  []RestViolation  `json:"restViolations"`
	TimeViolations  []TimeViolation  `json:"timeViolations"`
}

// RunProgress 保存在 redis 中，供前端轮询
type RunProgress struct {
	RunID       uuid.UUID `json:"runID"`
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"bestFitness"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RunMessage 是投递到排班队列中的消息
type RunMessage struct {
	RunID uuid.UUID `json:"runID"`
}
