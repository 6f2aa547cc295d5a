package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

func (r *Repository) CreateSchedulingRun(run *domain.SchedulingRun) error {
	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}
	constraints, err := json.Marshal(run.Constraints)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scheduling_runs (id, status, parameters, constraints, submitter_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{run.ID, run.Status, parameters, constraints, run.SubmitterEmail}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.CreatedAt, &run.Version); err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *Repository) GetSchedulingRunByID(id uuid.UUID) (*domain.SchedulingRun, error) {
	query := `
		SELECT
			id,
			status,
			parameters,
			constraints,
			submitter_email,
			error,
			created_at,
			started_at,
			finished_at,
			version
		FROM scheduling_runs
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var run domain.SchedulingRun
	var parameters, constraints []byte
	dst := []any{
		&run.ID,
		&run.Status,
		&parameters,
		&constraints,
		&run.SubmitterEmail,
		&run.Error,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(constraints, &run.Constraints); err != nil {
		return nil, err
	}

	return &run, nil
}

// GetAllSchedulingRuns 按提交时间倒序返回所有任务，列表中不包含约束
func (r *Repository) GetAllSchedulingRuns() ([]*domain.SchedulingRun, error) {
	query := `
		SELECT
			id,
			status,
			parameters,
			submitter_email,
			error,
			created_at,
			started_at,
			finished_at,
			version
		FROM scheduling_runs
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*domain.SchedulingRun{}
	for rows.Next() {
		var run domain.SchedulingRun
		var parameters []byte
		dst := []any{
			&run.ID,
			&run.Status,
			&parameters,
			&run.SubmitterEmail,
			&run.Error,
			&run.CreatedAt,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// UpdateSchedulingRunStatus 使用乐观锁更新任务状态，版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateSchedulingRunStatus(run *domain.SchedulingRun) error {
	query := `
		UPDATE scheduling_runs
		SET
			status = $1,
			error = $2,
			started_at = $3,
			finished_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{run.Status, run.Error, run.StartedAt, run.FinishedAt, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return mapConstraintError(err)
	}

	return nil
}

func (r *Repository) InsertSchedulingRunResult(result *domain.SchedulingRunResult) error {
	trend, err := json.Marshal(result.FitnessTrend)
	if err != nil {
		return err
	}
	venueViolations, err := json.Marshal(result.VenueViolations)
	if err != nil {
		return err
	}
	restViolations, err := json.Marshal(result.RestViolations)
	if err != nil {
		return err
	}
	timeViolations, err := json.Marshal(result.TimeViolations)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的排班结果删除，比赛记录通过外键级联删除
	query := `DELETE FROM scheduling_run_results WHERE run_id = $1`
	if _, err := tx.ExecContext(ctx, query, result.RunID); err != nil {
		return err
	}

	query = `
		INSERT INTO scheduling_run_results (
			run_id,
			best_score,
			generations,
			stop_reason,
			fitness_trend,
			venue_violations,
			rest_violations,
			time_violations
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	args := []any{
		result.RunID,
		result.BestScore,
		result.Generations,
		result.StopReason,
		trend,
		venueViolations,
		restViolations,
		timeViolations,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&result.CreatedAt); err != nil {
		return mapConstraintError(err)
	}

	for i, match := range result.Matches {
		query := `
			INSERT INTO scheduling_run_matches (
				run_id,
				position,
				team_a_id,
				team_a_name,
				team_b_id,
				team_b_name,
				venue_id,
				venue_name,
				day,
				time_slot,
				week
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		args := []any{
			result.RunID,
			i,
			match.TeamAID,
			match.TeamAName,
			match.TeamBID,
			match.TeamBName,
			match.VenueID,
			match.VenueName,
			match.Day,
			match.TimeSlot,
			match.Week,
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSchedulingRunResultByRunID(runID uuid.UUID) (*domain.SchedulingRunResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			best_score,
			generations,
			stop_reason,
			fitness_trend,
			venue_violations,
			rest_violations,
			time_violations,
			created_at
		FROM scheduling_run_results
		WHERE run_id = $1
	`

	result := &domain.SchedulingRunResult{RunID: runID}
	var trend, venueViolations, restViolations, timeViolations []byte
	dst := []any{
		&result.BestScore,
		&result.Generations,
		&result.StopReason,
		&trend,
		&venueViolations,
		&restViolations,
		&timeViolations,
		&result.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, runID).Scan(dst...); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		data []byte
		dst  any
	}{
		{trend, &result.FitnessTrend},
		{venueViolations, &result.VenueViolations},
		{restViolations, &result.RestViolations},
		{timeViolations, &result.TimeViolations},
	} {
		if err := json.Unmarshal(field.data, field.dst); err != nil {
			return nil, err
		}
	}

	query = `
		SELECT
			team_a_id,
			team_a_name,
			team_b_id,
			team_b_name,
			venue_id,
			venue_name,
			day,
			time_slot,
			week
		FROM scheduling_run_matches
		WHERE run_id = $1
		ORDER BY position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result.Matches = []domain.MatchRecord{}
	for rows.Next() {
		var match domain.MatchRecord
		dst := []any{
			&match.TeamAID,
			&match.TeamAName,
			&match.TeamBID,
			&match.TeamBName,
			&match.VenueID,
			&match.VenueName,
			&match.Day,
			&match.TimeSlot,
			&match.Week,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		result.Matches = append(result.Matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CountSchedulingRunsByStatus 用于 seed 工具输出统计
func (r *Repository) CountSchedulingRunsByStatus() (map[domain.RunStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM scheduling_runs GROUP BY status`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RunStatus]int)
	for rows.Next() {
		var status domain.RunStatus
		var count sql.NullInt64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = int(count.Int64)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
