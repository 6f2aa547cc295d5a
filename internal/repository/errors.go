package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateSchedulingRun = errors.New("排班任务已存在")
	ErrInvalidRunStatus       = errors.New("排班任务状态不合法")
)

// mapConstraintError 把违反数据库约束的错误转换成包内的错误
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.ConstraintName {
	case "scheduling_runs_pkey":
		return ErrDuplicateSchedulingRun
	case "scheduling_runs_status_check":
		return ErrInvalidRunStatus
	case "scheduling_run_results_run_id_fkey":
		// 保存结果之前任务已经被删除
		return sql.ErrNoRows
	default:
		return err
	}
}
