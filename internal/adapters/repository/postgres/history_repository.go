package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/staffing/internal/core/worker"
	pgdb "github.com/ogurasousui/staffing/internal/platform/db/postgres"
)

const historyColumns = `id, worker_id, action, job_id, employer_id, job_name, employer_name, job_salary, occurred_at`

var errHistoryNotReturned = errors.New("postgres: history row not returned")

// HistoryRepository は雇用履歴の追記専用ストアです。更新・削除の操作は提供しません。
type HistoryRepository struct {
	pool pgdb.Queryer
}

// NewHistoryRepository は HistoryRepository を生成します。
func NewHistoryRepository(pool pgdb.Queryer) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append は履歴を 1 件追記します。
func (r *HistoryRepository) Append(ctx context.Context, h *worker.History) (*worker.History, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO worker_history (worker_id, action, job_id, employer_id, job_name, employer_name, job_salary, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+historyColumns+`
    `,
		h.WorkerID,
		string(h.Action),
		h.JobID,
		h.EmployerID,
		h.JobName,
		h.EmployerName,
		toNumeric(h.JobSalary),
		h.OccurredAt,
	)

	appended, err := scanHistory(row)
	if err != nil {
		return nil, translateHistoryPgError(err)
	}
	return appended, nil
}

// ListByWorker は労働者の履歴を記録順に取得します。労働者が削除済みでも履歴は返却されます。
func (r *HistoryRepository) ListByWorker(ctx context.Context, workerID string) ([]*worker.History, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+historyColumns+`
          FROM worker_history
         WHERE worker_id = $1
         ORDER BY id
    `, workerID)
	if err != nil {
		return nil, translateHistoryPgError(err)
	}
	defer rows.Close()

	history := make([]*worker.History, 0)
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, translateHistoryPgError(err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, translateHistoryPgError(err)
	}

	return history, nil
}

func scanHistory(row pgx.Row) (*worker.History, error) {
	var (
		id                                  int64
		workerID, action, jobID, employerID string
		jobName, employerName               string
		jobSalary                           pgtype.Numeric
		occurredAt                          time.Time
	)

	if err := row.Scan(&id, &workerID, &action, &jobID, &employerID, &jobName, &employerName, &jobSalary, &occurredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errHistoryNotReturned
		}
		return nil, err
	}

	salary, err := fromNumeric(jobSalary)
	if err != nil {
		return nil, err
	}

	return &worker.History{
		ID:           id,
		WorkerID:     workerID,
		Action:       worker.Action(action),
		JobID:        jobID,
		EmployerID:   employerID,
		JobName:      jobName,
		EmployerName: employerName,
		JobSalary:    salary,
		OccurredAt:   occurredAt,
	}, nil
}

func translateHistoryPgError(err error) error {
	if err == nil {
		return nil
	}
	if pgdb.IsConflict(err) {
		return conflictError(worker.ErrConflict, err)
	}
	return err
}
