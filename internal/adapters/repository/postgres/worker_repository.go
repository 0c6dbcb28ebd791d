package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/integrity"
	"github.com/ogurasousui/staffing/internal/core/worker"
	pgdb "github.com/ogurasousui/staffing/internal/platform/db/postgres"
)

const workerSelectColumns = `w.id, w.name, w.salary, w.employer_id, w.job_id, w.created_at, w.updated_at,
               e.name, j.name, j.salary`

const workerReturningColumns = `id, name, salary, employer_id, job_id, created_at, updated_at`

const workerJoins = `
          LEFT JOIN employers e ON e.id = w.employer_id
          LEFT JOIN jobs j ON j.id = w.job_id`

// WorkerRepository は PostgreSQL を利用した労働者永続化の実装です。
type WorkerRepository struct {
	pool pgdb.Queryer
}

// NewWorkerRepository は WorkerRepository を生成します。
func NewWorkerRepository(pool pgdb.Queryer) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

// Create は無職の労働者を新規作成します。
func (r *WorkerRepository) Create(ctx context.Context, w *worker.Worker) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO workers (name, salary, created_at, updated_at)
            VALUES ($1, $2, $3, $4)
            RETURNING `+workerReturningColumns+`
        )
        SELECT `+workerSelectColumns+`
          FROM inserted w`+workerJoins+`
    `, w.Name, toNumeric(w.Salary), w.CreatedAt, w.UpdatedAt)

	created, err := scanWorker(row)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	return created, nil
}

// Update は名前と希望給与を更新します。
func (r *WorkerRepository) Update(ctx context.Context, w *worker.Worker) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE workers
               SET name = $1,
                   salary = $2,
                   updated_at = $3
             WHERE id = $4
            RETURNING `+workerReturningColumns+`
        )
        SELECT `+workerSelectColumns+`
          FROM updated w`+workerJoins+`
    `, w.Name, toNumeric(w.Salary), w.UpdatedAt, w.ID)

	updated, err := scanWorker(row)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	return updated, nil
}

// SetEmployment は雇用主と求人の参照を同時に書き換えます。
func (r *WorkerRepository) SetEmployment(ctx context.Context, id string, employerID, jobID *string, updatedAt time.Time) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE workers
               SET employer_id = $1,
                   job_id = $2,
                   updated_at = $3
             WHERE id = $4
            RETURNING `+workerReturningColumns+`
        )
        SELECT `+workerSelectColumns+`
          FROM updated w`+workerJoins+`
    `, nullableString(employerID), nullableString(jobID), updatedAt, id)

	updated, err := scanWorker(row)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	return updated, nil
}

// Delete は労働者を削除します。
func (r *WorkerRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM workers WHERE id = $1`, id)
	if err != nil {
		return translateWorkerPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return worker.ErrWorkerNotFound
	}
	return nil
}

// FindByID は ID で労働者を取得します。
func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+workerSelectColumns+`
          FROM workers w`+workerJoins+`
         WHERE w.id = $1
    `, id)

	found, err := scanWorker(row)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	return found, nil
}

// FindByIDForUpdate は労働者の行ロックを取得してから、結合済みの最新状態を読み出します。
// ロック待ちの後に読み直すため、先行する遷移の結果が必ず反映されます。
func (r *WorkerRepository) FindByIDForUpdate(ctx context.Context, id string) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var locked string
	if err := exec.QueryRow(ctx, `SELECT id FROM workers WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return nil, translateWorkerPgError(err)
	}

	return r.FindByID(ctx, locked)
}

// List は労働者の一覧を取得します。EmployerID を指定するとその雇用主の労働者に絞り込みます。
func (r *WorkerRepository) List(ctx context.Context, filter worker.ListWorkersFilter) ([]*worker.Worker, string, error) {
	if filter.Limit <= 0 {
		return nil, "", worker.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", worker.ErrInvalidPageToken
	}

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.EmployerID != "" {
		args = append(args, filter.EmployerID)
		whereClause = "\n         WHERE w.employer_id = $1"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + workerSelectColumns + `
          FROM workers w` + workerJoins + whereClause + `
         ORDER BY w.created_at, w.id
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	workers, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(workers) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		workers = workers[:filter.Limit]
	}

	return workers, nextToken, nil
}

// ListEmployedForUpdate は雇用主または求人に所属する労働者をすべてロックしてから読み出します。
func (r *WorkerRepository) ListEmployedForUpdate(ctx context.Context, filter worker.EmploymentFilter) ([]*worker.Worker, error) {
	var (
		column string
		value  string
	)
	switch {
	case filter.EmployerID != "":
		column, value = "employer_id", filter.EmployerID
	case filter.JobID != "":
		column, value = "job_id", filter.JobID
	default:
		return nil, fmt.Errorf("postgres: employment filter requires employer or job id")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT id FROM workers WHERE `+column+` = $1 ORDER BY id FOR UPDATE`, value)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	if len(ids) == 0 {
		return []*worker.Worker{}, nil
	}

	return r.query(ctx, `
        SELECT `+workerSelectColumns+`
          FROM workers w`+workerJoins+`
         WHERE w.id = ANY($1::uuid[])
         ORDER BY w.created_at, w.id
    `, ids)
}

func (r *WorkerRepository) query(ctx context.Context, query string, args ...any) ([]*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateWorkerPgError(err)
	}
	defer rows.Close()

	workers := make([]*worker.Worker, 0)
	for rows.Next() {
		found, err := scanWorker(rows)
		if err != nil {
			return nil, translateWorkerPgError(err)
		}
		workers = append(workers, found)
	}

	if err := rows.Err(); err != nil {
		return nil, translateWorkerPgError(err)
	}

	return workers, nil
}

func scanWorker(row pgx.Row) (*worker.Worker, error) {
	var (
		id, name             string
		salary               pgtype.Numeric
		employerID, jobID    sql.NullString
		createdAt, updatedAt time.Time
		employerName         sql.NullString
		jobName              sql.NullString
		jobSalary            pgtype.Numeric
	)

	if err := row.Scan(
		&id,
		&name,
		&salary,
		&employerID,
		&jobID,
		&createdAt,
		&updatedAt,
		&employerName,
		&jobName,
		&jobSalary,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, worker.ErrWorkerNotFound
		}
		return nil, err
	}

	expected, err := fromNumeric(salary)
	if err != nil {
		return nil, err
	}

	w := &worker.Worker{
		ID:        id,
		Name:      name,
		Salary:    expected,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	if employerID.Valid {
		ref := employerID.String
		w.EmployerID = &ref
		w.Employer = &worker.EmployerSnapshot{ID: ref, Name: employerName.String}
	}

	if jobID.Valid {
		offered, err := fromNumeric(jobSalary)
		if err != nil {
			return nil, err
		}
		ref := jobID.String
		w.JobID = &ref
		w.Job = &worker.JobSnapshot{ID: ref, Name: jobName.String, Salary: offered}
	}

	return w, nil
}

func translateWorkerPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return worker.ErrWorkerNotFound
	}
	if pgdb.IsConflict(err) {
		return conflictError(worker.ErrConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "workers_employer_id_fkey":
				return employer.ErrEmployerNotFound
			case "workers_job_id_employer_id_fkey":
				return integrity.ErrOwnershipMismatch
			}
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "workers_employment_pair_check":
				return worker.ErrIncompleteAssignment
			case "workers_salary_check":
				return worker.ErrInvalidSalary
			}
		}
	}

	return err
}
