package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/job"
	pgdb "github.com/ogurasousui/staffing/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

const jobSelectColumns = `j.id, j.employer_id, j.name, j.status, j.creation_date, j.salary, j.created_at, j.updated_at,
               e.id, e.name, e.status`

const jobReturningColumns = `id, employer_id, name, status, creation_date, salary, created_at, updated_at`

// JobRepository は PostgreSQL を利用した求人永続化の実装です。
type JobRepository struct {
	pool pgdb.Queryer
}

// NewJobRepository は JobRepository を生成します。
func NewJobRepository(pool pgdb.Queryer) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create は求人を新規作成します。
func (r *JobRepository) Create(ctx context.Context, j *job.Job) (*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO jobs (employer_id, name, status, creation_date, salary, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING `+jobReturningColumns+`
        )
        SELECT `+jobSelectColumns+`
          FROM inserted j
          JOIN employers e ON e.id = j.employer_id
    `,
		j.EmployerID,
		j.Name,
		string(j.Status),
		nullableDate(j.CreationDate),
		toNumeric(j.Salary),
		j.CreatedAt,
		j.UpdatedAt,
	)

	created, err := scanJob(row)
	if err != nil {
		return nil, translateJobPgError(err)
	}
	return created, nil
}

// Update は求人情報を更新します。雇用主は変更しません。
func (r *JobRepository) Update(ctx context.Context, j *job.Job) (*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE jobs
               SET name = $1,
                   status = $2,
                   creation_date = $3,
                   salary = $4,
                   updated_at = $5
             WHERE id = $6
            RETURNING `+jobReturningColumns+`
        )
        SELECT `+jobSelectColumns+`
          FROM updated j
          JOIN employers e ON e.id = j.employer_id
    `,
		j.Name,
		string(j.Status),
		nullableDate(j.CreationDate),
		toNumeric(j.Salary),
		j.UpdatedAt,
		j.ID,
	)

	updated, err := scanJob(row)
	if err != nil {
		return nil, translateJobPgError(err)
	}
	return updated, nil
}

// Delete は求人を削除します。
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return translateJobPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// DeleteByEmployer は雇用主に属する求人をすべて削除し、削除件数を返します。
func (r *JobRepository) DeleteByEmployer(ctx context.Context, employerID string) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM jobs WHERE employer_id = $1`, employerID)
	if err != nil {
		return 0, translateJobPgError(err)
	}
	return tag.RowsAffected(), nil
}

// FindByID は ID で求人を取得します。
func (r *JobRepository) FindByID(ctx context.Context, id string) (*job.Job, error) {
	return r.findByID(ctx, id, "")
}

// FindByIDForShare は共有ロックを取得して求人を取得します。
func (r *JobRepository) FindByIDForShare(ctx context.Context, id string) (*job.Job, error) {
	return r.findByID(ctx, id, " FOR SHARE OF j")
}

// FindByIDForUpdate は排他ロックを取得して求人を取得します。
func (r *JobRepository) FindByIDForUpdate(ctx context.Context, id string) (*job.Job, error) {
	return r.findByID(ctx, id, " FOR UPDATE OF j")
}

func (r *JobRepository) findByID(ctx context.Context, id, lock string) (*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+jobSelectColumns+`
          FROM jobs j
          JOIN employers e ON e.id = j.employer_id
         WHERE j.id = $1`+lock+`
    `, id)

	found, err := scanJob(row)
	if err != nil {
		return nil, translateJobPgError(err)
	}
	return found, nil
}

// List は求人の一覧を取得します。
func (r *JobRepository) List(ctx context.Context, filter job.ListJobsFilter) ([]*job.Job, string, error) {
	if filter.Limit <= 0 {
		return nil, "", job.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", job.ErrInvalidPageToken
	}

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.EmployerID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "j.employer_id = "+placeholder)
		args = append(args, filter.EmployerID)
	}

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "j.status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + jobSelectColumns + `
          FROM jobs j
          JOIN employers e ON e.id = j.employer_id` + whereClause + `
         ORDER BY j.created_at, j.id
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	jobs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(jobs) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		jobs = jobs[:filter.Limit]
	}

	return jobs, nextToken, nil
}

// ListByCreationPeriod は作成日が start から end (両端を含む) の求人を取得します。
func (r *JobRepository) ListByCreationPeriod(ctx context.Context, start, end time.Time) ([]*job.Job, error) {
	return r.query(ctx, `
        SELECT `+jobSelectColumns+`
          FROM jobs j
          JOIN employers e ON e.id = j.employer_id
         WHERE j.creation_date BETWEEN $1 AND $2
         ORDER BY j.creation_date, j.created_at, j.id
    `, truncateDate(start), truncateDate(end))
}

// ListMatching は公開中かつ給与が minSalary 以上の求人を作成順に取得します。
func (r *JobRepository) ListMatching(ctx context.Context, minSalary decimal.Decimal) ([]*job.Job, error) {
	return r.query(ctx, `
        SELECT `+jobSelectColumns+`
          FROM jobs j
          JOIN employers e ON e.id = j.employer_id
         WHERE j.status = $1
           AND j.salary >= $2
         ORDER BY j.created_at, j.id
    `, string(job.StatusActive), toNumeric(minSalary))
}

func (r *JobRepository) query(ctx context.Context, query string, args ...any) ([]*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateJobPgError(err)
	}
	defer rows.Close()

	jobs := make([]*job.Job, 0)
	for rows.Next() {
		found, err := scanJob(rows)
		if err != nil {
			return nil, translateJobPgError(err)
		}
		jobs = append(jobs, found)
	}

	if err := rows.Err(); err != nil {
		return nil, translateJobPgError(err)
	}

	return jobs, nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		id, employerID, name, status string
		creationDate                 sql.NullTime
		salary                       pgtype.Numeric
		createdAt, updatedAt         time.Time
		employerJoinedID             string
		employerName                 string
		employerStatus               string
	)

	if err := row.Scan(
		&id,
		&employerID,
		&name,
		&status,
		&creationDate,
		&salary,
		&createdAt,
		&updatedAt,
		&employerJoinedID,
		&employerName,
		&employerStatus,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}

	amount, err := fromNumeric(salary)
	if err != nil {
		return nil, err
	}

	var creationPtr *time.Time
	if creationDate.Valid {
		date := truncateDate(creationDate.Time)
		creationPtr = &date
	}

	return &job.Job{
		ID:           id,
		EmployerID:   employerID,
		Name:         name,
		Status:       job.Status(status),
		CreationDate: creationPtr,
		Salary:       amount,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Employer: &job.EmployerSnapshot{
			ID:     employerJoinedID,
			Name:   employerName,
			Status: employerStatus,
		},
	}, nil
}

func translateJobPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return job.ErrJobNotFound
	}
	if pgdb.IsConflict(err) {
		return conflictError(job.ErrConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "jobs_employer_id_fkey" {
				return employer.ErrEmployerNotFound
			}
		case checkViolationCode:
			if pgErr.ConstraintName == "jobs_salary_check" {
				return job.ErrInvalidSalary
			}
			return job.ErrInvalidStatus
		}
	}

	return err
}
