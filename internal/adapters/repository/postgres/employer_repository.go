package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/staffing/internal/core/employer"
	pgdb "github.com/ogurasousui/staffing/internal/platform/db/postgres"
)

const employerColumns = `id, name, status, created_at, updated_at`

// EmployerRepository は PostgreSQL を利用した雇用主永続化の実装です。
type EmployerRepository struct {
	pool pgdb.Queryer
}

// NewEmployerRepository は EmployerRepository を生成します。
func NewEmployerRepository(pool pgdb.Queryer) *EmployerRepository {
	return &EmployerRepository{pool: pool}
}

// Create は雇用主を新規作成します。
func (r *EmployerRepository) Create(ctx context.Context, e *employer.Employer) (*employer.Employer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employers (name, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING `+employerColumns+`
    `, e.Name, string(e.Status), e.CreatedAt, e.UpdatedAt)

	created, err := scanEmployer(row)
	if err != nil {
		return nil, translateEmployerPgError(err)
	}
	return created, nil
}

// Update は雇用主情報を更新します。
func (r *EmployerRepository) Update(ctx context.Context, e *employer.Employer) (*employer.Employer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employers
           SET name = $1,
               status = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+employerColumns+`
    `, e.Name, string(e.Status), e.UpdatedAt, e.ID)

	updated, err := scanEmployer(row)
	if err != nil {
		return nil, translateEmployerPgError(err)
	}
	return updated, nil
}

// Delete は雇用主を削除します。
func (r *EmployerRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employers WHERE id = $1`, id)
	if err != nil {
		return translateEmployerPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employer.ErrEmployerNotFound
	}
	return nil
}

// FindByID は ID で雇用主を取得します。
func (r *EmployerRepository) FindByID(ctx context.Context, id string) (*employer.Employer, error) {
	return r.findByID(ctx, id, "")
}

// FindByIDForShare は共有ロックを取得して雇用主を取得します。コミットまで削除がブロックされます。
func (r *EmployerRepository) FindByIDForShare(ctx context.Context, id string) (*employer.Employer, error) {
	return r.findByID(ctx, id, " FOR SHARE")
}

// FindByIDForUpdate は排他ロックを取得して雇用主を取得します。
func (r *EmployerRepository) FindByIDForUpdate(ctx context.Context, id string) (*employer.Employer, error) {
	return r.findByID(ctx, id, " FOR UPDATE")
}

func (r *EmployerRepository) findByID(ctx context.Context, id, lock string) (*employer.Employer, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employerColumns+`
          FROM employers
         WHERE id = $1`+lock+`
    `, id)

	found, err := scanEmployer(row)
	if err != nil {
		return nil, translateEmployerPgError(err)
	}
	return found, nil
}

// List は雇用主の一覧を取得します。
func (r *EmployerRepository) List(ctx context.Context, filter employer.ListEmployersFilter) ([]*employer.Employer, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employer.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employer.ErrInvalidPageToken
	}

	args := make([]any, 0, 3)
	conditions := make([]string, 0, 1)

	if filter.Status != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "status = "+placeholder)
		args = append(args, string(*filter.Status))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT ` + employerColumns + `
          FROM employers` + whereClause + `
         ORDER BY created_at, id
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployerPgError(err)
	}
	defer rows.Close()

	var employers []*employer.Employer
	for rows.Next() {
		found, err := scanEmployer(rows)
		if err != nil {
			return nil, "", translateEmployerPgError(err)
		}
		employers = append(employers, found)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployerPgError(err)
	}

	var nextToken string
	if len(employers) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		employers = employers[:filter.Limit]
	}

	return employers, nextToken, nil
}

func scanEmployer(row pgx.Row) (*employer.Employer, error) {
	var (
		id, name, status     string
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(&id, &name, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employer.ErrEmployerNotFound
		}
		return nil, err
	}

	return &employer.Employer{
		ID:        id,
		Name:      name,
		Status:    employer.Status(status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translateEmployerPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employer.ErrEmployerNotFound
	}
	if pgdb.IsConflict(err) {
		return conflictError(employer.ErrConflict, err)
	}
	return err
}
