package job

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository は求人永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, job *Job) (*Job, error)
	Update(ctx context.Context, job *Job) (*Job, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmployer(ctx context.Context, employerID string) (int64, error)
	FindByID(ctx context.Context, id string) (*Job, error)
	FindByIDForShare(ctx context.Context, id string) (*Job, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, filter ListJobsFilter) ([]*Job, string, error)
	ListByCreationPeriod(ctx context.Context, start, end time.Time) ([]*Job, error)
	ListMatching(ctx context.Context, minSalary decimal.Decimal) ([]*Job, error)
}

// ListJobsFilter は一覧取得用フィルタです。
type ListJobsFilter struct {
	EmployerID string
	Status     *Status
	Limit      int
	Offset     int
}
