package worker

import (
	"context"
	"time"
)

// Repository は労働者の永続化を行うインターフェースです。
// 雇用主・求人の参照は SetEmployment でのみ変更します。
type Repository interface {
	Create(ctx context.Context, worker *Worker) (*Worker, error)
	// Update は名前と希望給与のみを更新します。
	Update(ctx context.Context, worker *Worker) (*Worker, error)
	// SetEmployment は雇用主と求人の参照を 1 つの文で同時に書き換えます。
	SetEmployment(ctx context.Context, id string, employerID, jobID *string, updatedAt time.Time) (*Worker, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Worker, error)
	// FindByIDForUpdate は行ロックを取得してから最新の状態を読み出します。
	FindByIDForUpdate(ctx context.Context, id string) (*Worker, error)
	List(ctx context.Context, filter ListWorkersFilter) ([]*Worker, string, error)
	// ListEmployedForUpdate は条件に一致する雇用中の労働者をすべてロックして返します。
	ListEmployedForUpdate(ctx context.Context, filter EmploymentFilter) ([]*Worker, error)
}

// ListWorkersFilter は一覧取得時の検索条件を表します。
type ListWorkersFilter struct {
	EmployerID string
	Limit      int
	Offset     int
}

// EmploymentFilter は雇用先による絞り込み条件です。どちらか一方を指定します。
type EmploymentFilter struct {
	EmployerID string
	JobID      string
}

// HistoryRepository は雇用履歴の追記専用ストアです。
type HistoryRepository interface {
	Append(ctx context.Context, entry *History) (*History, error)
	ListByWorker(ctx context.Context, workerID string) ([]*History, error)
}
