package employer

import "context"

// Repository は雇用主エンティティの永続化を行うインターフェースです。
// ForShare / ForUpdate 系はトランザクション内で呼び出し、コミットまで行ロックを保持します。
type Repository interface {
	Create(ctx context.Context, employer *Employer) (*Employer, error)
	Update(ctx context.Context, employer *Employer) (*Employer, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employer, error)
	FindByIDForShare(ctx context.Context, id string) (*Employer, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Employer, error)
	List(ctx context.Context, filter ListEmployersFilter) ([]*Employer, string, error)
}

// ListEmployersFilter は一覧取得時の検索条件を表します。
type ListEmployersFilter struct {
	Limit  int
	Offset int
	Status *Status
}
