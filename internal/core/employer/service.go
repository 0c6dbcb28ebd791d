package employer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// CascadeRules は雇用主削除に伴う従属データの処理です。
// 削除と同じトランザクション内、雇用主の行ロック取得後に呼び出されます。
type CascadeRules interface {
	BeforeEmployerDelete(ctx context.Context, employerID string) error
}

type noopCascadeRules struct{}

func (noopCascadeRules) BeforeEmployerDelete(context.Context, string) error {
	return nil
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は雇用主に関するユースケースをまとめます。
type Service struct {
	repo    Repository
	cascade CascadeRules
	clock   Clock
	tx      TransactionManager
}

// UseCase は雇用主ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployer(ctx context.Context, in CreateEmployerInput) (*Employer, error)
	GetEmployer(ctx context.Context, in GetEmployerInput) (*Employer, error)
	ListEmployers(ctx context.Context, in ListEmployersInput) (*ListEmployersResult, error)
	UpdateEmployer(ctx context.Context, in UpdateEmployerInput) (*Employer, error)
	DeleteEmployer(ctx context.Context, in DeleteEmployerInput) (*Employer, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, cascade CascadeRules, clock Clock, tx TransactionManager) *Service {
	if cascade == nil {
		cascade = noopCascadeRules{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, cascade: cascade, clock: clock, tx: tx}
}

// CreateEmployerInput は雇用主作成時の入力です。
type CreateEmployerInput struct {
	Name   string
	Status *Status
}

// UpdateEmployerInput は雇用主更新時の入力です。
type UpdateEmployerInput struct {
	ID     string
	Name   *string
	Status *Status
}

// DeleteEmployerInput は雇用主削除時の入力です。
type DeleteEmployerInput struct {
	ID string
}

// GetEmployerInput は雇用主取得時の入力です。
type GetEmployerInput struct {
	ID string
}

// ListEmployersInput は一覧取得時の入力です。
type ListEmployersInput struct {
	PageSize  int
	PageToken string
	Status    *Status
}

// ListEmployersResult は一覧取得結果を表します。
type ListEmployersResult struct {
	Employers     []*Employer
	NextPageToken string
}

// CreateEmployer は新しい雇用主を作成します。
func (s *Service) CreateEmployer(ctx context.Context, in CreateEmployerInput) (*Employer, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	status := StatusActive
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status = *in.Status
	}

	var created *Employer
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Employer{
			Name:      name,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployer は雇用主情報を更新します。
func (s *Service) UpdateEmployer(ctx context.Context, in UpdateEmployerInput) (*Employer, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Employer
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name, err := normalizeName(*in.Name)
			if err != nil {
				return err
			}
			existing.Name = name
		}

		if in.Status != nil {
			if !isValidStatus(*in.Status) {
				return ErrInvalidStatus
			}
			existing.Status = *in.Status
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEmployer は雇用主を削除します。
// 所有する求人は削除され、所属していた労働者は解雇されて無職の状態になります。
func (s *Service) DeleteEmployer(ctx context.Context, in DeleteEmployerInput) (*Employer, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var deleted *Employer
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := s.cascade.BeforeEmployerDelete(txCtx, existing.ID); err != nil {
			return err
		}

		if err := s.repo.Delete(txCtx, existing.ID); err != nil {
			return err
		}
		deleted = existing
		return nil
	}); err != nil {
		return nil, err
	}

	return deleted, nil
}

// GetEmployer は ID で雇用主を取得します。
func (s *Service) GetEmployer(ctx context.Context, in GetEmployerInput) (*Employer, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var found *Employer
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListEmployers は雇用主の一覧を取得します。
func (s *Service) ListEmployers(ctx context.Context, in ListEmployersInput) (*ListEmployersResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var (
		employers []*Employer
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListEmployersFilter{
			Limit:  limit,
			Offset: offset,
			Status: statusPtr,
		})
		if err != nil {
			return err
		}
		employers = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployersResult{Employers: employers, NextPageToken: nextToken}, nil
}

// NormalizeID は雇用主 ID を検証し、正規化された UUID 文字列を返します。
func NormalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("id %q: %w", trimmed, ErrInvalidID)
	}
	return id.String(), nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
