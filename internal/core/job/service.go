package job

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/shopspring/decimal"
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

// EmployerVerifier は雇用主の存在を書き込みと同じトランザクション内で確認します。
type EmployerVerifier interface {
	VerifyEmployer(ctx context.Context, id string) (*employer.Employer, error)
}

// CascadeRules は求人削除に伴う従属データの処理です。
type CascadeRules interface {
	BeforeJobDelete(ctx context.Context, jobID string) error
}

type noopCascadeRules struct{}

func (noopCascadeRules) BeforeJobDelete(context.Context, string) error {
	return nil
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

var maxSalary = decimal.New(1, 10)

// Service は求人に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employers EmployerVerifier
	cascade   CascadeRules
	clock     Clock
	tx        TransactionManager
}

// UseCase は求人ユースケースの公開インターフェースです。
type UseCase interface {
	CreateJob(ctx context.Context, in CreateJobInput) (*Job, error)
	GetJob(ctx context.Context, in GetJobInput) (*Job, error)
	ListJobs(ctx context.Context, in ListJobsInput) (*ListJobsResult, error)
	ListJobsByCreationPeriod(ctx context.Context, in ListJobsByCreationPeriodInput) ([]*Job, error)
	UpdateJob(ctx context.Context, in UpdateJobInput) (*Job, error)
	ArchiveJob(ctx context.Context, in ArchiveJobInput) (*Job, error)
	DeleteJob(ctx context.Context, in DeleteJobInput) (*Job, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employers EmployerVerifier, cascade CascadeRules, clock Clock, tx TransactionManager) *Service {
	if cascade == nil {
		cascade = noopCascadeRules{}
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employers: employers, cascade: cascade, clock: clock, tx: tx}
}

// CreateJobInput は求人作成時の入力です。
type CreateJobInput struct {
	EmployerID   string
	Name         string
	Salary       decimal.Decimal
	Status       *Status
	CreationDate *time.Time
}

// UpdateJobInput は求人更新時の入力です。所有する雇用主は変更できません。
type UpdateJobInput struct {
	ID              string
	Name            *string
	Salary          *decimal.Decimal
	Status          *Status
	CreationDate    *time.Time
	CreationDateSet bool
}

// GetJobInput は求人取得時の入力です。
type GetJobInput struct {
	ID string
}

// ArchiveJobInput は求人アーカイブ時の入力です。
type ArchiveJobInput struct {
	ID string
}

// DeleteJobInput は求人削除時の入力です。
type DeleteJobInput struct {
	ID string
}

// ListJobsInput は一覧取得時の入力です。
type ListJobsInput struct {
	EmployerID string
	Status     *Status
	PageSize   int
	PageToken  string
}

// ListJobsResult は一覧取得結果を表します。
type ListJobsResult struct {
	Jobs          []*Job
	NextPageToken string
}

// ListJobsByCreationPeriodInput は作成日の期間指定での一覧取得の入力です。境界を含みます。
type ListJobsByCreationPeriodInput struct {
	Start time.Time
	End   time.Time
}

// CreateJob は新しい求人を作成します。
func (s *Service) CreateJob(ctx context.Context, in CreateJobInput) (*Job, error) {
	employerID, err := employer.NormalizeID(in.EmployerID)
	if err != nil {
		return nil, err
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	salary, err := NormalizeSalary(in.Salary)
	if err != nil {
		return nil, err
	}

	status := StatusDraft
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status = *in.Status
	}

	var created *Job
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.employers.VerifyEmployer(txCtx, employerID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Job{
			EmployerID:   employerID,
			Name:         name,
			Status:       status,
			CreationDate: normalizeTime(in.CreationDate),
			Salary:       salary,
			CreatedAt:    now,
			UpdatedAt:    now,
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

// UpdateJob は求人情報を更新します。
func (s *Service) UpdateJob(ctx context.Context, in UpdateJobInput) (*Job, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Job
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

		if in.Salary != nil {
			salary, err := NormalizeSalary(*in.Salary)
			if err != nil {
				return err
			}
			existing.Salary = salary
		}

		if in.Status != nil {
			if !isValidStatus(*in.Status) {
				return ErrInvalidStatus
			}
			existing.Status = *in.Status
		}

		if in.CreationDateSet {
			existing.CreationDate = normalizeTime(in.CreationDate)
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

// ArchiveJob は求人をアーカイブ状態にします。
func (s *Service) ArchiveJob(ctx context.Context, in ArchiveJobInput) (*Job, error) {
	archived := StatusArchive
	return s.UpdateJob(ctx, UpdateJobInput{ID: in.ID, Status: &archived})
}

// DeleteJob は求人を削除します。この求人に就いている労働者は雇用主・求人の両方の参照が解除されます。
func (s *Service) DeleteJob(ctx context.Context, in DeleteJobInput) (*Job, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var deleted *Job
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if err := s.cascade.BeforeJobDelete(txCtx, existing.ID); err != nil {
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

// GetJob は求人を取得します。
func (s *Service) GetJob(ctx context.Context, in GetJobInput) (*Job, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var found *Job
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

// ListJobs は求人の一覧を取得します。
func (s *Service) ListJobs(ctx context.Context, in ListJobsInput) (*ListJobsResult, error) {
	var employerID string
	if strings.TrimSpace(in.EmployerID) != "" {
		id, err := employer.NormalizeID(in.EmployerID)
		if err != nil {
			return nil, err
		}
		employerID = id
	}

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
		jobs      []*Job
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListJobsFilter{
			EmployerID: employerID,
			Status:     statusPtr,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		jobs = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListJobsResult{Jobs: jobs, NextPageToken: nextToken}, nil
}

// ListJobsByCreationPeriod は作成日が期間内にある求人を取得します。
// 期間の両端は UTC の日付として扱い、時刻は無視します。
func (s *Service) ListJobsByCreationPeriod(ctx context.Context, in ListJobsByCreationPeriodInput) ([]*Job, error) {
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, ErrInvalidPeriod
	}
	start, end := dateOf(in.Start), dateOf(in.End)
	if end.Before(start) {
		return nil, ErrInvalidPeriod
	}

	var jobs []*Job
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByCreationPeriod(txCtx, start, end)
		if err != nil {
			return err
		}
		jobs = result
		return nil
	}); err != nil {
		return nil, err
	}

	return jobs, nil
}

// NormalizeID は求人 ID を検証し、正規化された UUID 文字列を返します。
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

// NormalizeSalary は給与が正の値で、小数点以下 2 桁以内かを検証します。
func NormalizeSalary(salary decimal.Decimal) (decimal.Decimal, error) {
	if !salary.IsPositive() || !salary.LessThan(maxSalary) {
		return decimal.Decimal{}, ErrInvalidSalary
	}
	if !salary.Equal(salary.Round(2)) {
		return decimal.Decimal{}, ErrInvalidSalary
	}
	return salary, nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func dateOf(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusDraft, StatusActive, StatusArchive:
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
