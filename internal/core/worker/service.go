package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/integrity"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
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

// CommitNotifier はトランザクションのコミット後に処理を実行できる TransactionManager が実装します。
// 入れ子のトランザクションで行った遷移は、最外周のコミットが確定するまで通知されません。
type CommitNotifier interface {
	AfterCommit(ctx context.Context, fn func())
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

// Validator は雇用先の参照整合性チェックです。
type Validator interface {
	VerifyAssignment(ctx context.Context, employerID, jobID string) (*integrity.Assignment, error)
	LookupEmployer(ctx context.Context, id string) (*employer.Employer, error)
}

// JobMatcher は希望給与を満たす公開中の求人を検索します。
type JobMatcher interface {
	ListMatching(ctx context.Context, minSalary decimal.Decimal) ([]*job.Job, error)
}

// TransitionObserver は雇用状態の遷移を観測します。
type TransitionObserver interface {
	ObserveTransition(action string)
	ObserveConflict()
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(string) {}
func (noopObserver) ObserveConflict()         {}

// Option は Service の任意設定です。
type Option func(*Service)

// WithClock は時刻の取得元を差し替えます。
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTransactionManager はトランザクション管理を設定します。
func WithTransactionManager(tx TransactionManager) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithObserver は遷移の観測先を設定します。
func WithObserver(observer TransitionObserver) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は労働者に関するユースケースと雇用状態の遷移をまとめます。
//
// 雇用主・求人の参照を書き換える操作はすべて transition / release を経由し、
// 労働者の行ロック、参照の検証、履歴の追記を 1 つのトランザクションで行います。
type Service struct {
	repo      Repository
	history   HistoryRepository
	validator Validator
	jobs      JobMatcher
	observer  TransitionObserver
	logger    *zap.Logger
	clock     Clock
	tx        TransactionManager
}

// UseCase は労働者ユースケースの公開インターフェースです。
type UseCase interface {
	CreateWorker(ctx context.Context, in CreateWorkerInput) (*Worker, error)
	GetWorker(ctx context.Context, in GetWorkerInput) (*Worker, error)
	ListWorkers(ctx context.Context, in ListWorkersInput) (*ListWorkersResult, error)
	ListEmployerWorkers(ctx context.Context, in ListEmployerWorkersInput) (*ListWorkersResult, error)
	UpdateWorker(ctx context.Context, in UpdateWorkerInput) (*Worker, error)
	DeleteWorker(ctx context.Context, in DeleteWorkerInput) (*Worker, error)
	GetMatchedJobs(ctx context.Context, in GetMatchedJobsInput) ([]*job.Job, error)
	ChangeEmployer(ctx context.Context, in ChangeEmployerInput) (*Worker, error)
	DismissWorker(ctx context.Context, in DismissWorkerInput) (*Worker, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, history HistoryRepository, validator Validator, jobs JobMatcher, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		history:   history,
		validator: validator,
		jobs:      jobs,
		observer:  noopObserver{},
		logger:    zap.NewNop(),
		clock:     realClock{},
		tx:        noopTransactionManager{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateWorkerInput は労働者作成時の入力です。雇用主と求人は両方指定するか、両方省略します。
type CreateWorkerInput struct {
	Name       string
	Salary     decimal.Decimal
	EmployerID string
	JobID      string
}

// GetWorkerInput は労働者取得時の入力です。
type GetWorkerInput struct {
	ID string
}

// ListWorkersInput は一覧取得時の入力です。
type ListWorkersInput struct {
	PageSize  int
	PageToken string
}

// ListEmployerWorkersInput は雇用主に所属する労働者の一覧取得時の入力です。
type ListEmployerWorkersInput struct {
	EmployerID string
	PageSize   int
	PageToken  string
}

// ListWorkersResult は一覧取得結果を表します。
type ListWorkersResult struct {
	Workers       []*Worker
	NextPageToken string
}

// UpdateWorkerInput は労働者更新時の入力です。
// EmployerID と JobID は両方指定した場合のみ有効で、両方空文字なら解雇として扱います。
type UpdateWorkerInput struct {
	ID         string
	Name       *string
	Salary     *decimal.Decimal
	EmployerID *string
	JobID      *string
}

// DeleteWorkerInput は労働者削除時の入力です。
type DeleteWorkerInput struct {
	ID string
}

// GetMatchedJobsInput はマッチング検索の入力です。
type GetMatchedJobsInput struct {
	WorkerID string
}

// ChangeEmployerInput は雇用先変更の入力です。
type ChangeEmployerInput struct {
	WorkerID   string
	EmployerID string
	JobID      string
}

// DismissWorkerInput は解雇の入力です。
type DismissWorkerInput struct {
	WorkerID string
}

type employmentChange int

const (
	employmentUnchanged employmentChange = iota
	employmentAssign
	employmentClear
)

// transitionLog はトランザクション内で追記した履歴を記録し、コミット後の通知に使います。
type transitionLog struct {
	entries []*History
}

func (l *transitionLog) add(entry *History) {
	l.entries = append(l.entries, entry)
}

// CreateWorker は労働者を作成します。雇用先が指定された場合は同じトランザクション内で採用します。
func (s *Service) CreateWorker(ctx context.Context, in CreateWorkerInput) (*Worker, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	salary, err := normalizeSalary(in.Salary)
	if err != nil {
		return nil, err
	}

	change, err := parseEmployment(&in.EmployerID, &in.JobID)
	if err != nil {
		return nil, err
	}

	var created *Worker
	if err := s.withinTransition(ctx, "create_worker", func(txCtx context.Context, log *transitionLog) error {
		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Worker{
			Name:      name,
			Salary:    salary,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		if change == employmentAssign {
			result, err = s.transition(txCtx, log, result, in.EmployerID, in.JobID)
			if err != nil {
				return err
			}
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetWorker は労働者を履歴付きで取得します。履歴は古い順です。
func (s *Service) GetWorker(ctx context.Context, in GetWorkerInput) (*Worker, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var found *Worker
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		history, err := s.history.ListByWorker(txCtx, id)
		if err != nil {
			return err
		}
		result.History = history

		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListWorkers は労働者の一覧を取得します。
func (s *Service) ListWorkers(ctx context.Context, in ListWorkersInput) (*ListWorkersResult, error) {
	return s.list(ctx, "", in.PageSize, in.PageToken)
}

// ListEmployerWorkers は雇用主に所属する労働者の一覧を取得します。
func (s *Service) ListEmployerWorkers(ctx context.Context, in ListEmployerWorkersInput) (*ListWorkersResult, error) {
	employerID, err := employer.NormalizeID(in.EmployerID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, employerID, in.PageSize, in.PageToken)
}

func (s *Service) list(ctx context.Context, employerID string, pageSize int, pageToken string) (*ListWorkersResult, error) {
	limit, err := normalizePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(pageToken)
	if err != nil {
		return nil, err
	}

	var (
		workers   []*Worker
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if employerID != "" {
			if _, err := s.validator.LookupEmployer(txCtx, employerID); err != nil {
				return err
			}
		}

		result, token, err := s.repo.List(txCtx, ListWorkersFilter{
			EmployerID: employerID,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		workers = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListWorkersResult{Workers: workers, NextPageToken: nextToken}, nil
}

// UpdateWorker は労働者情報を更新します。雇用先の変更は ChangeEmployer と同じ遷移を通ります。
func (s *Service) UpdateWorker(ctx context.Context, in UpdateWorkerInput) (*Worker, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var name *string
	if in.Name != nil {
		normalized, err := normalizeName(*in.Name)
		if err != nil {
			return nil, err
		}
		name = &normalized
	}

	var salary *decimal.Decimal
	if in.Salary != nil {
		normalized, err := normalizeSalary(*in.Salary)
		if err != nil {
			return nil, err
		}
		salary = &normalized
	}

	change, err := parseEmployment(in.EmployerID, in.JobID)
	if err != nil {
		return nil, err
	}

	var updated *Worker
	if err := s.withinTransition(ctx, "update_worker", func(txCtx context.Context, log *transitionLog) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if name != nil || salary != nil {
			if name != nil {
				existing.Name = *name
			}
			if salary != nil {
				existing.Salary = *salary
			}
			existing.UpdatedAt = s.clock.Now()

			existing, err = s.repo.Update(txCtx, existing)
			if err != nil {
				return err
			}
		}

		switch change {
		case employmentAssign:
			existing, err = s.transition(txCtx, log, existing, *in.EmployerID, *in.JobID)
		case employmentClear:
			if existing.Employed() {
				existing, err = s.release(txCtx, log, existing)
			}
		}
		if err != nil {
			return err
		}

		updated = existing
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteWorker は労働者を削除します。雇用履歴は削除されません。
func (s *Service) DeleteWorker(ctx context.Context, in DeleteWorkerInput) (*Worker, error) {
	id, err := NormalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var deleted *Worker
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
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

// GetMatchedJobs は公開中で、給与が労働者の希望給与以上の求人を返します。
func (s *Service) GetMatchedJobs(ctx context.Context, in GetMatchedJobsInput) ([]*job.Job, error) {
	id, err := NormalizeID(in.WorkerID)
	if err != nil {
		return nil, err
	}

	var matched []*job.Job
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		w, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		result, err := s.jobs.ListMatching(txCtx, w.Salary)
		if err != nil {
			return err
		}
		matched = result
		return nil
	}); err != nil {
		return nil, err
	}

	return matched, nil
}

// ChangeEmployer は労働者を新しい雇用主・求人に移します。
// 雇用中だった場合は現在の雇用先の fired を、続けて新しい雇用先の hired を記録します。
func (s *Service) ChangeEmployer(ctx context.Context, in ChangeEmployerInput) (*Worker, error) {
	id, err := NormalizeID(in.WorkerID)
	if err != nil {
		return nil, err
	}

	change, err := parseEmployment(&in.EmployerID, &in.JobID)
	if err != nil {
		return nil, err
	}
	if change != employmentAssign {
		return nil, ErrIncompleteAssignment
	}

	var updated *Worker
	if err := s.withinTransition(ctx, "change_employer", func(txCtx context.Context, log *transitionLog) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		result, err := s.transition(txCtx, log, existing, in.EmployerID, in.JobID)
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

// DismissWorker は雇用中の労働者を解雇し、無職の状態にします。
func (s *Service) DismissWorker(ctx context.Context, in DismissWorkerInput) (*Worker, error) {
	id, err := NormalizeID(in.WorkerID)
	if err != nil {
		return nil, err
	}

	var updated *Worker
	if err := s.withinTransition(ctx, "dismiss_worker", func(txCtx context.Context, log *transitionLog) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !existing.Employed() {
			return ErrNotEmployed
		}

		result, err := s.release(txCtx, log, existing)
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

// ReleaseByEmployer は雇用主に所属するすべての労働者を解雇します。雇用主削除の前処理です。
func (s *Service) ReleaseByEmployer(ctx context.Context, employerID string) (int, error) {
	id, err := employer.NormalizeID(employerID)
	if err != nil {
		return 0, err
	}
	return s.releaseAll(ctx, "release_by_employer", EmploymentFilter{EmployerID: id})
}

// ReleaseByJob は求人に就いているすべての労働者を解雇します。求人削除の前処理です。
func (s *Service) ReleaseByJob(ctx context.Context, jobID string) (int, error) {
	id, err := job.NormalizeID(jobID)
	if err != nil {
		return 0, err
	}
	return s.releaseAll(ctx, "release_by_job", EmploymentFilter{JobID: id})
}

func (s *Service) releaseAll(ctx context.Context, operation string, filter EmploymentFilter) (int, error) {
	var released int
	if err := s.withinTransition(ctx, operation, func(txCtx context.Context, log *transitionLog) error {
		workers, err := s.repo.ListEmployedForUpdate(txCtx, filter)
		if err != nil {
			return err
		}

		for _, w := range workers {
			if !w.Employed() {
				continue
			}
			if _, err := s.release(txCtx, log, w); err != nil {
				return err
			}
			released++
		}
		return nil
	}); err != nil {
		return 0, err
	}

	return released, nil
}

// transition はロック済みの労働者を新しい雇用先に移します。呼び出し側のトランザクション内で実行されます。
func (s *Service) transition(ctx context.Context, log *transitionLog, current *Worker, employerID, jobID string) (*Worker, error) {
	assignment, err := s.validator.VerifyAssignment(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	if current.Employed() {
		if err := s.appendHistory(ctx, log, firedEntry(current, now)); err != nil {
			return nil, err
		}
	}

	newEmployerID := assignment.Employer.ID
	newJobID := assignment.Job.ID
	updated, err := s.repo.SetEmployment(ctx, current.ID, &newEmployerID, &newJobID, now)
	if err != nil {
		return nil, err
	}

	if err := s.appendHistory(ctx, log, &History{
		WorkerID:     current.ID,
		Action:       ActionHired,
		JobID:        assignment.Job.ID,
		EmployerID:   assignment.Employer.ID,
		JobName:      assignment.Job.Name,
		EmployerName: assignment.Employer.Name,
		JobSalary:    assignment.Job.Salary,
		OccurredAt:   now,
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// release はロック済みの雇用中の労働者を解雇します。
func (s *Service) release(ctx context.Context, log *transitionLog, current *Worker) (*Worker, error) {
	now := s.clock.Now()

	if err := s.appendHistory(ctx, log, firedEntry(current, now)); err != nil {
		return nil, err
	}

	return s.repo.SetEmployment(ctx, current.ID, nil, nil, now)
}

func (s *Service) appendHistory(ctx context.Context, log *transitionLog, entry *History) error {
	appended, err := s.history.Append(ctx, entry)
	if err != nil {
		return err
	}
	log.add(appended)
	return nil
}

// withinTransition は読み書きトランザクション内で fn を実行し、コミット後に遷移を通知します。
func (s *Service) withinTransition(ctx context.Context, operation string, fn func(context.Context, *transitionLog) error) error {
	log := &transitionLog{}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := fn(txCtx, log); err != nil {
			return err
		}
		if notifier, ok := s.tx.(CommitNotifier); ok {
			notifier.AfterCommit(txCtx, func() { s.notify(operation, log) })
		}
		return nil
	}); err != nil {
		if IsConflict(err) {
			s.observer.ObserveConflict()
			s.logger.Warn("worker transition conflict",
				zap.String("operation", operation),
				zap.Error(err),
			)
		}
		return err
	}

	if _, ok := s.tx.(CommitNotifier); !ok {
		s.notify(operation, log)
	}
	return nil
}

func (s *Service) notify(operation string, log *transitionLog) {
	for _, entry := range log.entries {
		s.observer.ObserveTransition(string(entry.Action))
		s.logger.Info("worker transition",
			zap.String("operation", operation),
			zap.String("worker_id", entry.WorkerID),
			zap.String("action", string(entry.Action)),
			zap.String("employer_id", entry.EmployerID),
			zap.String("job_id", entry.JobID),
		)
	}
}

func firedEntry(current *Worker, now time.Time) *History {
	entry := &History{
		WorkerID:   current.ID,
		Action:     ActionFired,
		OccurredAt: now,
	}
	if current.EmployerID != nil {
		entry.EmployerID = *current.EmployerID
	}
	if current.JobID != nil {
		entry.JobID = *current.JobID
	}
	if current.Employer != nil {
		entry.EmployerName = current.Employer.Name
	}
	if current.Job != nil {
		entry.JobName = current.Job.Name
		entry.JobSalary = current.Job.Salary
	}
	return entry
}

// IsConflict は err が再試行可能な同時実行の競合かどうかを返します。
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, employer.ErrConflict) || errors.Is(err, job.ErrConflict)
}

// NormalizeID は労働者 ID を検証し、正規化された UUID 文字列を返します。
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

func parseEmployment(employerID, jobID *string) (employmentChange, error) {
	if employerID == nil && jobID == nil {
		return employmentUnchanged, nil
	}
	if employerID == nil || jobID == nil {
		return employmentUnchanged, ErrIncompleteAssignment
	}

	e := strings.TrimSpace(*employerID)
	j := strings.TrimSpace(*jobID)
	switch {
	case e == "" && j == "":
		return employmentClear, nil
	case e == "" || j == "":
		return employmentUnchanged, ErrIncompleteAssignment
	default:
		return employmentAssign, nil
	}
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeSalary(salary decimal.Decimal) (decimal.Decimal, error) {
	normalized, err := job.NormalizeSalary(salary)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidSalary
	}
	return normalized, nil
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
