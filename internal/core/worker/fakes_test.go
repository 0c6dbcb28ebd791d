package worker

import (
	"context"
	"errors"
	"sort"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/integrity"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

var errInjected = errors.New("injected failure")

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

// memDB は雇用主・求人・労働者・履歴を保持するテスト用のストアです。
// mu は 1 文の実行中だけ保持し、労働者の行ロックは fakeTx がトランザクション終了まで保持します。
type memDB struct {
	mu            sync.Mutex
	employers     map[string]*employer.Employer
	jobs          map[string]*job.Job
	jobOrder      []string
	workers       map[string]*Worker
	workerOrder   []string
	history       []*History
	nextHistoryID int64
	rowLocks      map[string]*sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{
		employers: make(map[string]*employer.Employer),
		jobs:      make(map[string]*job.Job),
		workers:   make(map[string]*Worker),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

// statement は 1 文分だけストアをロックします。他のトランザクションに実行順を譲ってから取得します。
func (db *memDB) statement() func() {
	runtime.Gosched()
	db.mu.Lock()
	return db.mu.Unlock
}

// lockRow は労働者の行ロックを取得し、トランザクション終了まで保持します。
// 同じトランザクションで取得済みなら何もしません。トランザクション外では取得しません。
func (db *memDB) lockRow(ctx context.Context, id string) {
	state := fakeTxFrom(ctx)
	if state == nil {
		return
	}

	state.mu.Lock()
	_, held := state.held[id]
	state.mu.Unlock()
	if held {
		return
	}

	db.mu.Lock()
	lock, ok := db.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		db.rowLocks[id] = lock
	}
	db.mu.Unlock()

	lock.Lock()
	state.mu.Lock()
	state.held[id] = lock
	state.mu.Unlock()
}

// journal はロールバック時に実行する取り消し処理を記録します。呼び出し側は mu を保持しています。
func (db *memDB) journal(ctx context.Context, undo func()) {
	state := fakeTxFrom(ctx)
	if state == nil {
		return
	}
	state.mu.Lock()
	state.undo = append(state.undo, undo)
	state.mu.Unlock()
}

func (db *memDB) removeWorkerOrder(id string) int {
	for i, existing := range db.workerOrder {
		if existing == id {
			db.workerOrder = append(db.workerOrder[:i:i], db.workerOrder[i+1:]...)
			return i
		}
	}
	return len(db.workerOrder)
}

func (db *memDB) insertWorkerOrder(id string, at int) {
	if at > len(db.workerOrder) {
		at = len(db.workerOrder)
	}
	db.workerOrder = append(db.workerOrder[:at:at], append([]string{id}, db.workerOrder[at:]...)...)
}

func (db *memDB) removeHistory(id int64) {
	for i, h := range db.history {
		if h.ID == id {
			db.history = append(db.history[:i:i], db.history[i+1:]...)
			return
		}
	}
}

func (db *memDB) addEmployer(name string) *employer.Employer {
	db.mu.Lock()
	defer db.mu.Unlock()
	e := &employer.Employer{ID: uuid.NewString(), Name: name, Status: employer.StatusActive}
	db.employers[e.ID] = e
	return e
}

func (db *memDB) addJob(employerID, name string, status job.Status, salary string) *job.Job {
	db.mu.Lock()
	defer db.mu.Unlock()
	j := &job.Job{
		ID:         uuid.NewString(),
		EmployerID: employerID,
		Name:       name,
		Status:     status,
		Salary:     decimal.RequireFromString(salary),
	}
	db.jobs[j.ID] = j
	db.jobOrder = append(db.jobOrder, j.ID)
	return j
}

func (db *memDB) renameJob(id, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.jobs[id].Name = name
}

func (db *memDB) worker(id string) *Worker {
	db.mu.Lock()
	defer db.mu.Unlock()
	w, ok := db.workers[id]
	if !ok {
		return nil
	}
	return db.view(w)
}

func (db *memDB) historyOf(workerID string) []History {
	db.mu.Lock()
	defer db.mu.Unlock()
	var result []History
	for _, h := range db.history {
		if h.WorkerID == workerID {
			result = append(result, *h)
		}
	}
	return result
}

func (db *memDB) historyCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.history)
}

func (db *memDB) allWorkers() []*Worker {
	db.mu.Lock()
	defer db.mu.Unlock()
	result := make([]*Worker, 0, len(db.workerOrder))
	for _, id := range db.workerOrder {
		result = append(result, db.view(db.workers[id]))
	}
	return result
}

// view は保存済みの行に雇用主・求人のスナップショットを付与して返します。
func (db *memDB) view(row *Worker) *Worker {
	w := cloneRow(row)
	if w.EmployerID != nil {
		if e, ok := db.employers[*w.EmployerID]; ok {
			w.Employer = &EmployerSnapshot{ID: e.ID, Name: e.Name}
		}
	}
	if w.JobID != nil {
		if j, ok := db.jobs[*w.JobID]; ok {
			w.Job = &JobSnapshot{ID: j.ID, Name: j.Name, Salary: j.Salary}
		}
	}
	return w
}

func cloneRow(w *Worker) *Worker {
	clone := *w
	clone.Employer = nil
	clone.Job = nil
	clone.History = nil
	if w.EmployerID != nil {
		id := *w.EmployerID
		clone.EmployerID = &id
	}
	if w.JobID != nil {
		id := *w.JobID
		clone.JobID = &id
	}
	return &clone
}

type txKey struct{}

type fakeTxState struct {
	mu    sync.Mutex
	held  map[string]*sync.Mutex
	undo  []func()
	hooks []func()
}

func fakeTxFrom(ctx context.Context) *fakeTxState {
	state, _ := ctx.Value(txKey{}).(*fakeTxState)
	return state
}

// fakeTx は取得した行ロックをトランザクション終了まで保持し、エラー時はそのトランザクションの変更だけを取り消します。
// 行ロックを取らない読み取りは未コミットの変更も参照します。
type fakeTx struct {
	db        *memDB
	rollbacks atomic.Int64
}

func (t *fakeTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return t.WithinReadWrite(ctx, fn)
}

func (t *fakeTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fakeTxFrom(ctx) != nil {
		return fn(ctx)
	}

	state := &fakeTxState{held: make(map[string]*sync.Mutex)}
	err := fn(context.WithValue(ctx, txKey{}, state))
	if err != nil {
		t.db.mu.Lock()
		for i := len(state.undo) - 1; i >= 0; i-- {
			state.undo[i]()
		}
		t.db.mu.Unlock()
		t.rollbacks.Add(1)
	}
	for _, lock := range state.held {
		lock.Unlock()
	}
	if err != nil {
		return err
	}

	for _, hook := range state.hooks {
		hook()
	}
	return nil
}

func (t *fakeTx) AfterCommit(ctx context.Context, fn func()) {
	if state := fakeTxFrom(ctx); state != nil {
		state.mu.Lock()
		state.hooks = append(state.hooks, fn)
		state.mu.Unlock()
		return
	}
	fn()
}

type fakeEmployerStore struct {
	db *memDB
}

func (s *fakeEmployerStore) FindByID(_ context.Context, id string) (*employer.Employer, error) {
	unlock := s.db.statement()
	defer unlock()
	e, ok := s.db.employers[id]
	if !ok {
		return nil, employer.ErrEmployerNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *fakeEmployerStore) FindByIDForShare(ctx context.Context, id string) (*employer.Employer, error) {
	return s.FindByID(ctx, id)
}

type fakeJobStore struct {
	db *memDB
}

func (s *fakeJobStore) FindByID(_ context.Context, id string) (*job.Job, error) {
	unlock := s.db.statement()
	defer unlock()
	j, ok := s.db.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound
	}
	return s.withEmployer(j), nil
}

func (s *fakeJobStore) FindByIDForShare(ctx context.Context, id string) (*job.Job, error) {
	return s.FindByID(ctx, id)
}

func (s *fakeJobStore) ListMatching(_ context.Context, minSalary decimal.Decimal) ([]*job.Job, error) {
	unlock := s.db.statement()
	defer unlock()
	var result []*job.Job
	for _, id := range s.db.jobOrder {
		j, ok := s.db.jobs[id]
		if !ok {
			continue
		}
		if j.Status == job.StatusActive && j.Salary.GreaterThanOrEqual(minSalary) {
			result = append(result, s.withEmployer(j))
		}
	}
	return result, nil
}

func (s *fakeJobStore) withEmployer(j *job.Job) *job.Job {
	clone := *j
	if e, ok := s.db.employers[j.EmployerID]; ok {
		clone.Employer = &job.EmployerSnapshot{ID: e.ID, Name: e.Name, Status: string(e.Status)}
	}
	return &clone
}

type fakeWorkerRepo struct {
	db               *memDB
	findForUpdateErr error
}

func (r *fakeWorkerRepo) Create(ctx context.Context, w *Worker) (*Worker, error) {
	unlock := r.db.statement()
	defer unlock()

	row := cloneRow(w)
	row.ID = uuid.NewString()
	r.db.workers[row.ID] = row
	r.db.workerOrder = append(r.db.workerOrder, row.ID)
	r.db.journal(ctx, func() {
		delete(r.db.workers, row.ID)
		r.db.removeWorkerOrder(row.ID)
	})
	return r.db.view(row), nil
}

func (r *fakeWorkerRepo) Update(ctx context.Context, w *Worker) (*Worker, error) {
	unlock := r.db.statement()
	defer unlock()

	row, ok := r.db.workers[w.ID]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	r.keepForUndo(ctx, row)
	row.Name = w.Name
	row.Salary = w.Salary
	row.UpdatedAt = w.UpdatedAt
	return r.db.view(row), nil
}

// SetEmployment はストアの制約 (対の NULL と所有関係) を再現します。
func (r *fakeWorkerRepo) SetEmployment(ctx context.Context, id string, employerID, jobID *string, updatedAt time.Time) (*Worker, error) {
	unlock := r.db.statement()
	defer unlock()

	row, ok := r.db.workers[id]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	if (employerID == nil) != (jobID == nil) {
		return nil, errors.New("check constraint violation")
	}
	if jobID != nil {
		j, ok := r.db.jobs[*jobID]
		if !ok || j.EmployerID != *employerID {
			return nil, errors.New("foreign key violation")
		}
	}
	r.keepForUndo(ctx, row)
	row.EmployerID = employerID
	row.JobID = jobID
	row.UpdatedAt = updatedAt
	return r.db.view(row), nil
}

func (r *fakeWorkerRepo) keepForUndo(ctx context.Context, row *Worker) {
	prev := cloneRow(row)
	r.db.journal(ctx, func() {
		if current, ok := r.db.workers[prev.ID]; ok {
			*current = *prev
		}
	})
}

func (r *fakeWorkerRepo) Delete(ctx context.Context, id string) error {
	unlock := r.db.statement()
	defer unlock()

	row, ok := r.db.workers[id]
	if !ok {
		return ErrWorkerNotFound
	}
	delete(r.db.workers, id)
	at := r.db.removeWorkerOrder(id)
	r.db.journal(ctx, func() {
		r.db.workers[id] = row
		r.db.insertWorkerOrder(id, at)
	})
	return nil
}

func (r *fakeWorkerRepo) FindByID(_ context.Context, id string) (*Worker, error) {
	unlock := r.db.statement()
	defer unlock()

	row, ok := r.db.workers[id]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	return r.db.view(row), nil
}

func (r *fakeWorkerRepo) FindByIDForUpdate(ctx context.Context, id string) (*Worker, error) {
	if r.findForUpdateErr != nil {
		return nil, r.findForUpdateErr
	}
	r.db.lockRow(ctx, id)
	return r.FindByID(ctx, id)
}

func (r *fakeWorkerRepo) List(_ context.Context, filter ListWorkersFilter) ([]*Worker, string, error) {
	unlock := r.db.statement()
	defer unlock()

	var filtered []*Worker
	for _, id := range r.db.workerOrder {
		row := r.db.workers[id]
		if filter.EmployerID != "" && (row.EmployerID == nil || *row.EmployerID != filter.EmployerID) {
			continue
		}
		filtered = append(filtered, r.db.view(row))
	}

	if filter.Offset > len(filtered) {
		return []*Worker{}, "", nil
	}
	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	var next string
	if end < len(filtered) {
		next = strconv.Itoa(end)
	}
	return filtered[filter.Offset:end], next, nil
}

// ListEmployedForUpdate は候補の行をロックしてから条件を再評価します。
func (r *fakeWorkerRepo) ListEmployedForUpdate(ctx context.Context, filter EmploymentFilter) ([]*Worker, error) {
	unlock := r.db.statement()
	var candidates []string
	for _, id := range r.db.workerOrder {
		if matchesEmployment(r.db.workers[id], filter) {
			candidates = append(candidates, id)
		}
	}
	unlock()

	for _, id := range candidates {
		r.db.lockRow(ctx, id)
	}

	unlock = r.db.statement()
	defer unlock()
	var result []*Worker
	for _, id := range candidates {
		row, ok := r.db.workers[id]
		if !ok || !matchesEmployment(row, filter) {
			continue
		}
		result = append(result, r.db.view(row))
	}
	return result, nil
}

func matchesEmployment(row *Worker, filter EmploymentFilter) bool {
	if !row.Employed() {
		return false
	}
	if filter.EmployerID != "" && *row.EmployerID != filter.EmployerID {
		return false
	}
	if filter.JobID != "" && *row.JobID != filter.JobID {
		return false
	}
	return true
}

type fakeHistoryRepo struct {
	db     *memDB
	failOn Action
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *History) (*History, error) {
	if r.failOn != "" && entry.Action == r.failOn {
		return nil, errInjected
	}

	unlock := r.db.statement()
	defer unlock()

	r.db.nextHistoryID++
	stored := *entry
	stored.ID = r.db.nextHistoryID
	r.db.history = append(r.db.history, &stored)
	r.db.journal(ctx, func() { r.db.removeHistory(stored.ID) })
	result := stored
	return &result, nil
}

func (r *fakeHistoryRepo) ListByWorker(_ context.Context, workerID string) ([]*History, error) {
	unlock := r.db.statement()
	defer unlock()

	var result []*History
	for _, h := range r.db.history {
		if h.WorkerID == workerID {
			clone := *h
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions map[string]int
	conflicts   int
}

func (o *recordingObserver) ObserveTransition(action string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.transitions == nil {
		o.transitions = make(map[string]int)
	}
	o.transitions[action]++
}

func (o *recordingObserver) ObserveConflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}

type harness struct {
	db       *memDB
	svc      *Service
	workers  *fakeWorkerRepo
	history  *fakeHistoryRepo
	tx       *fakeTx
	observer *recordingObserver
	logs     *zapobserver.ObservedLogs
}

func newHarness() *harness {
	db := newMemDB()
	workers := &fakeWorkerRepo{db: db}
	history := &fakeHistoryRepo{db: db}
	jobs := &fakeJobStore{db: db}
	tx := &fakeTx{db: db}
	observer := &recordingObserver{}
	core, logs := zapobserver.New(zap.InfoLevel)

	validator := integrity.NewValidator(&fakeEmployerStore{db: db}, jobs)
	svc := NewService(workers, history, validator, jobs,
		WithClock(&stubClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}),
		WithTransactionManager(tx),
		WithObserver(observer),
		WithLogger(zap.New(core)),
	)

	return &harness{db: db, svc: svc, workers: workers, history: history, tx: tx, observer: observer, logs: logs}
}
