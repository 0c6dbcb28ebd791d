package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txStateKey struct{}

// txState は最外周のトランザクションと、そのコミット後に実行するフックを保持します。
// 入れ子の呼び出しは同じ txState を共有します。
type txState struct {
	tx pgx.Tx

	mu          sync.Mutex
	afterCommit []func()
}

func (s *txState) register(fn func()) {
	s.mu.Lock()
	s.afterCommit = append(s.afterCommit, fn)
	s.mu.Unlock()
}

func (s *txState) drain() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hooks := s.afterCommit
	s.afterCommit = nil
	return hooks
}

// txStarter は pgxpool.Pool と pgxmock のどちらも満たすトランザクション開始インターフェースです。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は READ COMMITTED のトランザクションをコンテキスト経由で共有します。
// 雇用状態の遷移は行ロックで直列化するため、分離レベルは既定のままとしています。
type TransactionManager struct {
	pool txStarter
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter) *TransactionManager {
	if pool == nil {
		return nil
	}
	return &TransactionManager{pool: pool}
}

// WithinReadOnly は読み取り専用トランザクションで fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, pgx.ReadOnly, fn)
}

// WithinReadWrite は読み書きトランザクションで fn を実行します。
// 既にトランザクションが存在する場合はそれに参加し、コミットは最外周の呼び出しだけが行います。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, pgx.ReadWrite, fn)
}

// AfterCommit は最外周のトランザクションがコミットされた後に fn を実行するよう登録します。
// ロールバックされた場合 fn は呼ばれません。トランザクション外では即座に実行します。
func (m *TransactionManager) AfterCommit(ctx context.Context, fn func()) {
	if fn == nil {
		return
	}
	if state, ok := stateFromContext(ctx); ok {
		state.register(fn)
		return
	}
	fn()
}

func (m *TransactionManager) run(ctx context.Context, mode pgx.TxAccessMode, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("postgres: transaction function is required")
	}
	if m == nil {
		return fn(ctx)
	}
	if _, ok := stateFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: mode})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	state := &txState{tx: tx}
	err = m.finish(ctx, tx, fn(context.WithValue(ctx, txStateKey{}, state)))
	finished = true
	if err != nil {
		return err
	}

	for _, hook := range state.drain() {
		hook()
	}
	return nil
}

// finish は fn の結果に応じてコミットまたはロールバックします。
func (m *TransactionManager) finish(ctx context.Context, tx pgx.Tx, fnErr error) error {
	if fnErr != nil {
		if rbErr := rollback(ctx, tx); rbErr != nil {
			return errors.Join(fnErr, rbErr)
		}
		return fnErr
	}

	if err := tx.Commit(ctx); err != nil {
		commitErr := fmt.Errorf("postgres: commit: %w", err)
		if errors.Is(err, pgx.ErrTxClosed) {
			return commitErr
		}
		return errors.Join(commitErr, rollback(ctx, tx))
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

func stateFromContext(ctx context.Context) (*txState, bool) {
	if ctx == nil {
		return nil, false
	}
	state, ok := ctx.Value(txStateKey{}).(*txState)
	return state, ok
}

// QueryerFromContext はコンテキスト内のトランザクションを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if state, ok := stateFromContext(ctx); ok {
		return state.tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
