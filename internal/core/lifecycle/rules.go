package lifecycle

import (
	"context"

	"go.uber.org/zap"
)

// JobRemover は雇用主に属する求人をまとめて削除します。
type JobRemover interface {
	DeleteByEmployer(ctx context.Context, employerID string) (int64, error)
}

// WorkerReleaser は雇用中の労働者を解雇し、雇用主・求人の参照を両方解除します。
type WorkerReleaser interface {
	ReleaseByEmployer(ctx context.Context, employerID string) (int, error)
	ReleaseByJob(ctx context.Context, jobID string) (int, error)
}

// Rules は雇用主・求人の削除に伴う連鎖処理を定義します。
//
// いずれも削除対象の行ロックを取得した後、同じトランザクション内で呼び出されます。
//   - 雇用主の削除: 所属する労働者を解雇してから、雇用主の求人を削除します。
//   - 求人の削除: その求人に就いている労働者を解雇します。雇用主の参照も同時に解除します。
//
// 労働者自体は削除されません。
type Rules struct {
	jobs    JobRemover
	workers WorkerReleaser
	logger  *zap.Logger
}

// NewRules は Rules を生成します。
func NewRules(jobs JobRemover, workers WorkerReleaser, logger *zap.Logger) *Rules {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rules{jobs: jobs, workers: workers, logger: logger}
}

// BeforeEmployerDelete は雇用主削除の前処理を行います。
func (r *Rules) BeforeEmployerDelete(ctx context.Context, employerID string) error {
	released, err := r.workers.ReleaseByEmployer(ctx, employerID)
	if err != nil {
		return err
	}

	removed, err := r.jobs.DeleteByEmployer(ctx, employerID)
	if err != nil {
		return err
	}

	r.logger.Info("employer cascade applied",
		zap.String("employer_id", employerID),
		zap.Int("released_workers", released),
		zap.Int64("deleted_jobs", removed),
	)
	return nil
}

// BeforeJobDelete は求人削除の前処理を行います。
func (r *Rules) BeforeJobDelete(ctx context.Context, jobID string) error {
	released, err := r.workers.ReleaseByJob(ctx, jobID)
	if err != nil {
		return err
	}

	r.logger.Info("job cascade applied",
		zap.String("job_id", jobID),
		zap.Int("released_workers", released),
	)
	return nil
}
