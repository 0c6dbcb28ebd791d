package integrity

import (
	"context"
	"fmt"

	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/job"
)

// EmployerFinder は検証に必要な雇用主の読み出しです。
type EmployerFinder interface {
	FindByID(ctx context.Context, id string) (*employer.Employer, error)
	FindByIDForShare(ctx context.Context, id string) (*employer.Employer, error)
}

// JobFinder は検証に必要な求人の読み出しです。
type JobFinder interface {
	FindByID(ctx context.Context, id string) (*job.Job, error)
	FindByIDForShare(ctx context.Context, id string) (*job.Job, error)
}

// Assignment は検証済みの雇用主と求人の組です。
type Assignment struct {
	Employer *employer.Employer
	Job      *job.Job
}

// Validator は雇用主・求人の存在と所有関係を検証します。
//
// Verify 系は共有ロック付きで読み出すため、ガード対象の書き込みと同じ
// 読み書きトランザクション内で呼び出す必要があります。コミットまで
// 参照先の削除はブロックされます。
type Validator struct {
	employers EmployerFinder
	jobs      JobFinder
}

// NewValidator は Validator を生成します。
func NewValidator(employers EmployerFinder, jobs JobFinder) *Validator {
	return &Validator{employers: employers, jobs: jobs}
}

// VerifyEmployer は雇用主が存在することを確認し、返却します。
func (v *Validator) VerifyEmployer(ctx context.Context, id string) (*employer.Employer, error) {
	normalized, err := employer.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	return v.employers.FindByIDForShare(ctx, normalized)
}

// VerifyJob は求人が存在することを確認し、返却します。
func (v *Validator) VerifyJob(ctx context.Context, id string) (*job.Job, error) {
	normalized, err := job.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	return v.jobs.FindByIDForShare(ctx, normalized)
}

// LookupEmployer はロックを取らずに雇用主の存在を確認します。読み取り専用トランザクション向けです。
func (v *Validator) LookupEmployer(ctx context.Context, id string) (*employer.Employer, error) {
	normalized, err := employer.NormalizeID(id)
	if err != nil {
		return nil, err
	}
	return v.employers.FindByID(ctx, normalized)
}

// VerifyOwnership は求人が指定の雇用主に属しているかを確認します。
func VerifyOwnership(j *job.Job, employerID string) error {
	if j == nil || j.EmployerID != employerID {
		return ErrOwnershipMismatch
	}
	return nil
}

// VerifyAssignment は雇用主、求人、所有関係の順に検証します。
func (v *Validator) VerifyAssignment(ctx context.Context, employerID, jobID string) (*Assignment, error) {
	e, err := v.VerifyEmployer(ctx, employerID)
	if err != nil {
		return nil, err
	}

	j, err := v.VerifyJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := VerifyOwnership(j, e.ID); err != nil {
		return nil, fmt.Errorf("job %s, employer %s: %w", j.ID, e.ID, err)
	}

	return &Assignment{Employer: e, Job: j}, nil
}
