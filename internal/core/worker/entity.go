package worker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Worker は労働者エンティティです。
// EmployerID と JobID は両方設定されている (雇用中) か、両方 nil (無職) のいずれかです。
type Worker struct {
	ID         string
	Name       string
	Salary     decimal.Decimal
	EmployerID *string
	JobID      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Employer   *EmployerSnapshot
	Job        *JobSnapshot
	History    []*History
}

// Employed は労働者が雇用中かどうかを返します。
func (w *Worker) Employed() bool {
	return w.EmployerID != nil && w.JobID != nil
}

// EmployerSnapshot は労働者に紐づく雇用主情報です。
type EmployerSnapshot struct {
	ID   string
	Name string
}

// JobSnapshot は労働者に紐づく求人情報です。
type JobSnapshot struct {
	ID     string
	Name   string
	Salary decimal.Decimal
}

// Action は雇用履歴の種別を表します。
type Action string

const (
	ActionHired Action = "hired"
	ActionFired Action = "fired"
)

// History は雇用履歴の 1 レコードです。作成後に更新・削除されることはありません。
// 求人名・雇用主名・給与は記録時点の値を複製して保持します。
type History struct {
	ID           int64
	WorkerID     string
	Action       Action
	JobID        string
	EmployerID   string
	JobName      string
	EmployerName string
	JobSalary    decimal.Decimal
	OccurredAt   time.Time
}
