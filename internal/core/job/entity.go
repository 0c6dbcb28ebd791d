package job

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status は求人の状態を表します。
type Status string

const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusArchive Status = "archive"
)

// Job は求人エンティティです。求人は必ず 1 つの雇用主に所有されます。
type Job struct {
	ID           string
	EmployerID   string
	Name         string
	Status       Status
	CreationDate *time.Time
	Salary       decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Employer     *EmployerSnapshot
}

// EmployerSnapshot は求人に紐づく雇用主情報のスナップショットです。
type EmployerSnapshot struct {
	ID     string
	Name   string
	Status string
}
