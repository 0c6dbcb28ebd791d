package worker

import "errors"

var (
	// ErrWorkerNotFound は労働者が存在しない場合に返却されます。
	ErrWorkerNotFound = errors.New("worker: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("worker: invalid id")
	// ErrInvalidName は名前が不正な場合に返却されます。
	ErrInvalidName = errors.New("worker: invalid name")
	// ErrInvalidSalary は希望給与が不正な場合に返却されます。
	ErrInvalidSalary = errors.New("worker: invalid salary")
	// ErrIncompleteAssignment は雇用主と求人の片方だけが指定された場合に返却されます。
	ErrIncompleteAssignment = errors.New("worker: employer and job must be set together")
	// ErrNotEmployed は無職の労働者を解雇しようとした場合に返却されます。
	ErrNotEmployed = errors.New("worker: worker is not employed")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("worker: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("worker: invalid page token")
	// ErrConflict は同じ労働者への別の操作と直列化できなかった場合に返却されます。再試行可能です。
	ErrConflict = errors.New("worker: concurrent modification")
)
