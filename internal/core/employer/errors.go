package employer

import "errors"

var (
	// ErrEmployerNotFound は雇用主が存在しない場合に返却されます。
	ErrEmployerNotFound = errors.New("employer: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("employer: invalid id")
	// ErrInvalidName は名前が不正な場合に返却されます。
	ErrInvalidName = errors.New("employer: invalid name")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = errors.New("employer: invalid status")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("employer: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("employer: invalid page token")
	// ErrConflict は同時実行中の別の操作と競合した場合に返却されます。再試行可能です。
	ErrConflict = errors.New("employer: concurrent modification")
)
