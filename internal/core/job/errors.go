package job

import "errors"

var (
	ErrJobNotFound      = errors.New("job: not found")
	ErrInvalidID        = errors.New("job: invalid id")
	ErrInvalidName      = errors.New("job: invalid name")
	ErrInvalidStatus    = errors.New("job: invalid status")
	ErrInvalidSalary    = errors.New("job: invalid salary")
	ErrInvalidPeriod    = errors.New("job: invalid creation period")
	ErrInvalidPageSize  = errors.New("job: invalid page size")
	ErrInvalidPageToken = errors.New("job: invalid page token")
	ErrConflict         = errors.New("job: concurrent modification")
)
