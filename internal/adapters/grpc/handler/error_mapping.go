package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/integrity"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/ogurasousui/staffing/internal/core/worker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, integrity.ErrOwnershipMismatch),
		errors.Is(err, employer.ErrInvalidID),
		errors.Is(err, employer.ErrInvalidName),
		errors.Is(err, employer.ErrInvalidStatus),
		errors.Is(err, employer.ErrInvalidPageSize),
		errors.Is(err, employer.ErrInvalidPageToken),
		errors.Is(err, job.ErrInvalidID),
		errors.Is(err, job.ErrInvalidName),
		errors.Is(err, job.ErrInvalidStatus),
		errors.Is(err, job.ErrInvalidSalary),
		errors.Is(err, job.ErrInvalidPeriod),
		errors.Is(err, job.ErrInvalidPageSize),
		errors.Is(err, job.ErrInvalidPageToken),
		errors.Is(err, worker.ErrInvalidID),
		errors.Is(err, worker.ErrInvalidName),
		errors.Is(err, worker.ErrInvalidSalary),
		errors.Is(err, worker.ErrIncompleteAssignment),
		errors.Is(err, worker.ErrNotEmployed),
		errors.Is(err, worker.ErrInvalidPageSize),
		errors.Is(err, worker.ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, employer.ErrEmployerNotFound),
		errors.Is(err, job.ErrJobNotFound),
		errors.Is(err, worker.ErrWorkerNotFound):
		return status.Error(codes.NotFound, err.Error())
	case worker.IsConflict(err):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
