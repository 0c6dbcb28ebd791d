package handler

import (
	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/ogurasousui/staffing/internal/core/worker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// StaffingHandler は StaffingService の gRPC 実装です。
type StaffingHandler struct {
	employers employer.UseCase
	jobs      job.UseCase
	workers   worker.UseCase
}

var _ StaffingServer = (*StaffingHandler)(nil)

// NewStaffingHandler は StaffingHandler を生成します。
func NewStaffingHandler(employers employer.UseCase, jobs job.UseCase, workers worker.UseCase) *StaffingHandler {
	return &StaffingHandler{employers: employers, jobs: jobs, workers: workers}
}

func requireRequest(req *structpb.Struct) (fields, error) {
	if req == nil {
		return fields{}, status.Error(codes.InvalidArgument, "request is required")
	}
	return newFields(req), nil
}
