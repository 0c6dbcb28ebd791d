package handler

import (
	"context"

	"github.com/ogurasousui/staffing/internal/core/worker"
	"google.golang.org/protobuf/types/known/structpb"
)

// CreateWorker は労働者を作成します。employer_id と job_id を指定すると同時に雇用します。
func (h *StaffingHandler) CreateWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	in := worker.CreateWorkerInput{}
	if in.Name, err = f.string("name"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Salary, err = f.decimal("salary"); err != nil {
		return nil, toStatusError(err)
	}
	if in.EmployerID, err = f.string("employer_id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.JobID, err = f.string("job_id"); err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.workers.CreateWorker(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(created)), nil
}

// GetWorker は労働者を雇用履歴付きで取得します。
func (h *StaffingHandler) GetWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.workers.GetWorker(ctx, worker.GetWorkerInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(found)), nil
}

// ListWorkers は労働者の一覧を取得します。
func (h *StaffingHandler) ListWorkers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	pageSize, pageToken, err := pagination(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.workers.ListWorkers(ctx, worker.ListWorkersInput{PageSize: pageSize, PageToken: pageToken})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"workers":         toWorkerList(result.Workers),
		"next_page_token": stringValue(result.NextPageToken),
	}}, nil
}

// UpdateWorker は労働者情報を更新します。
func (h *StaffingHandler) UpdateWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	in := worker.UpdateWorkerInput{}
	if in.ID, err = f.string("id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Name, err = f.optionalString("name"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Salary, err = f.optionalDecimal("salary"); err != nil {
		return nil, toStatusError(err)
	}
	if in.EmployerID, err = f.optionalString("employer_id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.JobID, err = f.optionalString("job_id"); err != nil {
		return nil, toStatusError(err)
	}

	updated, err := h.workers.UpdateWorker(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(updated)), nil
}

// DeleteWorker は労働者を削除します。
func (h *StaffingHandler) DeleteWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	deleted, err := h.workers.DeleteWorker(ctx, worker.DeleteWorkerInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(deleted)), nil
}

// GetMatchedJobs は労働者の希望給与以上の公開中求人を取得します。
func (h *StaffingHandler) GetMatchedJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	workerID, err := f.string("worker_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	jobs, err := h.workers.GetMatchedJobs(ctx, worker.GetMatchedJobsInput{WorkerID: workerID})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"jobs": toJobList(jobs),
	}}, nil
}

// ChangeEmployer は労働者の雇用先を変更します。
func (h *StaffingHandler) ChangeEmployer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	in := worker.ChangeEmployerInput{}
	if in.WorkerID, err = f.string("worker_id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.EmployerID, err = f.string("employer_id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.JobID, err = f.string("job_id"); err != nil {
		return nil, toStatusError(err)
	}

	changed, err := h.workers.ChangeEmployer(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(changed)), nil
}

// DismissWorker は労働者を解雇します。
func (h *StaffingHandler) DismissWorker(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	workerID, err := f.string("worker_id")
	if err != nil {
		return nil, toStatusError(err)
	}

	dismissed, err := h.workers.DismissWorker(ctx, worker.DismissWorkerInput{WorkerID: workerID})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("worker", toWorkerStruct(dismissed)), nil
}
