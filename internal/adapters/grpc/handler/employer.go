package handler

import (
	"context"

	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/worker"
	"google.golang.org/protobuf/types/known/structpb"
)

// CreateEmployer は雇用主を作成します。
func (h *StaffingHandler) CreateEmployer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	name, err := f.string("name")
	if err != nil {
		return nil, toStatusError(err)
	}
	statusPtr, err := employerStatus(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.employers.CreateEmployer(ctx, employer.CreateEmployerInput{Name: name, Status: statusPtr})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("employer", toEmployerStruct(created)), nil
}

// GetEmployer は雇用主を取得します。
func (h *StaffingHandler) GetEmployer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.employers.GetEmployer(ctx, employer.GetEmployerInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("employer", toEmployerStruct(found)), nil
}

// ListEmployers は雇用主の一覧を取得します。
func (h *StaffingHandler) ListEmployers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	pageSize, pageToken, err := pagination(f)
	if err != nil {
		return nil, toStatusError(err)
	}
	statusPtr, err := employerStatus(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.employers.ListEmployers(ctx, employer.ListEmployersInput{
		PageSize:  pageSize,
		PageToken: pageToken,
		Status:    statusPtr,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	items := make([]*structpb.Value, 0, len(result.Employers))
	for _, e := range result.Employers {
		items = append(items, structValue(toEmployerStruct(e)))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"employers":       listValue(items),
		"next_page_token": stringValue(result.NextPageToken),
	}}, nil
}

// UpdateEmployer は雇用主情報を更新します。指定されたフィールドのみ変更します。
func (h *StaffingHandler) UpdateEmployer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}
	name, err := f.optionalString("name")
	if err != nil {
		return nil, toStatusError(err)
	}
	statusPtr, err := employerStatus(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	updated, err := h.employers.UpdateEmployer(ctx, employer.UpdateEmployerInput{
		ID:     id,
		Name:   name,
		Status: statusPtr,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("employer", toEmployerStruct(updated)), nil
}

// DeleteEmployer は雇用主を削除します。
func (h *StaffingHandler) DeleteEmployer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	deleted, err := h.employers.DeleteEmployer(ctx, employer.DeleteEmployerInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("employer", toEmployerStruct(deleted)), nil
}

// ListEmployerWorkers は雇用主に所属する労働者の一覧を取得します。
func (h *StaffingHandler) ListEmployerWorkers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	employerID, err := f.string("employer_id")
	if err != nil {
		return nil, toStatusError(err)
	}
	pageSize, pageToken, err := pagination(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.workers.ListEmployerWorkers(ctx, worker.ListEmployerWorkersInput{
		EmployerID: employerID,
		PageSize:   pageSize,
		PageToken:  pageToken,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"workers":         toWorkerList(result.Workers),
		"next_page_token": stringValue(result.NextPageToken),
	}}, nil
}

func employerStatus(f fields) (*employer.Status, error) {
	raw, err := f.optionalString("status")
	if err != nil || raw == nil {
		return nil, err
	}
	s := employer.Status(*raw)
	return &s, nil
}

func pagination(f fields) (int, string, error) {
	pageSize, err := f.int("page_size")
	if err != nil {
		return 0, "", err
	}
	pageToken, err := f.string("page_token")
	if err != nil {
		return 0, "", err
	}
	return pageSize, pageToken, nil
}
