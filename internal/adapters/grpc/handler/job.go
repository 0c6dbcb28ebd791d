package handler

import (
	"context"

	"github.com/ogurasousui/staffing/internal/core/job"
	"google.golang.org/protobuf/types/known/structpb"
)

// CreateJob は求人を作成します。
func (h *StaffingHandler) CreateJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	in := job.CreateJobInput{}
	if in.EmployerID, err = f.string("employer_id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Name, err = f.string("name"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Salary, err = f.decimal("salary"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Status, err = jobStatus(f); err != nil {
		return nil, toStatusError(err)
	}
	if in.CreationDate, err = f.time("creation_date"); err != nil {
		return nil, toStatusError(err)
	}

	created, err := h.jobs.CreateJob(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("job", toJobStruct(created)), nil
}

// GetJob は求人を取得します。
func (h *StaffingHandler) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	found, err := h.jobs.GetJob(ctx, job.GetJobInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("job", toJobStruct(found)), nil
}

// ListJobs は求人の一覧を取得します。employer_id と status で絞り込めます。
func (h *StaffingHandler) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	employerID, err := f.string("employer_id")
	if err != nil {
		return nil, toStatusError(err)
	}
	statusPtr, err := jobStatus(f)
	if err != nil {
		return nil, toStatusError(err)
	}
	pageSize, pageToken, err := pagination(f)
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.jobs.ListJobs(ctx, job.ListJobsInput{
		EmployerID: employerID,
		Status:     statusPtr,
		PageSize:   pageSize,
		PageToken:  pageToken,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"jobs":            toJobList(result.Jobs),
		"next_page_token": stringValue(result.NextPageToken),
	}}, nil
}

// ListJobsByCreationPeriod は作成日が start から end の範囲にある求人を取得します。
func (h *StaffingHandler) ListJobsByCreationPeriod(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	start, err := f.time("start")
	if err != nil {
		return nil, toStatusError(err)
	}
	end, err := f.time("end")
	if err != nil {
		return nil, toStatusError(err)
	}

	in := job.ListJobsByCreationPeriodInput{}
	if start != nil {
		in.Start = *start
	}
	if end != nil {
		in.End = *end
	}

	jobs, err := h.jobs.ListJobsByCreationPeriod(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"jobs": toJobList(jobs),
	}}, nil
}

// UpdateJob は求人情報を更新します。creation_date に null を渡すと作成日を消去します。
func (h *StaffingHandler) UpdateJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	in := job.UpdateJobInput{}
	if in.ID, err = f.string("id"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Name, err = f.optionalString("name"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Salary, err = f.optionalDecimal("salary"); err != nil {
		return nil, toStatusError(err)
	}
	if in.Status, err = jobStatus(f); err != nil {
		return nil, toStatusError(err)
	}
	if f.present("creation_date") {
		in.CreationDateSet = true
		if in.CreationDate, err = f.time("creation_date"); err != nil {
			return nil, toStatusError(err)
		}
	}

	updated, err := h.jobs.UpdateJob(ctx, in)
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("job", toJobStruct(updated)), nil
}

// ArchiveJob は求人をアーカイブ状態にします。
func (h *StaffingHandler) ArchiveJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	archived, err := h.jobs.ArchiveJob(ctx, job.ArchiveJobInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("job", toJobStruct(archived)), nil
}

// DeleteJob は求人を削除します。
func (h *StaffingHandler) DeleteJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := requireRequest(req)
	if err != nil {
		return nil, err
	}

	id, err := f.string("id")
	if err != nil {
		return nil, toStatusError(err)
	}

	deleted, err := h.jobs.DeleteJob(ctx, job.DeleteJobInput{ID: id})
	if err != nil {
		return nil, toStatusError(err)
	}

	return wrap("job", toJobStruct(deleted)), nil
}

func jobStatus(f fields) (*job.Status, error) {
	raw, err := f.optionalString("status")
	if err != nil || raw == nil {
		return nil, err
	}
	s := job.Status(*raw)
	return &s, nil
}
