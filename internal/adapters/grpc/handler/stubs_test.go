package handler

import (
	"context"

	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/ogurasousui/staffing/internal/core/worker"
)

type stubEmployerUseCase struct {
	createInput employer.CreateEmployerInput
	getInput    employer.GetEmployerInput
	listInput   employer.ListEmployersInput
	updateInput employer.UpdateEmployerInput
	deleteInput employer.DeleteEmployerInput

	out     *employer.Employer
	listOut *employer.ListEmployersResult
	err     error
}

func (s *stubEmployerUseCase) CreateEmployer(ctx context.Context, in employer.CreateEmployerInput) (*employer.Employer, error) {
	s.createInput = in
	return s.out, s.err
}

func (s *stubEmployerUseCase) GetEmployer(ctx context.Context, in employer.GetEmployerInput) (*employer.Employer, error) {
	s.getInput = in
	return s.out, s.err
}

func (s *stubEmployerUseCase) ListEmployers(ctx context.Context, in employer.ListEmployersInput) (*employer.ListEmployersResult, error) {
	s.listInput = in
	return s.listOut, s.err
}

func (s *stubEmployerUseCase) UpdateEmployer(ctx context.Context, in employer.UpdateEmployerInput) (*employer.Employer, error) {
	s.updateInput = in
	return s.out, s.err
}

func (s *stubEmployerUseCase) DeleteEmployer(ctx context.Context, in employer.DeleteEmployerInput) (*employer.Employer, error) {
	s.deleteInput = in
	return s.out, s.err
}

type stubJobUseCase struct {
	createInput job.CreateJobInput
	getInput    job.GetJobInput
	listInput   job.ListJobsInput
	periodInput job.ListJobsByCreationPeriodInput
	updateInput job.UpdateJobInput
	archiveID   string
	deleteID    string

	out     *job.Job
	listOut *job.ListJobsResult
	jobs    []*job.Job
	err     error
}

func (s *stubJobUseCase) CreateJob(ctx context.Context, in job.CreateJobInput) (*job.Job, error) {
	s.createInput = in
	return s.out, s.err
}

func (s *stubJobUseCase) GetJob(ctx context.Context, in job.GetJobInput) (*job.Job, error) {
	s.getInput = in
	return s.out, s.err
}

func (s *stubJobUseCase) ListJobs(ctx context.Context, in job.ListJobsInput) (*job.ListJobsResult, error) {
	s.listInput = in
	return s.listOut, s.err
}

func (s *stubJobUseCase) ListJobsByCreationPeriod(ctx context.Context, in job.ListJobsByCreationPeriodInput) ([]*job.Job, error) {
	s.periodInput = in
	return s.jobs, s.err
}

func (s *stubJobUseCase) UpdateJob(ctx context.Context, in job.UpdateJobInput) (*job.Job, error) {
	s.updateInput = in
	return s.out, s.err
}

func (s *stubJobUseCase) ArchiveJob(ctx context.Context, in job.ArchiveJobInput) (*job.Job, error) {
	s.archiveID = in.ID
	return s.out, s.err
}

func (s *stubJobUseCase) DeleteJob(ctx context.Context, in job.DeleteJobInput) (*job.Job, error) {
	s.deleteID = in.ID
	return s.out, s.err
}

type stubWorkerUseCase struct {
	createInput  worker.CreateWorkerInput
	getInput     worker.GetWorkerInput
	listInput    worker.ListWorkersInput
	byEmployer   worker.ListEmployerWorkersInput
	updateInput  worker.UpdateWorkerInput
	deleteInput  worker.DeleteWorkerInput
	matchedInput worker.GetMatchedJobsInput
	changeInput  worker.ChangeEmployerInput
	dismissInput worker.DismissWorkerInput

	out     *worker.Worker
	listOut *worker.ListWorkersResult
	jobs    []*job.Job
	err     error
}

func (s *stubWorkerUseCase) CreateWorker(ctx context.Context, in worker.CreateWorkerInput) (*worker.Worker, error) {
	s.createInput = in
	return s.out, s.err
}

func (s *stubWorkerUseCase) GetWorker(ctx context.Context, in worker.GetWorkerInput) (*worker.Worker, error) {
	s.getInput = in
	return s.out, s.err
}

func (s *stubWorkerUseCase) ListWorkers(ctx context.Context, in worker.ListWorkersInput) (*worker.ListWorkersResult, error) {
	s.listInput = in
	return s.listOut, s.err
}

func (s *stubWorkerUseCase) ListEmployerWorkers(ctx context.Context, in worker.ListEmployerWorkersInput) (*worker.ListWorkersResult, error) {
	s.byEmployer = in
	return s.listOut, s.err
}

func (s *stubWorkerUseCase) UpdateWorker(ctx context.Context, in worker.UpdateWorkerInput) (*worker.Worker, error) {
	s.updateInput = in
	return s.out, s.err
}

func (s *stubWorkerUseCase) DeleteWorker(ctx context.Context, in worker.DeleteWorkerInput) (*worker.Worker, error) {
	s.deleteInput = in
	return s.out, s.err
}

func (s *stubWorkerUseCase) GetMatchedJobs(ctx context.Context, in worker.GetMatchedJobsInput) ([]*job.Job, error) {
	s.matchedInput = in
	return s.jobs, s.err
}

func (s *stubWorkerUseCase) ChangeEmployer(ctx context.Context, in worker.ChangeEmployerInput) (*worker.Worker, error) {
	s.changeInput = in
	return s.out, s.err
}

func (s *stubWorkerUseCase) DismissWorker(ctx context.Context, in worker.DismissWorkerInput) (*worker.Worker, error) {
	s.dismissInput = in
	return s.out, s.err
}

type stubs struct {
	employers *stubEmployerUseCase
	jobs      *stubJobUseCase
	workers   *stubWorkerUseCase
}

func newStubHandler() (*StaffingHandler, stubs) {
	s := stubs{
		employers: &stubEmployerUseCase{},
		jobs:      &stubJobUseCase{},
		workers:   &stubWorkerUseCase{},
	}
	return NewStaffingHandler(s.employers, s.jobs, s.workers), s
}
