package handler

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/staffing/internal/core/employer"
	"github.com/ogurasousui/staffing/internal/core/job"
	"github.com/ogurasousui/staffing/internal/core/worker"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateLayout = "2006-01-02"

// errInvalidRequest はリクエストのフィールド型や書式が不正な場合に返却されます。
var errInvalidRequest = errors.New("invalid request")

// fields は structpb.Struct で受け取ったリクエストの読み出しを行います。
type fields struct {
	values map[string]*structpb.Value
}

func newFields(req *structpb.Struct) fields {
	return fields{values: req.GetFields()}
}

func (f fields) lookup(name string) (*structpb.Value, bool) {
	v, ok := f.values[name]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// present はキーが送信されたかを返します。null が明示された場合も true です。
func (f fields) present(name string) bool {
	_, ok := f.values[name]
	return ok
}

func (f fields) has(name string) bool {
	_, ok := f.lookup(name)
	return ok
}

func (f fields) string(name string) (string, error) {
	v, ok := f.lookup(name)
	if !ok {
		return "", nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", fmt.Errorf("%s must be a string: %w", name, errInvalidRequest)
	}
	return s.StringValue, nil
}

func (f fields) optionalString(name string) (*string, error) {
	if !f.has(name) {
		return nil, nil
	}
	s, err := f.string(name)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (f fields) int(name string) (int, error) {
	v, ok := f.lookup(name)
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be an integer: %w", name, errInvalidRequest)
	}
	return int(n.NumberValue), nil
}

// decimal は金額を文字列 ("5000.00") または数値で受け付けます。
func (f fields) decimal(name string) (decimal.Decimal, error) {
	v, ok := f.lookup(name)
	if !ok {
		return decimal.Zero, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", name, errInvalidRequest)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", name, errInvalidRequest)
	}
}

func (f fields) optionalDecimal(name string) (*decimal.Decimal, error) {
	if !f.has(name) {
		return nil, nil
	}
	d, err := f.decimal(name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// time は RFC3339 または YYYY-MM-DD 形式の日時を受け付けます。
func (f fields) time(name string) (*time.Time, error) {
	s, err := f.optionalString(name)
	if err != nil || s == nil {
		return nil, err
	}
	for _, layout := range []string{time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be RFC3339 or %s: %w", name, dateLayout, errInvalidRequest)
}

func stringValue(s string) *structpb.Value {
	return structpb.NewStringValue(s)
}

func optionalStringValue(s *string) *structpb.Value {
	if s == nil {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(*s)
}

func timeValue(t time.Time) *structpb.Value {
	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}

func decimalValue(d decimal.Decimal) *structpb.Value {
	return structpb.NewStringValue(d.StringFixed(2))
}

func structValue(s *structpb.Struct) *structpb.Value {
	if s == nil {
		return structpb.NewNullValue()
	}
	return structpb.NewStructValue(s)
}

func listValue(items []*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: items})
}

func wrap(key string, value *structpb.Struct) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{key: structValue(value)}}
}

func toEmployerStruct(e *employer.Employer) *structpb.Struct {
	if e == nil {
		return nil
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         stringValue(e.ID),
		"name":       stringValue(e.Name),
		"status":     stringValue(string(e.Status)),
		"created_at": timeValue(e.CreatedAt),
		"updated_at": timeValue(e.UpdatedAt),
	}}
}

func toJobStruct(j *job.Job) *structpb.Struct {
	if j == nil {
		return nil
	}

	creationDate := structpb.NewNullValue()
	if j.CreationDate != nil {
		creationDate = stringValue(j.CreationDate.UTC().Format(dateLayout))
	}

	var owner *structpb.Struct
	if j.Employer != nil {
		owner = &structpb.Struct{Fields: map[string]*structpb.Value{
			"id":     stringValue(j.Employer.ID),
			"name":   stringValue(j.Employer.Name),
			"status": stringValue(j.Employer.Status),
		}}
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":            stringValue(j.ID),
		"employer_id":   stringValue(j.EmployerID),
		"name":          stringValue(j.Name),
		"status":        stringValue(string(j.Status)),
		"creation_date": creationDate,
		"salary":        decimalValue(j.Salary),
		"employer":      structValue(owner),
		"created_at":    timeValue(j.CreatedAt),
		"updated_at":    timeValue(j.UpdatedAt),
	}}
}

func toWorkerStruct(w *worker.Worker) *structpb.Struct {
	if w == nil {
		return nil
	}

	var currentEmployer *structpb.Struct
	if w.Employer != nil {
		currentEmployer = &structpb.Struct{Fields: map[string]*structpb.Value{
			"id":   stringValue(w.Employer.ID),
			"name": stringValue(w.Employer.Name),
		}}
	}

	var currentJob *structpb.Struct
	if w.Job != nil {
		currentJob = &structpb.Struct{Fields: map[string]*structpb.Value{
			"id":     stringValue(w.Job.ID),
			"name":   stringValue(w.Job.Name),
			"salary": decimalValue(w.Job.Salary),
		}}
	}

	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":          stringValue(w.ID),
		"name":        stringValue(w.Name),
		"salary":      decimalValue(w.Salary),
		"employer_id": optionalStringValue(w.EmployerID),
		"job_id":      optionalStringValue(w.JobID),
		"employer":    structValue(currentEmployer),
		"job":         structValue(currentJob),
		"created_at":  timeValue(w.CreatedAt),
		"updated_at":  timeValue(w.UpdatedAt),
	}}

	if w.History != nil {
		entries := make([]*structpb.Value, 0, len(w.History))
		for _, h := range w.History {
			entries = append(entries, structValue(toHistoryStruct(h)))
		}
		out.Fields["history"] = listValue(entries)
	}

	return out
}

func toHistoryStruct(h *worker.History) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":            structpb.NewNumberValue(float64(h.ID)),
		"worker_id":     stringValue(h.WorkerID),
		"action":        stringValue(string(h.Action)),
		"job_id":        stringValue(h.JobID),
		"employer_id":   stringValue(h.EmployerID),
		"job_name":      stringValue(h.JobName),
		"employer_name": stringValue(h.EmployerName),
		"job_salary":    decimalValue(h.JobSalary),
		"occurred_at":   timeValue(h.OccurredAt),
	}}
}

func toJobList(jobs []*job.Job) *structpb.Value {
	items := make([]*structpb.Value, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, structValue(toJobStruct(j)))
	}
	return listValue(items)
}

func toWorkerList(workers []*worker.Worker) *structpb.Value {
	items := make([]*structpb.Value, 0, len(workers))
	for _, w := range workers {
		items = append(items, structValue(toWorkerStruct(w)))
	}
	return listValue(items)
}
