package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName は StaffingService の完全修飾名です。
const ServiceName = "staffing.v1.StaffingService"

// StaffingServer は StaffingService のサーバー側インターフェースです。
// リクエストとレスポンスはいずれも google.protobuf.Struct で表現し、キーは snake_case です。
type StaffingServer interface {
	CreateEmployer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmployer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployerWorkers(context.Context, *structpb.Struct) (*structpb.Struct, error)

	CreateJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobsByCreationPeriod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ArchiveJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteJob(context.Context, *structpb.Struct) (*structpb.Struct, error)

	CreateWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWorkers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMatchedJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangeEmployer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DismissWorker(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(StaffingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StaffingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StaffingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// StaffingServiceDesc は grpc.Server.RegisterService に渡すサービス定義です。
var StaffingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StaffingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateEmployer", StaffingServer.CreateEmployer),
		unaryHandler("GetEmployer", StaffingServer.GetEmployer),
		unaryHandler("ListEmployers", StaffingServer.ListEmployers),
		unaryHandler("UpdateEmployer", StaffingServer.UpdateEmployer),
		unaryHandler("DeleteEmployer", StaffingServer.DeleteEmployer),
		unaryHandler("ListEmployerWorkers", StaffingServer.ListEmployerWorkers),
		unaryHandler("CreateJob", StaffingServer.CreateJob),
		unaryHandler("GetJob", StaffingServer.GetJob),
		unaryHandler("ListJobs", StaffingServer.ListJobs),
		unaryHandler("ListJobsByCreationPeriod", StaffingServer.ListJobsByCreationPeriod),
		unaryHandler("UpdateJob", StaffingServer.UpdateJob),
		unaryHandler("ArchiveJob", StaffingServer.ArchiveJob),
		unaryHandler("DeleteJob", StaffingServer.DeleteJob),
		unaryHandler("CreateWorker", StaffingServer.CreateWorker),
		unaryHandler("GetWorker", StaffingServer.GetWorker),
		unaryHandler("ListWorkers", StaffingServer.ListWorkers),
		unaryHandler("UpdateWorker", StaffingServer.UpdateWorker),
		unaryHandler("DeleteWorker", StaffingServer.DeleteWorker),
		unaryHandler("GetMatchedJobs", StaffingServer.GetMatchedJobs),
		unaryHandler("ChangeEmployer", StaffingServer.ChangeEmployer),
		unaryHandler("DismissWorker", StaffingServer.DismissWorker),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staffing/v1/staffing.proto",
}

// StaffingClient は StaffingService を呼び出すクライアントです。
type StaffingClient struct {
	cc grpc.ClientConnInterface
}

// NewStaffingClient は StaffingClient を生成します。
func NewStaffingClient(cc grpc.ClientConnInterface) *StaffingClient {
	return &StaffingClient{cc: cc}
}

// Call は method を呼び出し、レスポンスを返します。
func (c *StaffingClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
