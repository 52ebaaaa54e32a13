package handlers

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "vesting.v1.VestingService"

// VestingServiceServer is the server API of the vesting service.
type VestingServiceServer interface {
	InitializeProgram(context.Context, *Empty) (*ProgramResponse, error)
	CreateOrganization(context.Context, *CreateOrganizationRequest) (*OrganizationResponse, error)
	JoinOrganization(context.Context, *JoinOrganizationRequest) (*EmployeeResponse, error)
	RemoveEmployeeFromOrg(context.Context, *EmployeeRequest) (*Empty, error)
	InitializeVestingSchedule(context.Context, *InitializeVestingScheduleRequest) (*ScheduleResponse, error)
	ClaimTokens(context.Context, *ScheduleRequest) (*AmountResponse, error)
	RevokeVesting(context.Context, *ScheduleRequest) (*AmountResponse, error)
	GetClaimableAmount(context.Context, *ScheduleRequest) (*AmountResponse, error)
	GetVestingInfo(context.Context, *ScheduleRequest) (*VestingInfoResponse, error)
	GetDashboardStats(context.Context, *Empty) (*StatsResponse, error)
	GetEmployeeInfo(context.Context, *EmployeeRequest) (*EmployeeResponse, error)
	GetOrganizationInfo(context.Context, *OrganizationRequest) (*OrganizationResponse, error)
	GetEmployerDashboard(context.Context, *OrganizationRequest) (*DashboardResponse, error)
	GetEmployeeDashboard(context.Context, *Empty) (*DashboardResponse, error)
	GetOrganizationEmployees(context.Context, *OrganizationRequest) (*EmployeesResponse, error)
	ListOrganizations(context.Context, *Empty) (*ListOrganizationsResponse, error)
	IsOrganizationOwner(context.Context, *IsOrganizationOwnerRequest) (*IsOrganizationOwnerResponse, error)
	GetBalance(context.Context, *BalanceRequest) (*BalanceResponse, error)
}

// FullMethod returns the gRPC method path of a service method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryMethod adapts a typed server method to a grpc.MethodDesc, running the
// server's interceptor chain around it.
func unaryMethod[Req any, Resp any](name string, call func(VestingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VestingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(VestingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var VestingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VestingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("InitializeProgram", VestingServiceServer.InitializeProgram),
		unaryMethod("CreateOrganization", VestingServiceServer.CreateOrganization),
		unaryMethod("JoinOrganization", VestingServiceServer.JoinOrganization),
		unaryMethod("RemoveEmployeeFromOrg", VestingServiceServer.RemoveEmployeeFromOrg),
		unaryMethod("InitializeVestingSchedule", VestingServiceServer.InitializeVestingSchedule),
		unaryMethod("ClaimTokens", VestingServiceServer.ClaimTokens),
		unaryMethod("RevokeVesting", VestingServiceServer.RevokeVesting),
		unaryMethod("GetClaimableAmount", VestingServiceServer.GetClaimableAmount),
		unaryMethod("GetVestingInfo", VestingServiceServer.GetVestingInfo),
		unaryMethod("GetDashboardStats", VestingServiceServer.GetDashboardStats),
		unaryMethod("GetEmployeeInfo", VestingServiceServer.GetEmployeeInfo),
		unaryMethod("GetOrganizationInfo", VestingServiceServer.GetOrganizationInfo),
		unaryMethod("GetEmployerDashboard", VestingServiceServer.GetEmployerDashboard),
		unaryMethod("GetEmployeeDashboard", VestingServiceServer.GetEmployeeDashboard),
		unaryMethod("GetOrganizationEmployees", VestingServiceServer.GetOrganizationEmployees),
		unaryMethod("ListOrganizations", VestingServiceServer.ListOrganizations),
		unaryMethod("IsOrganizationOwner", VestingServiceServer.IsOrganizationOwner),
		unaryMethod("GetBalance", VestingServiceServer.GetBalance),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vesting/v1/vesting.json",
}

func RegisterVestingServiceServer(s grpc.ServiceRegistrar, srv VestingServiceServer) {
	s.RegisterService(&VestingServiceDesc, srv)
}

// Invoke calls a VestingService method over cc with the JSON codec.
func Invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req interface{}, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallJSON()}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
