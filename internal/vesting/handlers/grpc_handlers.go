package handlers

import (
	"context"

	"github.com/gartstein/vestledger/internal/vesting/auth"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// VestingController defines the business logic interface the gRPC and HTTP
// handlers invoke.
type VestingController interface {
	InitializeProgram(ctx context.Context, admin string) (*models.ProgramState, error)
	CreateOrganization(ctx context.Context, caller, name string) (*models.Organization, error)
	JoinOrganization(ctx context.Context, caller string, orgID uint64, name, position string) (*models.Employee, error)
	RemoveEmployeeFromOrg(ctx context.Context, caller string, orgID uint64, identity string) error
	InitializeVestingSchedule(ctx context.Context, caller string, p *models.VestingParams) (*models.VestingSchedule, error)
	ClaimTokens(ctx context.Context, caller string, scheduleID uint64) (uint64, error)
	RevokeVesting(ctx context.Context, caller string, scheduleID uint64) (uint64, error)
	GetClaimableAmount(ctx context.Context, scheduleID uint64) (uint64, error)
	GetVestingInfo(ctx context.Context, scheduleID uint64) (*models.VestingInfo, error)
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetEmployeeInfo(ctx context.Context, orgID uint64, identity string) (*models.Employee, error)
	GetOrganizationInfo(ctx context.Context, orgID uint64) (*models.Organization, error)
	GetEmployerDashboard(ctx context.Context, caller string, orgID uint64) ([]models.VestingInfo, error)
	GetEmployeeDashboard(ctx context.Context, caller string) ([]models.VestingInfo, error)
	GetOrganizationEmployees(ctx context.Context, caller string, orgID uint64) ([]models.Employee, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	IsOrganizationOwner(ctx context.Context, orgID uint64, identity string) (bool, error)
	GetBalance(ctx context.Context, tokenType, identity string) (uint64, error)
}

// VestingHandler serves VestingServiceServer by delegating to a
// VestingController. The caller identity comes from the auth interceptor.
type VestingHandler struct {
	service VestingController
	logger  *zap.Logger
}

func NewVestingHandler(service VestingController, logger *zap.Logger) *VestingHandler {
	return &VestingHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

var _ VestingServiceServer = (*VestingHandler)(nil)

func caller(ctx context.Context) (string, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "caller identity required")
	}
	return identity, nil
}

func (h *VestingHandler) InitializeProgram(ctx context.Context, _ *Empty) (*ProgramResponse, error) {
	admin, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	state, err := h.service.InitializeProgram(ctx, admin)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ProgramResponse{Program: state}, nil
}

func (h *VestingHandler) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*OrganizationResponse, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	org, err := h.service.CreateOrganization(ctx, owner, req.Name)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &OrganizationResponse{Organization: org}, nil
}

func (h *VestingHandler) JoinOrganization(ctx context.Context, req *JoinOrganizationRequest) (*EmployeeResponse, error) {
	identity, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrgID == 0 {
		return nil, status.Error(codes.InvalidArgument, "org_id required")
	}
	employee, err := h.service.JoinOrganization(ctx, identity, req.OrgID, req.Name, req.Position)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &EmployeeResponse{Employee: employee}, nil
}

func (h *VestingHandler) RemoveEmployeeFromOrg(ctx context.Context, req *EmployeeRequest) (*Empty, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.OrgID == 0 || req.Identity == "" {
		return nil, status.Error(codes.InvalidArgument, "org_id and identity required")
	}
	if err := h.service.RemoveEmployeeFromOrg(ctx, owner, req.OrgID, req.Identity); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &Empty{}, nil
}

func (h *VestingHandler) InitializeVestingSchedule(ctx context.Context, req *InitializeVestingScheduleRequest) (*ScheduleResponse, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	schedule, err := h.service.InitializeVestingSchedule(ctx, owner, &req.Params)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ScheduleResponse{Schedule: schedule}, nil
}

func (h *VestingHandler) ClaimTokens(ctx context.Context, req *ScheduleRequest) (*AmountResponse, error) {
	employee, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := h.service.ClaimTokens(ctx, employee, req.ScheduleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &AmountResponse{ScheduleID: req.ScheduleID, Amount: amount}, nil
}

func (h *VestingHandler) RevokeVesting(ctx context.Context, req *ScheduleRequest) (*AmountResponse, error) {
	employer, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := h.service.RevokeVesting(ctx, employer, req.ScheduleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &AmountResponse{ScheduleID: req.ScheduleID, Amount: amount}, nil
}

func (h *VestingHandler) GetClaimableAmount(ctx context.Context, req *ScheduleRequest) (*AmountResponse, error) {
	amount, err := h.service.GetClaimableAmount(ctx, req.ScheduleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &AmountResponse{ScheduleID: req.ScheduleID, Amount: amount}, nil
}

func (h *VestingHandler) GetVestingInfo(ctx context.Context, req *ScheduleRequest) (*VestingInfoResponse, error) {
	info, err := h.service.GetVestingInfo(ctx, req.ScheduleID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &VestingInfoResponse{Info: info}, nil
}

func (h *VestingHandler) GetDashboardStats(ctx context.Context, _ *Empty) (*StatsResponse, error) {
	stats, err := h.service.GetDashboardStats(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &StatsResponse{Stats: stats}, nil
}

func (h *VestingHandler) GetEmployeeInfo(ctx context.Context, req *EmployeeRequest) (*EmployeeResponse, error) {
	employee, err := h.service.GetEmployeeInfo(ctx, req.OrgID, req.Identity)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &EmployeeResponse{Employee: employee}, nil
}

func (h *VestingHandler) GetOrganizationInfo(ctx context.Context, req *OrganizationRequest) (*OrganizationResponse, error) {
	org, err := h.service.GetOrganizationInfo(ctx, req.OrgID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &OrganizationResponse{Organization: org}, nil
}

func (h *VestingHandler) GetEmployerDashboard(ctx context.Context, req *OrganizationRequest) (*DashboardResponse, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := h.service.GetEmployerDashboard(ctx, owner, req.OrgID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &DashboardResponse{Schedules: infos}, nil
}

func (h *VestingHandler) GetEmployeeDashboard(ctx context.Context, _ *Empty) (*DashboardResponse, error) {
	employee, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := h.service.GetEmployeeDashboard(ctx, employee)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &DashboardResponse{Schedules: infos}, nil
}

func (h *VestingHandler) GetOrganizationEmployees(ctx context.Context, req *OrganizationRequest) (*EmployeesResponse, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := h.service.GetOrganizationEmployees(ctx, owner, req.OrgID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &EmployeesResponse{Employees: employees}, nil
}

func (h *VestingHandler) ListOrganizations(ctx context.Context, _ *Empty) (*ListOrganizationsResponse, error) {
	orgs, err := h.service.ListOrganizations(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ListOrganizationsResponse{Organizations: orgs}, nil
}

func (h *VestingHandler) IsOrganizationOwner(ctx context.Context, req *IsOrganizationOwnerRequest) (*IsOrganizationOwnerResponse, error) {
	isOwner, err := h.service.IsOrganizationOwner(ctx, req.OrgID, req.Identity)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &IsOrganizationOwnerResponse{IsOwner: isOwner}, nil
}

func (h *VestingHandler) GetBalance(ctx context.Context, req *BalanceRequest) (*BalanceResponse, error) {
	if req.TokenType == "" || req.Identity == "" {
		return nil, status.Error(codes.InvalidArgument, "token_type and identity required")
	}
	balance, err := h.service.GetBalance(ctx, req.TokenType, req.Identity)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &BalanceResponse{TokenType: req.TokenType, Identity: req.Identity, Balance: balance}, nil
}
