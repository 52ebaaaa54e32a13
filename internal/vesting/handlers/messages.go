package handlers

import "github.com/gartstein/vestledger/internal/vesting/models"

type Empty struct{}

type ProgramResponse struct {
	Program *models.ProgramState `json:"program"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type OrganizationRequest struct {
	OrgID uint64 `json:"org_id"`
}

type OrganizationResponse struct {
	Organization *models.Organization `json:"organization"`
}

type ListOrganizationsResponse struct {
	Organizations []models.Organization `json:"organizations"`
}

type IsOrganizationOwnerRequest struct {
	OrgID    uint64 `json:"org_id"`
	Identity string `json:"identity"`
}

type IsOrganizationOwnerResponse struct {
	IsOwner bool `json:"is_owner"`
}

type JoinOrganizationRequest struct {
	OrgID    uint64 `json:"org_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type EmployeeRequest struct {
	OrgID    uint64 `json:"org_id"`
	Identity string `json:"identity"`
}

type EmployeeResponse struct {
	Employee *models.Employee `json:"employee"`
}

type EmployeesResponse struct {
	Employees []models.Employee `json:"employees"`
}

type InitializeVestingScheduleRequest struct {
	Params models.VestingParams `json:"params"`
}

type ScheduleResponse struct {
	Schedule *models.VestingSchedule `json:"schedule"`
}

type ScheduleRequest struct {
	ScheduleID uint64 `json:"schedule_id"`
}

// AmountResponse reports the tokens moved by a claim or revoke, or the
// claimable amount of a schedule.
type AmountResponse struct {
	ScheduleID uint64 `json:"schedule_id"`
	Amount     uint64 `json:"amount"`
}

type VestingInfoResponse struct {
	Info *models.VestingInfo `json:"info"`
}

type DashboardResponse struct {
	Schedules []models.VestingInfo `json:"schedules"`
}

type StatsResponse struct {
	Stats *models.DashboardStats `json:"stats"`
}

type BalanceRequest struct {
	TokenType string `json:"token_type"`
	Identity  string `json:"identity"`
}

type BalanceResponse struct {
	TokenType string `json:"token_type"`
	Identity  string `json:"identity"`
	Balance   uint64 `json:"balance"`
}
