package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"go.uber.org/zap"
)

// GetClaimableAmount values a schedule at the current time.
func (s *VestingService) GetClaimableAmount(ctx context.Context, scheduleID uint64) (uint64, error) {
	schedule, err := s.getSchedule(ctx, scheduleID)
	if err != nil {
		return 0, err
	}
	return schedule.ClaimableAt(s.now()), nil
}

// GetVestingInfo returns a schedule joined with its employee profile.
func (s *VestingService) GetVestingInfo(ctx context.Context, scheduleID uint64) (*models.VestingInfo, error) {
	schedule, err := s.getSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	info := s.vestingInfo(ctx, schedule, s.now())
	return &info, nil
}

func (s *VestingService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	state, err := s.repo.GetProgramState(ctx)
	if err != nil {
		if errors.Is(err, e.ErrNotInitialized) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get program state: %w", err)
	}
	return &models.DashboardStats{
		TotalOrganizations:    state.TotalOrganizations,
		TotalEmployees:        state.TotalEmployees,
		TotalVestingSchedules: state.TotalVestingSchedules,
	}, nil
}

func (s *VestingService) GetEmployeeInfo(ctx context.Context, orgID uint64, identity string) (*models.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, models.EmployeeKey{Identity: identity, OrgID: orgID})
	if err != nil {
		if errors.Is(err, e.ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

func (s *VestingService) GetOrganizationInfo(ctx context.Context, orgID uint64) (*models.Organization, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, e.ErrOrganizationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (s *VestingService) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	orgs, err := s.repo.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func (s *VestingService) IsOrganizationOwner(ctx context.Context, orgID uint64, identity string) (bool, error) {
	org, err := s.GetOrganizationInfo(ctx, orgID)
	if err != nil {
		return false, err
	}
	return org.IsOwner(identity), nil
}

// GetEmployerDashboard lists every schedule of an organization. Only the
// owner may read it.
func (s *VestingService) GetEmployerDashboard(ctx context.Context, caller string, orgID uint64) ([]models.VestingInfo, error) {
	if err := s.requireOwner(ctx, caller, orgID); err != nil {
		return nil, err
	}
	schedules, err := s.repo.ListSchedulesByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization schedules: %w", err)
	}
	return s.vestingInfos(ctx, schedules), nil
}

// GetEmployeeDashboard lists the caller's schedules across organizations.
func (s *VestingService) GetEmployeeDashboard(ctx context.Context, caller string) ([]models.VestingInfo, error) {
	if caller == "" {
		return nil, e.ErrUnauthenticated
	}
	schedules, err := s.repo.ListSchedulesByEmployee(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee schedules: %w", err)
	}
	return s.vestingInfos(ctx, schedules), nil
}

// GetOrganizationEmployees lists active and removed employees. Only the owner
// may read it.
func (s *VestingService) GetOrganizationEmployees(ctx context.Context, caller string, orgID uint64) ([]models.Employee, error) {
	if err := s.requireOwner(ctx, caller, orgID); err != nil {
		return nil, err
	}
	employees, err := s.repo.ListEmployeesByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// GetBalance reports an identity's custody balance of a token.
func (s *VestingService) GetBalance(ctx context.Context, tokenType, identity string) (uint64, error) {
	balance, err := s.escrow.Balance(ctx, tokenType, identity)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (s *VestingService) requireOwner(ctx context.Context, caller string, orgID uint64) error {
	if caller == "" {
		return e.ErrUnauthenticated
	}
	org, err := s.GetOrganizationInfo(ctx, orgID)
	if err != nil {
		return err
	}
	if !org.IsOwner(caller) {
		return e.ErrUnauthorizedOrganizationOwner
	}
	return nil
}

func (s *VestingService) getSchedule(ctx context.Context, scheduleID uint64) (*models.VestingSchedule, error) {
	schedule, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, e.ErrVestingScheduleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vesting schedule: %w", err)
	}
	return schedule, nil
}

func (s *VestingService) vestingInfos(ctx context.Context, schedules []models.VestingSchedule) []models.VestingInfo {
	now := s.now()
	infos := make([]models.VestingInfo, 0, len(schedules))
	for i := range schedules {
		infos = append(infos, s.vestingInfo(ctx, &schedules[i], now))
	}
	return infos
}

func (s *VestingService) vestingInfo(ctx context.Context, schedule *models.VestingSchedule, now int64) models.VestingInfo {
	p := s.lookupProfile(ctx, models.EmployeeKey{Identity: schedule.EmployeeIdentity, OrgID: schedule.OrgID})
	return models.NewVestingInfo(schedule, p.name, p.position, now)
}

// lookupProfile resolves an employee's name and position. Unresolvable
// records degrade to UnknownProfile instead of failing the query.
func (s *VestingService) lookupProfile(ctx context.Context, key models.EmployeeKey) profile {
	if s.profiles != nil {
		if p, ok := s.profiles.Get(key); ok {
			return p
		}
	}

	employee, err := s.repo.GetEmployee(ctx, key)
	if err != nil {
		if !errors.Is(err, e.ErrEmployeeNotFound) {
			s.logger.Warn("Failed to resolve employee profile",
				zap.Error(err),
				zap.String("employee", key.Identity),
				zap.Uint64("org_id", key.OrgID),
			)
		}
		return profile{name: models.UnknownProfile, position: models.UnknownProfile}
	}

	p := profile{name: employee.Name, position: employee.Position}
	if s.profiles != nil {
		s.profiles.Add(key, p)
	}
	return p
}
