package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gartstein/vestledger/internal/vesting/db"
	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"go.uber.org/zap"
)

// InitializeProgram creates the global counters once and records admin.
func (s *VestingService) InitializeProgram(ctx context.Context, admin string) (state *models.ProgramState, err error) {
	defer s.observe("initialize_program", time.Now(), &err)

	if admin == "" {
		return nil, e.ErrUnauthenticated
	}
	state = &models.ProgramState{Initialized: true, Admin: admin}
	if err := s.repo.CreateProgramState(ctx, state); err != nil {
		if errors.Is(err, e.ErrAlreadyInitialized) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to initialize program: %w", err)
	}

	s.logger.Info("Program initialized", zap.String("admin", admin))
	s.publish(events.Event{Type: events.ProgramInitialized, Key: "program", Actor: admin, Program: state})
	return state, nil
}

// CreateOrganization registers a new organization owned by caller and
// returns it with the next sequential org_id.
func (s *VestingService) CreateOrganization(ctx context.Context, caller, name string) (org *models.Organization, err error) {
	defer s.observe("create_organization", time.Now(), &err)

	if caller == "" {
		return nil, e.ErrUnauthenticated
	}
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", e.ErrInvalidInput)
	}
	if len(name) > models.MaxOrgNameLength {
		return nil, e.ErrOrganizationNameTooLong
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		orgID, err := tx.IncrementProgramCounter(ctx, db.CounterOrganizations)
		if err != nil {
			return err
		}
		org = &models.Organization{
			OrgID:     orgID,
			Name:      name,
			Owner:     caller,
			CreatedAt: s.now(),
			Active:    true,
		}
		return tx.CreateOrganization(ctx, org)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Info("Organization created",
		zap.Uint64("org_id", org.OrgID),
		zap.String("owner", caller),
	)
	s.publish(events.Event{Type: events.OrganizationCreated, Key: orgKey(org.OrgID), Actor: caller, Organization: org})
	return org, nil
}

// JoinOrganization enrolls caller as an employee of orgID. Checks run in
// order: organization exists, is active, caller not yet enrolled, capacity.
func (s *VestingService) JoinOrganization(ctx context.Context, caller string, orgID uint64, name, position string) (employee *models.Employee, err error) {
	defer s.observe("join_organization", time.Now(), &err)

	if caller == "" {
		return nil, e.ErrUnauthenticated
	}
	if len(name) > models.MaxEmployeeNameLength {
		return nil, e.ErrEmployeeNameTooLong
	}
	if len(position) > models.MaxEmployeePositionLength {
		return nil, e.ErrEmployeePositionTooLong
	}

	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if _, err := tx.GetProgramState(ctx); err != nil {
			return err
		}
		org, err := tx.GetOrganization(ctx, orgID)
		if err != nil {
			return err
		}
		if !org.Active {
			return e.ErrOrganizationNotActive
		}

		key := models.EmployeeKey{Identity: caller, OrgID: orgID}
		if _, err := tx.GetEmployee(ctx, key); err == nil {
			return e.ErrEmployeeAlreadyExists
		} else if !errors.Is(err, e.ErrEmployeeNotFound) {
			return err
		}

		if err := tx.AddOrganizationEmployee(ctx, orgID, s.limits.MaxEmployeesPerOrg); err != nil {
			return err
		}
		employee = &models.Employee{
			Identity: caller,
			OrgID:    orgID,
			Name:     name,
			Position: position,
			JoinedAt: s.now(),
			Active:   true,
		}
		if err := tx.CreateEmployee(ctx, employee); err != nil {
			return err
		}
		_, err = tx.IncrementProgramCounter(ctx, db.CounterEmployees)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join organization: %w", err)
	}

	s.logger.Info("Employee joined organization",
		zap.Uint64("org_id", orgID),
		zap.String("employee", caller),
	)
	s.publish(events.Event{Type: events.EmployeeJoined, Key: orgKey(orgID), Actor: caller, Employee: employee})
	return employee, nil
}

// RemoveEmployeeFromOrg deactivates an employee. Only the organization
// owner may call it. The global employee counter is left unchanged and
// existing schedules are untouched.
func (s *VestingService) RemoveEmployeeFromOrg(ctx context.Context, caller string, orgID uint64, identity string) (err error) {
	defer s.observe("remove_employee_from_org", time.Now(), &err)

	if caller == "" {
		return e.ErrUnauthenticated
	}

	var employee *models.Employee
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		org, err := tx.GetOrganization(ctx, orgID)
		if err != nil {
			return err
		}
		if !org.IsOwner(caller) {
			return e.ErrUnauthorizedOrganizationOwner
		}

		key := models.EmployeeKey{Identity: identity, OrgID: orgID}
		employee, err = tx.GetEmployee(ctx, key)
		if err != nil {
			if errors.Is(err, e.ErrEmployeeNotFound) {
				return fmt.Errorf("%w: %s", e.ErrEmployeeNotInOrganization, identity)
			}
			return err
		}
		if err := tx.DeactivateEmployee(ctx, employee.Key()); err != nil {
			return err
		}
		employee.Active = false
		return tx.RemoveOrganizationEmployee(ctx, orgID)
	})
	if err != nil {
		return fmt.Errorf("failed to remove employee: %w", err)
	}

	s.logger.Info("Employee removed from organization",
		zap.Uint64("org_id", orgID),
		zap.String("employee", identity),
	)
	s.publish(events.Event{Type: events.EmployeeRemoved, Key: orgKey(orgID), Actor: caller, Employee: employee})
	return nil
}
