// Package db persists ledger records with GORM. Postgres is the production
// store; sqlite backs local runs and tests.
package db

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ProgramCounter names a column of the singleton ProgramState row.
type ProgramCounter string

const (
	CounterOrganizations    ProgramCounter = "total_organizations"
	CounterEmployees        ProgramCounter = "total_employees"
	CounterVestingSchedules ProgramCounter = "total_vesting_schedules"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository connects to Postgres and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	return open(postgres.Open(dsn), 0)
}

// NewSQLiteRepository opens a sqlite database at path (":memory:" allowed).
// The pool is limited to one connection, which serializes writers and keeps
// an in-memory database shared between calls.
func NewSQLiteRepository(path string) (*Repository, error) {
	return open(sqlite.Open(path), 1)
}

func open(dialector gorm.Dialector, maxConns int) (*Repository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if maxConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxConns)
	}

	if err := db.AutoMigrate(
		&models.ProgramState{},
		&models.Organization{},
		&models.Employee{},
		&models.VestingSchedule{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// CreateProgramState inserts the singleton counters row.
func (r *Repository) CreateProgramState(ctx context.Context, state *models.ProgramState) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProgramState{}).
		Where("id = ?", models.ProgramStateID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return e.ErrAlreadyInitialized
	}

	state.ID = models.ProgramStateID
	result := r.db.WithContext(ctx).Create(state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrAlreadyInitialized
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetProgramState(ctx context.Context) (*models.ProgramState, error) {
	var state models.ProgramState
	result := r.db.WithContext(ctx).First(&state, "id = ?", models.ProgramStateID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotInitialized
		}
		return nil, result.Error
	}
	return &state, nil
}

// IncrementProgramCounter adds one to counter and returns the new value.
func (r *Repository) IncrementProgramCounter(ctx context.Context, counter ProgramCounter) (uint64, error) {
	var read func(*models.ProgramState) uint64
	switch counter {
	case CounterOrganizations:
		read = func(s *models.ProgramState) uint64 { return s.TotalOrganizations }
	case CounterEmployees:
		read = func(s *models.ProgramState) uint64 { return s.TotalEmployees }
	case CounterVestingSchedules:
		read = func(s *models.ProgramState) uint64 { return s.TotalVestingSchedules }
	default:
		return 0, fmt.Errorf("%w: unknown counter %q", e.ErrInvalidInput, counter)
	}

	col := clause.Column{Name: string(counter)}
	result := r.db.WithContext(ctx).Model(&models.ProgramState{}).
		Where("id = ?", models.ProgramStateID).
		Update(string(counter), gorm.Expr("? + 1", col))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, e.ErrNotInitialized
	}

	state, err := r.GetProgramState(ctx)
	if err != nil {
		return 0, err
	}
	return read(state), nil
}

func (r *Repository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	result := r.db.WithContext(ctx).Create(org)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: organization %d exists", e.ErrConcurrentUpdate, org.OrgID)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetOrganization(ctx context.Context, orgID uint64) (*models.Organization, error) {
	var org models.Organization
	result := r.db.WithContext(ctx).First(&org, "org_id = ?", orgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrOrganizationNotFound
		}
		return nil, result.Error
	}
	return &org, nil
}

// ListOrganizations returns every organization ordered by id.
func (r *Repository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	result := r.db.WithContext(ctx).Order("org_id").Find(&orgs)
	return orgs, result.Error
}

// AddOrganizationEmployee increments the organization's employee counter
// unless it already holds limit employees.
func (r *Repository) AddOrganizationEmployee(ctx context.Context, orgID uint64, limit uint64) error {
	result := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("org_id = ? AND total_employees < ?", orgID, limit).
		Update("total_employees", gorm.Expr("total_employees + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrOrganizationEmployeeLimitReached
	}
	return nil
}

// RemoveOrganizationEmployee decrements the organization's employee counter.
func (r *Repository) RemoveOrganizationEmployee(ctx context.Context, orgID uint64) error {
	result := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("org_id = ? AND total_employees > ?", orgID, 0).
		Update("total_employees", gorm.Expr("total_employees - ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: organization %d has no employees to remove", e.ErrConcurrentUpdate, orgID)
	}
	return nil
}

func (r *Repository) AddOrganizationSchedule(ctx context.Context, orgID uint64) error {
	result := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("org_id = ?", orgID).
		Update("total_vesting_schedules", gorm.Expr("total_vesting_schedules + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrOrganizationNotFound
	}
	return nil
}

// CreateEmployee inserts an employee if its (identity, org) slot is free.
func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("identity = ? AND org_id = ?", employee.Identity, employee.OrgID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return e.ErrEmployeeAlreadyExists
	}

	result := r.db.WithContext(ctx).Create(employee)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return e.ErrEmployeeAlreadyExists
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, key models.EmployeeKey) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).First(&employee, "identity = ? AND org_id = ?", key.Identity, key.OrgID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrEmployeeNotFound
		}
		return nil, result.Error
	}
	return &employee, nil
}

// ListEmployeesByOrg returns active and inactive employees of an organization.
func (r *Repository) ListEmployeesByOrg(ctx context.Context, orgID uint64) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("joined_at, identity").
		Find(&employees)
	return employees, result.Error
}

// DeactivateEmployee clears the active flag of an active employee.
func (r *Repository) DeactivateEmployee(ctx context.Context, key models.EmployeeKey) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("identity = ? AND org_id = ? AND active = ?", key.Identity, key.OrgID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEmployeeNotActive
	}
	return nil
}

func (r *Repository) AddEmployeeSchedule(ctx context.Context, key models.EmployeeKey) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("identity = ? AND org_id = ?", key.Identity, key.OrgID).
		Update("total_vesting_schedules", gorm.Expr("total_vesting_schedules + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrEmployeeNotFound
	}
	return nil
}

func (r *Repository) CreateSchedule(ctx context.Context, schedule *models.VestingSchedule) error {
	result := r.db.WithContext(ctx).Create(schedule)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: schedule %d exists", e.ErrConcurrentUpdate, schedule.ScheduleID)
		}
		return result.Error
	}
	return nil
}

func (r *Repository) GetSchedule(ctx context.Context, scheduleID uint64) (*models.VestingSchedule, error) {
	var schedule models.VestingSchedule
	result := r.db.WithContext(ctx).First(&schedule, "schedule_id = ?", scheduleID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrVestingScheduleNotFound
		}
		return nil, result.Error
	}
	return &schedule, nil
}

// ListSchedulesByOrg uses the org_id index.
func (r *Repository) ListSchedulesByOrg(ctx context.Context, orgID uint64) ([]models.VestingSchedule, error) {
	var schedules []models.VestingSchedule
	result := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("schedule_id").
		Find(&schedules)
	return schedules, result.Error
}

// ListSchedulesByEmployee uses the employee identity index.
func (r *Repository) ListSchedulesByEmployee(ctx context.Context, identity string) ([]models.VestingSchedule, error) {
	var schedules []models.VestingSchedule
	result := r.db.WithContext(ctx).
		Where("employee_identity = ?", identity).
		Order("schedule_id").
		Find(&schedules)
	return schedules, result.Error
}

// RecordClaim moves claimed_amount from prev to next, provided nobody else
// changed it and the schedule is still active.
func (r *Repository) RecordClaim(ctx context.Context, scheduleID uint64, prev, next uint64) error {
	result := r.db.WithContext(ctx).Model(&models.VestingSchedule{}).
		Where("schedule_id = ? AND claimed_amount = ? AND revoked = ?", scheduleID, prev, false).
		Update("claimed_amount", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule %d", e.ErrConcurrentUpdate, scheduleID)
	}
	return nil
}

// MarkRevoked sets revoked and revoke_time on a schedule that is not yet revoked.
func (r *Repository) MarkRevoked(ctx context.Context, scheduleID uint64, at int64) error {
	result := r.db.WithContext(ctx).Model(&models.VestingSchedule{}).
		Where("schedule_id = ? AND revoked = ?", scheduleID, false).
		Updates(map[string]interface{}{
			"revoked":     true,
			"revoke_time": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule %d", e.ErrConcurrentUpdate, scheduleID)
	}
	return nil
}

// WithTransaction runs fn against a repository bound to a single transaction.
// The transaction commits only when fn returns nil.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Exec runs a raw statement. Used by maintenance tasks and tests.
func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	return r.db.WithContext(ctx).Exec(query, params...).Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
