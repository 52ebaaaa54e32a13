// Package controller implements the vesting ledger's service layer: the
// organization and employee registries, the vesting engine and the dashboard
// projections. Every mutation runs in a single repository transaction; the
// escrow transfer is the last step inside it so a failed transfer rolls the
// whole operation back.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/vestledger/internal/vesting/db"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"github.com/gartstein/vestledger/internal/vesting/metrics"
	"github.com/gartstein/vestledger/internal/vesting/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the storage interface used outside transactions.
// Mutations go through WithTransaction.
type Repository interface {
	CreateProgramState(ctx context.Context, state *models.ProgramState) error
	GetProgramState(ctx context.Context) (*models.ProgramState, error)
	GetOrganization(ctx context.Context, orgID uint64) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	GetEmployee(ctx context.Context, key models.EmployeeKey) (*models.Employee, error)
	ListEmployeesByOrg(ctx context.Context, orgID uint64) ([]models.Employee, error)
	GetSchedule(ctx context.Context, scheduleID uint64) (*models.VestingSchedule, error)
	ListSchedulesByOrg(ctx context.Context, orgID uint64) ([]models.VestingSchedule, error)
	ListSchedulesByEmployee(ctx context.Context, identity string) ([]models.VestingSchedule, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// Escrow is the token custody collaborator. Withdraw succeeds only for the
// holding capability returned by Deposit.
type Escrow interface {
	Deposit(ctx context.Context, token, from string, amount uint64) (ledger.Holding, error)
	Withdraw(ctx context.Context, holding ledger.Holding, amount uint64, to string) error
	Balance(ctx context.Context, token, owner string) (uint64, error)
}

// Limits are the configurable bounds of the registries and the engine.
type Limits struct {
	MaxEmployeesPerOrg uint64
	// MinVestingDuration is the minimum end_time - start_time, in seconds.
	MinVestingDuration int64
}

var DefaultLimits = Limits{
	MaxEmployeesPerOrg: 100,
	MinVestingDuration: 86400,
}

type profile struct {
	name     string
	position string
}

// VestingService provides the ledger operations on top of a repository, an
// escrow and an event producer.
type VestingService struct {
	repo     Repository
	escrow   Escrow
	producer EventProducer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	profiles *lru.Cache[models.EmployeeKey, profile]
	limits   Limits
	now      func() int64
}

type Option func(*VestingService)

// WithClock replaces the wall clock; now returns Unix seconds.
func WithClock(now func() int64) Option {
	return func(s *VestingService) { s.now = now }
}

func WithLimits(limits Limits) Option {
	return func(s *VestingService) { s.limits = limits }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *VestingService) { s.metrics = m }
}

// WithProfileCache caches employee names and positions for dashboard joins.
// Both are immutable after join.
func WithProfileCache(size int) Option {
	return func(s *VestingService) {
		if size <= 0 {
			s.profiles = nil
			return
		}
		cache, err := lru.New[models.EmployeeKey, profile](size)
		if err != nil {
			s.logger.Warn("Profile cache disabled", zap.Error(err))
			return
		}
		s.profiles = cache
	}
}

// NewVestingService constructs a VestingService. A nil producer discards events.
func NewVestingService(repo Repository, escrow Escrow, producer EventProducer, logger *zap.Logger, opts ...Option) *VestingService {
	if producer == nil {
		producer = events.Discard{}
	}
	s := &VestingService{
		repo:     repo,
		escrow:   escrow,
		producer: producer,
		logger:   logger.Named("vesting_service"),
		limits:   DefaultLimits,
		now:      func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// observe is deferred with a pointer to the named error result.
func (s *VestingService) observe(operation string, started time.Time, err *error) {
	s.metrics.ObserveOperation(operation, started, *err)
}

func (s *VestingService) publish(event events.Event) {
	if event.OccurredAt == 0 {
		event.OccurredAt = s.now()
	}
	s.producer.Produce(event)
}

func orgKey(orgID uint64) string {
	return fmt.Sprintf("org-%d", orgID)
}
