package controller

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gartstein/vestledger/internal/vesting/db"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	admin = "admin"
	owner = "owner"
	alice = "alice"
	token = "TKN"
)

// MockEscrow wraps a real ledger and can inject transfer failures.
type MockEscrow struct {
	*ledger.Ledger
	depositErr  error
	withdrawErr error
	withdrawals int
	// afterWithdraw runs after a successful transfer, before the caller's
	// transaction commits.
	afterWithdraw func()
}

func (m *MockEscrow) Deposit(ctx context.Context, tokenType, from string, amount uint64) (ledger.Holding, error) {
	if m.depositErr != nil {
		return ledger.Holding{}, m.depositErr
	}
	return m.Ledger.Deposit(ctx, tokenType, from, amount)
}

func (m *MockEscrow) Withdraw(ctx context.Context, holding ledger.Holding, amount uint64, to string) error {
	m.withdrawals++
	if m.withdrawErr != nil {
		return m.withdrawErr
	}
	if err := m.Ledger.Withdraw(ctx, holding, amount, to); err != nil {
		return err
	}
	if m.afterWithdraw != nil {
		m.afterWithdraw()
	}
	return nil
}

// MockProducer records produced events.
type MockProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockProducer) Produce(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProducer) Types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]events.EventType, 0, len(m.events))
	for _, ev := range m.events {
		types = append(types, ev.Type)
	}
	return types
}

type fixture struct {
	svc      *VestingService
	repo     *db.Repository
	escrow   *MockEscrow
	producer *MockProducer
	clock    int64
}

var testLimits = Limits{MaxEmployeesPerOrg: 100, MinVestingDuration: 100}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureAt(t, ":memory:", opts...)
}

// newFixtureAt stores records in the sqlite database at path.
func newFixtureAt(t *testing.T, path string, opts ...Option) *fixture {
	t.Helper()
	repo, err := db.NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	f := &fixture{
		repo:     repo,
		escrow:   &MockEscrow{Ledger: l},
		producer: &MockProducer{},
	}
	opts = append([]Option{
		WithLimits(testLimits),
		WithClock(func() int64 { return f.clock }),
	}, opts...)
	f.svc = NewVestingService(repo, f.escrow, f.producer, zaptest.NewLogger(t), opts...)
	return f
}

// setup initializes the program, creates an organization owned by owner,
// enrolls alice and funds owner with amount tokens.
func (f *fixture) setup(t *testing.T, amount uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.InitializeProgram(ctx, admin)
	require.NoError(t, err)
	org, err := f.svc.CreateOrganization(ctx, owner, "Acme")
	require.NoError(t, err)
	_, err = f.svc.JoinOrganization(ctx, alice, org.OrgID, "Alice", "Engineer")
	require.NoError(t, err)
	if amount > 0 {
		require.NoError(t, f.escrow.Mint(ctx, token, owner, amount))
	}
	return org.OrgID
}

func (f *fixture) createSchedule(t *testing.T, orgID uint64, total uint64, start, cliff, end int64, revocable bool) *models.VestingSchedule {
	t.Helper()
	schedule, err := f.svc.InitializeVestingSchedule(context.Background(), owner, &models.VestingParams{
		OrgID:            orgID,
		EmployeeIdentity: alice,
		TokenType:        token,
		TotalAmount:      total,
		StartTime:        start,
		CliffTime:        cliff,
		EndTime:          end,
		Revocable:        revocable,
	})
	require.NoError(t, err)
	return schedule
}

func (f *fixture) balance(t *testing.T, identity string) uint64 {
	t.Helper()
	balance, err := f.escrow.Balance(context.Background(), token, identity)
	require.NoError(t, err)
	return balance
}

func (f *fixture) held(t *testing.T, schedule *models.VestingSchedule) uint64 {
	t.Helper()
	balance, err := f.escrow.HoldingBalance(context.Background(), schedule.EscrowHolding)
	require.NoError(t, err)
	return balance
}
