package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gartstein/vestledger/internal/vesting/auth"
	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mockVestingController implements VestingController for testing. Methods
// without a function field panic through the nil embedded interface.
type mockVestingController struct {
	VestingController
	createOrganizationFunc func(ctx context.Context, caller, name string) (*models.Organization, error)
	claimTokensFunc        func(ctx context.Context, caller string, scheduleID uint64) (uint64, error)
	revokeVestingFunc      func(ctx context.Context, caller string, scheduleID uint64) (uint64, error)
	getVestingInfoFunc     func(ctx context.Context, scheduleID uint64) (*models.VestingInfo, error)
	getDashboardStatsFunc  func(ctx context.Context) (*models.DashboardStats, error)
	getBalanceFunc         func(ctx context.Context, tokenType, identity string) (uint64, error)
	joinOrganizationFunc   func(ctx context.Context, caller string, orgID uint64, name, position string) (*models.Employee, error)
}

func (m *mockVestingController) CreateOrganization(ctx context.Context, caller, name string) (*models.Organization, error) {
	return m.createOrganizationFunc(ctx, caller, name)
}

func (m *mockVestingController) ClaimTokens(ctx context.Context, caller string, scheduleID uint64) (uint64, error) {
	return m.claimTokensFunc(ctx, caller, scheduleID)
}

func (m *mockVestingController) RevokeVesting(ctx context.Context, caller string, scheduleID uint64) (uint64, error) {
	return m.revokeVestingFunc(ctx, caller, scheduleID)
}

func (m *mockVestingController) GetVestingInfo(ctx context.Context, scheduleID uint64) (*models.VestingInfo, error) {
	return m.getVestingInfoFunc(ctx, scheduleID)
}

func (m *mockVestingController) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return m.getDashboardStatsFunc(ctx)
}

func (m *mockVestingController) GetBalance(ctx context.Context, tokenType, identity string) (uint64, error) {
	return m.getBalanceFunc(ctx, tokenType, identity)
}

func (m *mockVestingController) JoinOrganization(ctx context.Context, caller string, orgID uint64, name, position string) (*models.Employee, error) {
	return m.joinOrganizationFunc(ctx, caller, orgID, name, position)
}

func TestVestingHandler_ClaimTokens(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("NoIdentity", func(t *testing.T) {
		handler := NewVestingHandler(&mockVestingController{}, logger)
		_, err := handler.ClaimTokens(context.Background(), &ScheduleRequest{ScheduleID: 1})
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("expected code %v, got %v", codes.Unauthenticated, status.Code(err))
		}
	})

	t.Run("Success", func(t *testing.T) {
		var gotCaller string
		mockCtrl := &mockVestingController{
			claimTokensFunc: func(_ context.Context, caller string, scheduleID uint64) (uint64, error) {
				gotCaller = caller
				return 500, nil
			},
		}
		handler := NewVestingHandler(mockCtrl, logger)
		resp, err := handler.ClaimTokens(auth.WithIdentity(context.Background(), "alice"), &ScheduleRequest{ScheduleID: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotCaller != "alice" {
			t.Errorf("expected caller alice, got %q", gotCaller)
		}
		if resp.ScheduleID != 3 || resp.Amount != 500 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockCtrl := &mockVestingController{
			claimTokensFunc: func(context.Context, string, uint64) (uint64, error) {
				return 0, fmt.Errorf("failed to claim tokens: %w", e.ErrCliffTimeNotReached)
			},
		}
		handler := NewVestingHandler(mockCtrl, logger)
		_, err := handler.ClaimTokens(auth.WithIdentity(context.Background(), "alice"), &ScheduleRequest{ScheduleID: 3})
		if status.Code(err) != codes.FailedPrecondition {
			t.Errorf("expected code %v, got %v", codes.FailedPrecondition, status.Code(err))
		}
	})
}

func TestVestingHandler_JoinOrganization(t *testing.T) {
	handler := NewVestingHandler(&mockVestingController{}, zaptest.NewLogger(t))
	_, err := handler.JoinOrganization(auth.WithIdentity(context.Background(), "bob"), &JoinOrganizationRequest{Name: "Bob"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected code %v, got %v", codes.InvalidArgument, status.Code(err))
	}
}

func TestVestingHandler_GetBalance(t *testing.T) {
	mockCtrl := &mockVestingController{
		getBalanceFunc: func(_ context.Context, tokenType, identity string) (uint64, error) {
			return 42, nil
		},
	}
	handler := NewVestingHandler(mockCtrl, zaptest.NewLogger(t))

	resp, err := handler.GetBalance(context.Background(), &BalanceRequest{TokenType: "TKN", Identity: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Balance != 42 {
		t.Errorf("expected balance 42, got %d", resp.Balance)
	}

	_, err = handler.GetBalance(context.Background(), &BalanceRequest{TokenType: "TKN"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected code %v, got %v", codes.InvalidArgument, status.Code(err))
	}
}

func TestMapServiceError(t *testing.T) {
	handler := NewVestingHandler(&mockVestingController{}, zaptest.NewLogger(t))

	tests := []struct {
		err  error
		code codes.Code
	}{
		{e.ErrUnauthenticated, codes.Unauthenticated},
		{e.ErrVestingScheduleNotFound, codes.NotFound},
		{fmt.Errorf("wrapped: %w", e.ErrOrganizationNotFound), codes.NotFound},
		{e.ErrAlreadyInitialized, codes.AlreadyExists},
		{e.ErrEmployeeAlreadyExists, codes.AlreadyExists},
		{e.ErrInvalidTimeParameters, codes.InvalidArgument},
		{e.ErrOrganizationNameTooLong, codes.InvalidArgument},
		{e.ErrUnauthorizedOrganizationOwner, codes.PermissionDenied},
		{e.ErrUnauthorizedEmployee, codes.PermissionDenied},
		{e.ErrConcurrentUpdate, codes.Aborted},
		{e.ErrNotInitialized, codes.FailedPrecondition},
		{e.ErrOrganizationEmployeeLimitReached, codes.FailedPrecondition},
		{e.ErrVestingScheduleRevoked, codes.FailedPrecondition},
		{e.ErrInsufficientTokens, codes.FailedPrecondition},
		{errors.New("disk on fire"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := status.Code(handler.mapServiceError(tt.err)); got != tt.code {
				t.Errorf("expected code %v, got %v", tt.code, got)
			}
		})
	}
}
