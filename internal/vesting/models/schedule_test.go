package models

import (
	"math"
	"testing"

	"github.com/gartstein/vestledger/internal/pkg/utils"
)

func TestVestingSchedule_VestedAt(t *testing.T) {
	s := &VestingSchedule{TotalAmount: 1000, StartTime: 50, CliffTime: 100, EndTime: 200}

	tests := []struct {
		at   int64
		want uint64
	}{
		{at: 0, want: 0},
		{at: 99, want: 0},
		{at: 100, want: 0},
		{at: 101, want: 10},
		{at: 150, want: 500},
		{at: 199, want: 990},
		{at: 200, want: 1000},
		{at: 300, want: 1000},
	}

	for _, tt := range tests {
		if got := s.VestedAt(tt.at); got != tt.want {
			t.Errorf("VestedAt(%d): expected %d, got %d", tt.at, tt.want, got)
		}
	}
}

func TestVestingSchedule_VestedAtTruncates(t *testing.T) {
	s := &VestingSchedule{TotalAmount: 10, CliffTime: 0, EndTime: 3}

	if got := s.VestedAt(1); got != 3 {
		t.Errorf("expected floor(10/3)=3, got %d", got)
	}
	if got := s.VestedAt(2); got != 6 {
		t.Errorf("expected floor(20/3)=6, got %d", got)
	}
}

func TestVestingSchedule_VestedAtWideIntermediate(t *testing.T) {
	s := &VestingSchedule{TotalAmount: math.MaxUint64, CliffTime: 0, EndTime: 4}

	if got := s.VestedAt(2); got != math.MaxUint64/2 {
		t.Errorf("expected %d, got %d", uint64(math.MaxUint64/2), got)
	}
	if got := s.VestedAt(3); got != 13835058055282163711 {
		t.Errorf("expected %d, got %d", uint64(13835058055282163711), got)
	}
}

func TestVestingSchedule_VestedAtExtremeTimestamps(t *testing.T) {
	s := &VestingSchedule{TotalAmount: 100, CliffTime: math.MinInt64, EndTime: math.MaxInt64}

	if got := s.VestedAt(0); got != 50 {
		t.Errorf("expected 50 at the midpoint, got %d", got)
	}
}

func TestVestingSchedule_RevokeFreezesValuation(t *testing.T) {
	s := &VestingSchedule{
		TotalAmount: 1000,
		CliffTime:   0,
		EndTime:     1000,
		Revoked:     true,
		RevokeTime:  utils.Ptr(int64(400)),
	}

	if got := s.VestedAt(300); got != 300 {
		t.Errorf("before revoke time: expected 300, got %d", got)
	}
	if got := s.VestedAt(400); got != 400 {
		t.Errorf("at revoke time: expected 400, got %d", got)
	}
	if got := s.VestedAt(900); got != 400 {
		t.Errorf("after revoke time: expected 400, got %d", got)
	}
	if got := s.UnvestedAt(900); got != 600 {
		t.Errorf("expected unvested 600, got %d", got)
	}
	if s.State() != ScheduleRevoked {
		t.Errorf("expected state %q, got %q", ScheduleRevoked, s.State())
	}
}

func TestVestingSchedule_ClaimableAt(t *testing.T) {
	s := &VestingSchedule{TotalAmount: 1000, CliffTime: 100, EndTime: 200, ClaimedAmount: 500}

	tests := []struct {
		name string
		at   int64
		want uint64
	}{
		{name: "before cliff", at: 50, want: 0},
		{name: "claimed equals vested", at: 150, want: 0},
		{name: "partially vested", at: 175, want: 250},
		{name: "fully vested", at: 250, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ClaimableAt(tt.at); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestVestingSchedule_UnvestedAt(t *testing.T) {
	s := &VestingSchedule{TotalAmount: 1000, CliffTime: 0, EndTime: 1000}

	if got := s.UnvestedAt(400); got != 600 {
		t.Errorf("expected 600, got %d", got)
	}
	if got := s.UnvestedAt(2000); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if s.State() != ScheduleActive {
		t.Errorf("expected state %q, got %q", ScheduleActive, s.State())
	}
}

func TestNewVestingInfo(t *testing.T) {
	s := &VestingSchedule{
		ScheduleID:       7,
		OrgID:            2,
		EmployerIdentity: "employer",
		EmployeeIdentity: "employee",
		TokenType:        "USDC",
		TotalAmount:      1000,
		CliffTime:        100,
		EndTime:          200,
		ClaimedAmount:    100,
	}

	info := NewVestingInfo(s, "Ada", "Engineer", 150)

	if info.VestedAmount != 500 || info.ClaimableAmount != 400 {
		t.Errorf("expected vested 500 / claimable 400, got %d / %d", info.VestedAmount, info.ClaimableAmount)
	}
	if info.EmployeeName != "Ada" || info.EmployeePosition != "Engineer" {
		t.Errorf("unexpected profile %q / %q", info.EmployeeName, info.EmployeePosition)
	}
	if info.ScheduleID != 7 || info.OrgID != 2 || info.TokenType != "USDC" {
		t.Errorf("unexpected identifiers %+v", info)
	}
}
