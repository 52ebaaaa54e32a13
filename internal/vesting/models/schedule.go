package models

import (
	"math/bits"
)

// ScheduleState is the lifecycle state of a VestingSchedule.
type ScheduleState string

const (
	// ScheduleActive is the initial state; claims are allowed.
	ScheduleActive ScheduleState = "ACTIVE"
	// ScheduleRevoked is terminal; claims always fail.
	ScheduleRevoked ScheduleState = "REVOKED"
)

// VestingSchedule is a single linear grant of TotalAmount tokens of TokenType
// from an employer to an employee. ScheduleID is globally unique; the tuple
// (OrgID, EmployeeIdentity, TokenType, ScheduleID) is its namespaced key.
//
// Everything except ClaimedAmount, Revoked and RevokeTime is immutable after
// creation.
type VestingSchedule struct {
	ScheduleID       uint64 `gorm:"primaryKey;autoIncrement:false;uniqueIndex:idx_schedule_key,priority:4" json:"schedule_id"`
	OrgID            uint64 `gorm:"index;uniqueIndex:idx_schedule_key,priority:1" json:"org_id"`
	EmployerIdentity string `gorm:"size:128" json:"employer"`
	EmployeeIdentity string `gorm:"size:128;index;uniqueIndex:idx_schedule_key,priority:2" json:"employee"`
	TokenType        string `gorm:"size:128;uniqueIndex:idx_schedule_key,priority:3" json:"token_type"`
	TotalAmount      uint64 `json:"total_amount"`
	StartTime        int64  `json:"start_time"`
	CliffTime        int64  `json:"cliff_time"`
	EndTime          int64  `json:"end_time"`
	ClaimedAmount    uint64 `json:"claimed_amount"`
	Revoked          bool   `json:"revoked"`
	Revocable        bool   `json:"revocable"`
	// RevokeTime is set exactly when Revoked is true.
	RevokeTime *int64 `json:"revoke_time,omitempty"`
	CreatedAt  int64  `json:"created_at"`

	// EscrowHolding and EscrowAuthority form the capability over the tokens
	// held for this schedule. They never leave the service.
	EscrowHolding   string `gorm:"size:64" json:"-"`
	EscrowAuthority string `gorm:"size:64" json:"-"`
}

// State returns the lifecycle state.
func (s *VestingSchedule) State() ScheduleState {
	if s.Revoked {
		return ScheduleRevoked
	}
	return ScheduleActive
}

// effectiveTime freezes the clock at the revocation time.
func (s *VestingSchedule) effectiveTime(t int64) int64 {
	if s.Revoked && s.RevokeTime != nil && t > *s.RevokeTime {
		return *s.RevokeTime
	}
	return t
}

// VestedAt returns the amount vested at Unix time t. Nothing vests before the
// cliff; from the cliff the amount grows linearly to TotalAmount at EndTime.
// StartTime does not affect the curve.
func (s *VestingSchedule) VestedAt(t int64) uint64 {
	at := s.effectiveTime(t)
	switch {
	case at < s.CliffTime:
		return 0
	case at >= s.EndTime:
		return s.TotalAmount
	}
	// Differences are taken in uint64 so that extreme timestamps cannot
	// overflow; both are positive here.
	elapsed := uint64(at) - uint64(s.CliffTime)
	duration := uint64(s.EndTime) - uint64(s.CliffTime)
	// elapsed < duration, so the high word is below duration and Div64 cannot panic.
	hi, lo := bits.Mul64(s.TotalAmount, elapsed)
	vested, _ := bits.Div64(hi, lo, duration)
	return vested
}

// ClaimableAt returns the vested amount not yet claimed, floored at zero.
func (s *VestingSchedule) ClaimableAt(t int64) uint64 {
	vested := s.VestedAt(t)
	if vested <= s.ClaimedAmount {
		return 0
	}
	return vested - s.ClaimedAmount
}

// UnvestedAt returns the amount not yet vested, floored at zero.
func (s *VestingSchedule) UnvestedAt(t int64) uint64 {
	vested := s.VestedAt(t)
	if vested >= s.TotalAmount {
		return 0
	}
	return s.TotalAmount - vested
}
