package models

// UnknownProfile is reported when a schedule's employee record cannot be resolved.
const UnknownProfile = "Unknown"

// VestingInfo is a schedule joined with its employee profile and valued at a
// point in time.
type VestingInfo struct {
	ScheduleID       uint64        `json:"schedule_id"`
	OrgID            uint64        `json:"org_id"`
	Employer         string        `json:"employer"`
	Employee         string        `json:"employee"`
	TokenType        string        `json:"token_type"`
	TotalAmount      uint64        `json:"total_amount"`
	StartTime        int64         `json:"start_time"`
	CliffTime        int64         `json:"cliff_time"`
	EndTime          int64         `json:"end_time"`
	ClaimedAmount    uint64        `json:"claimed_amount"`
	VestedAmount     uint64        `json:"vested_amount"`
	ClaimableAmount  uint64        `json:"claimable_amount"`
	Revoked          bool          `json:"revoked"`
	Revocable        bool          `json:"revocable"`
	RevokeTime       *int64        `json:"revoke_time,omitempty"`
	State            ScheduleState `json:"state"`
	EmployeeName     string        `json:"employee_name"`
	EmployeePosition string        `json:"employee_position"`
	CreatedAt        int64         `json:"created_at"`
}

// NewVestingInfo values schedule at now and attaches the given profile.
func NewVestingInfo(s *VestingSchedule, name, position string, now int64) VestingInfo {
	return VestingInfo{
		ScheduleID:       s.ScheduleID,
		OrgID:            s.OrgID,
		Employer:         s.EmployerIdentity,
		Employee:         s.EmployeeIdentity,
		TokenType:        s.TokenType,
		TotalAmount:      s.TotalAmount,
		StartTime:        s.StartTime,
		CliffTime:        s.CliffTime,
		EndTime:          s.EndTime,
		ClaimedAmount:    s.ClaimedAmount,
		VestedAmount:     s.VestedAt(now),
		ClaimableAmount:  s.ClaimableAt(now),
		Revoked:          s.Revoked,
		Revocable:        s.Revocable,
		RevokeTime:       s.RevokeTime,
		State:            s.State(),
		EmployeeName:     name,
		EmployeePosition: position,
		CreatedAt:        s.CreatedAt,
	}
}

// DashboardStats reports the global counters.
type DashboardStats struct {
	TotalOrganizations    uint64 `json:"total_organizations"`
	TotalEmployees        uint64 `json:"total_employees"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
}

// VestingParams are the inputs of a new schedule.
type VestingParams struct {
	OrgID            uint64 `json:"org_id"`
	EmployeeIdentity string `json:"employee"`
	TokenType        string `json:"token_type"`
	TotalAmount      uint64 `json:"total_amount"`
	StartTime        int64  `json:"start_time"`
	CliffTime        int64  `json:"cliff_time"`
	EndTime          int64  `json:"end_time"`
	Revocable        bool   `json:"revocable"`
}
