package models

// Employee is keyed by (Identity, OrgID). Removal is a soft delete that clears
// Active; the row stays, so the same identity cannot join the same
// organization twice.
type Employee struct {
	Identity              string `gorm:"primaryKey;size:128" json:"identity"`
	OrgID                 uint64 `gorm:"primaryKey;autoIncrement:false;index" json:"org_id"`
	Name                  string `gorm:"size:50" json:"name"`
	Position              string `gorm:"size:50" json:"position"`
	JoinedAt              int64  `json:"joined_at"`
	Active                bool   `json:"active"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
}

// EmployeeKey addresses an Employee record.
type EmployeeKey struct {
	Identity string
	OrgID    uint64
}

// Key returns the composite key of the record.
func (e *Employee) Key() EmployeeKey {
	return EmployeeKey{Identity: e.Identity, OrgID: e.OrgID}
}
