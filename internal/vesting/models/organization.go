package models

// Field bounds, in bytes.
const (
	MaxOrgNameLength          = 50
	MaxEmployeeNameLength     = 50
	MaxEmployeePositionLength = 50
)

// Organization is an employer namespace. OrgID is sequential starting at 1.
type Organization struct {
	OrgID                 uint64 `gorm:"primaryKey;autoIncrement:false" json:"org_id"`
	Name                  string `gorm:"size:50" json:"name"`
	Owner                 string `gorm:"size:128;index" json:"owner"`
	TotalEmployees        uint64 `json:"total_employees"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
	CreatedAt             int64  `json:"created_at"`
	// Active is set on creation; nothing deactivates an organization.
	Active bool `json:"active"`
}

// IsOwner reports whether identity owns the organization.
func (o *Organization) IsOwner(identity string) bool {
	return identity != "" && o.Owner == identity
}
