// Package models defines the ledger records (program counters, organizations,
// employees and vesting schedules), the linear vesting valuation and the
// read-only projections served by the dashboard queries.
//
// The record types carry gorm tags and are persisted as-is by the db package.
package models

// ProgramStateID is the primary key of the singleton ProgramState row.
const ProgramStateID uint = 1

// ProgramState holds the global counters used to mint sequential identifiers.
// Counters only grow; they are never decremented.
type ProgramState struct {
	// ID is always ProgramStateID.
	ID uint `gorm:"primaryKey;autoIncrement:false" json:"-"`
	// Initialized guards single initialization.
	Initialized bool `json:"initialized"`
	// TotalOrganizations is the number of organizations ever created.
	TotalOrganizations uint64 `json:"total_organizations"`
	// TotalEmployees is the number of successful joins across all organizations.
	TotalEmployees uint64 `json:"total_employees"`
	// TotalVestingSchedules is the number of schedules ever created.
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
	// Admin is recorded at initialization and never read afterwards.
	Admin string `gorm:"size:128" json:"admin"`
}
