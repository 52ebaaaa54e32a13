// Package errors declares the sentinel errors returned by the vesting ledger.
// Callers match them with errors.Is; transport layers map them to status codes.
package errors

import (
	"fmt"
)

// Setup.
var (
	ErrAlreadyInitialized = fmt.Errorf("program already initialized")
	ErrNotInitialized     = fmt.Errorf("program not initialized")
)

// Input validation.
var (
	ErrInvalidTimeParameters   = fmt.Errorf("invalid time parameters: start_time >= cliff_time >= end_time")
	ErrVestingDurationTooShort = fmt.Errorf("vesting duration too short")
	ErrInvalidTotalAmount      = fmt.Errorf("total amount must be greater than 0")
	ErrOrganizationNameTooLong = fmt.Errorf("organization name too long")
	ErrEmployeeNameTooLong     = fmt.Errorf("employee name too long")
	ErrEmployeePositionTooLong = fmt.Errorf("employee position too long")
	ErrInvalidInput            = fmt.Errorf("invalid input")
)

// Lookup.
var (
	ErrOrganizationNotFound    = fmt.Errorf("organization not found")
	ErrEmployeeNotFound        = fmt.Errorf("employee not found")
	ErrVestingScheduleNotFound = fmt.Errorf("vesting schedule not found")
	ErrHoldingNotFound         = fmt.Errorf("escrow holding not found")
)

// State conflict.
var (
	ErrEmployeeAlreadyExists            = fmt.Errorf("employee already exists in organization")
	ErrEmployeeNotInOrganization        = fmt.Errorf("employee not in organization")
	ErrOrganizationEmployeeLimitReached = fmt.Errorf("organization has reached maximum employee limit")
	ErrVestingScheduleAlreadyRevoked    = fmt.Errorf("vesting schedule already revoked")
	ErrVestingScheduleNotRevocable      = fmt.Errorf("vesting schedule is not revocable")
	ErrVestingScheduleRevoked           = fmt.Errorf("vesting schedule is revoked")
	ErrOrganizationNotActive            = fmt.Errorf("organization is not active")
	ErrEmployeeNotActive                = fmt.Errorf("employee is not active")
	ErrConcurrentUpdate                 = fmt.Errorf("record was modified concurrently")
)

// Timing and availability.
var (
	ErrCliffTimeNotReached      = fmt.Errorf("cliff time has not been reached")
	ErrNoTokensAvailableToClaim = fmt.Errorf("no tokens available to claim")
)

// Authorization.
var (
	ErrUnauthenticated               = fmt.Errorf("caller identity missing")
	ErrUnauthorizedOrganizationOwner = fmt.Errorf("only organization owner can perform this action")
	ErrUnauthorizedEmployee          = fmt.Errorf("only employee can perform this action")
	ErrUnauthorizedEscrowAuthority   = fmt.Errorf("escrow authority does not control holding")
)

// Resource.
var (
	ErrInsufficientTokens = fmt.Errorf("insufficient tokens in vesting account")
)
