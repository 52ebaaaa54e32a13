package handlers

import (
	"errors"
	"fmt"

	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{e.ErrUnauthenticated, codes.Unauthenticated},

	{e.ErrOrganizationNotFound, codes.NotFound},
	{e.ErrEmployeeNotFound, codes.NotFound},
	{e.ErrVestingScheduleNotFound, codes.NotFound},
	{e.ErrHoldingNotFound, codes.NotFound},

	{e.ErrAlreadyInitialized, codes.AlreadyExists},
	{e.ErrEmployeeAlreadyExists, codes.AlreadyExists},

	{e.ErrInvalidTimeParameters, codes.InvalidArgument},
	{e.ErrVestingDurationTooShort, codes.InvalidArgument},
	{e.ErrInvalidTotalAmount, codes.InvalidArgument},
	{e.ErrOrganizationNameTooLong, codes.InvalidArgument},
	{e.ErrEmployeeNameTooLong, codes.InvalidArgument},
	{e.ErrEmployeePositionTooLong, codes.InvalidArgument},
	{e.ErrInvalidInput, codes.InvalidArgument},

	{e.ErrUnauthorizedOrganizationOwner, codes.PermissionDenied},
	{e.ErrUnauthorizedEmployee, codes.PermissionDenied},
	{e.ErrUnauthorizedEscrowAuthority, codes.PermissionDenied},

	{e.ErrConcurrentUpdate, codes.Aborted},

	{e.ErrNotInitialized, codes.FailedPrecondition},
	{e.ErrEmployeeNotInOrganization, codes.FailedPrecondition},
	{e.ErrOrganizationEmployeeLimitReached, codes.FailedPrecondition},
	{e.ErrVestingScheduleAlreadyRevoked, codes.FailedPrecondition},
	{e.ErrVestingScheduleNotRevocable, codes.FailedPrecondition},
	{e.ErrVestingScheduleRevoked, codes.FailedPrecondition},
	{e.ErrOrganizationNotActive, codes.FailedPrecondition},
	{e.ErrEmployeeNotActive, codes.FailedPrecondition},
	{e.ErrCliffTimeNotReached, codes.FailedPrecondition},
	{e.ErrNoTokensAvailableToClaim, codes.FailedPrecondition},
	{e.ErrInsufficientTokens, codes.FailedPrecondition},
}

// mapServiceError maps domain or repository errors to gRPC status codes.
func (h *VestingHandler) mapServiceError(err error) error {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	h.logger.Error("Internal server error", zap.Error(err))
	return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
}
