package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gartstein/vestledger/internal/pkg/utils"
	"github.com/gartstein/vestledger/internal/vesting/db"
	e "github.com/gartstein/vestledger/internal/vesting/errors"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"github.com/gartstein/vestledger/internal/vesting/models"
	"go.uber.org/zap"
)

const maxTokenTypeLength = 128

// validateVestingParams checks the inputs that need no stored state, in
// order: amount, time ordering, minimum duration.
func (s *VestingService) validateVestingParams(p *models.VestingParams) error {
	if p.TotalAmount == 0 || p.TotalAmount > math.MaxInt64 {
		return e.ErrInvalidTotalAmount
	}
	if !(p.StartTime < p.CliffTime && p.CliffTime < p.EndTime) {
		return e.ErrInvalidTimeParameters
	}
	// end > start, so the unsigned difference is exact.
	if uint64(p.EndTime)-uint64(p.StartTime) < uint64(s.limits.MinVestingDuration) {
		return e.ErrVestingDurationTooShort
	}
	if p.TokenType == "" || len(p.TokenType) > maxTokenTypeLength {
		return fmt.Errorf("%w: token type must be 1-%d bytes", e.ErrInvalidInput, maxTokenTypeLength)
	}
	if p.EmployeeIdentity == "" {
		return fmt.Errorf("%w: employee identity is required", e.ErrInvalidInput)
	}
	return nil
}

// InitializeVestingSchedule creates a schedule granting p.TotalAmount to an
// active employee and escrows the tokens from the caller's balance. Caller
// must own the organization. Creation is all-or-nothing.
func (s *VestingService) InitializeVestingSchedule(ctx context.Context, caller string, p *models.VestingParams) (schedule *models.VestingSchedule, err error) {
	defer s.observe("initialize_vesting_schedule", time.Now(), &err)

	if caller == "" {
		return nil, e.ErrUnauthenticated
	}
	if err := s.validateVestingParams(p); err != nil {
		return nil, err
	}

	var holding *ledger.Holding
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		org, err := tx.GetOrganization(ctx, p.OrgID)
		if err != nil {
			return err
		}
		if !org.IsOwner(caller) {
			return e.ErrUnauthorizedOrganizationOwner
		}
		if !org.Active {
			return e.ErrOrganizationNotActive
		}

		key := models.EmployeeKey{Identity: p.EmployeeIdentity, OrgID: p.OrgID}
		employee, err := tx.GetEmployee(ctx, key)
		if err != nil {
			if errors.Is(err, e.ErrEmployeeNotFound) {
				return fmt.Errorf("%w: %s", e.ErrEmployeeNotInOrganization, p.EmployeeIdentity)
			}
			return err
		}
		if !employee.Active {
			return e.ErrEmployeeNotActive
		}

		scheduleID, err := tx.IncrementProgramCounter(ctx, db.CounterVestingSchedules)
		if err != nil {
			return err
		}
		if err := tx.AddOrganizationSchedule(ctx, p.OrgID); err != nil {
			return err
		}
		if err := tx.AddEmployeeSchedule(ctx, employee.Key()); err != nil {
			return err
		}

		schedule = &models.VestingSchedule{
			ScheduleID:       scheduleID,
			OrgID:            p.OrgID,
			EmployerIdentity: caller,
			EmployeeIdentity: p.EmployeeIdentity,
			TokenType:        p.TokenType,
			TotalAmount:      p.TotalAmount,
			StartTime:        p.StartTime,
			CliffTime:        p.CliffTime,
			EndTime:          p.EndTime,
			Revocable:        p.Revocable,
			CreatedAt:        s.now(),
		}

		h, err := s.escrow.Deposit(ctx, p.TokenType, caller, p.TotalAmount)
		if err != nil {
			return err
		}
		holding = &h
		schedule.EscrowHolding = h.ID
		schedule.EscrowAuthority = h.Authority
		return tx.CreateSchedule(ctx, schedule)
	})
	if err != nil {
		if holding != nil {
			s.refundDeposit(*holding, p.TotalAmount, caller)
		}
		return nil, fmt.Errorf("failed to create vesting schedule: %w", err)
	}

	s.logger.Info("Vesting schedule created",
		zap.Uint64("schedule_id", schedule.ScheduleID),
		zap.Uint64("org_id", schedule.OrgID),
		zap.String("employee", schedule.EmployeeIdentity),
		zap.String("token_type", schedule.TokenType),
		zap.Uint64("amount", schedule.TotalAmount),
	)
	s.metrics.TokensEscrowed(schedule.TokenType, schedule.TotalAmount)
	s.publish(events.Event{
		Type:     events.ScheduleCreated,
		Key:      orgKey(schedule.OrgID),
		Actor:    caller,
		Schedule: schedule,
		Amount:   schedule.TotalAmount,
	})
	return schedule, nil
}

// refundDeposit returns escrowed tokens when the transaction that opened the
// holding did not commit.
func (s *VestingService) refundDeposit(holding ledger.Holding, amount uint64, employer string) {
	if err := s.escrow.Withdraw(context.Background(), holding, amount, employer); err != nil {
		s.logger.Error("Failed to refund escrow after aborted schedule creation",
			zap.Error(err),
			zap.String("holding_id", holding.ID),
			zap.Uint64("amount", amount),
		)
		s.metrics.ReconciliationNeeded("initialize_vesting_schedule")
	}
}

// ClaimTokens releases everything claimable now to the schedule's employee.
// Only the employee may claim, and never after revocation.
func (s *VestingService) ClaimTokens(ctx context.Context, caller string, scheduleID uint64) (claimed uint64, err error) {
	defer s.observe("claim_tokens", time.Now(), &err)

	if caller == "" {
		return 0, e.ErrUnauthenticated
	}

	var schedule *models.VestingSchedule
	transferred := false
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		found, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		schedule = found
		if schedule.EmployeeIdentity != caller {
			return e.ErrUnauthorizedEmployee
		}
		if schedule.Revoked {
			return e.ErrVestingScheduleRevoked
		}
		now := s.now()
		if now < schedule.CliffTime {
			return e.ErrCliffTimeNotReached
		}
		claimed = schedule.ClaimableAt(now)
		if claimed == 0 {
			return e.ErrNoTokensAvailableToClaim
		}

		next := schedule.ClaimedAmount + claimed
		if err := tx.RecordClaim(ctx, scheduleID, schedule.ClaimedAmount, next); err != nil {
			return err
		}
		schedule.ClaimedAmount = next

		if err := s.escrow.Withdraw(ctx, escrowOf(schedule), claimed, schedule.EmployeeIdentity); err != nil {
			return err
		}
		transferred = true
		return nil
	})
	if err != nil {
		if transferred {
			// The withdrawal cannot be undone; the ledger now disagrees with
			// claimed_amount and needs manual reconciliation.
			s.logger.Error("Claim transferred tokens but did not commit",
				zap.Error(err),
				zap.Uint64("schedule_id", scheduleID),
				zap.Uint64("amount", claimed),
			)
			s.metrics.ReconciliationNeeded("claim_tokens")
		}
		return 0, fmt.Errorf("failed to claim tokens: %w", err)
	}

	s.logger.Info("Tokens claimed",
		zap.Uint64("schedule_id", scheduleID),
		zap.String("employee", caller),
		zap.Uint64("amount", claimed),
	)
	s.metrics.TokensClaimed(schedule.TokenType, claimed)
	s.publish(events.Event{
		Type:     events.TokensClaimed,
		Key:      orgKey(schedule.OrgID),
		Actor:    caller,
		Schedule: schedule,
		Amount:   claimed,
	})
	return claimed, nil
}

// RevokeVesting freezes a revocable schedule at the current time and returns
// the unvested part to the employer. The vested but unclaimed remainder stays
// in escrow; claims on a revoked schedule always fail.
func (s *VestingService) RevokeVesting(ctx context.Context, caller string, scheduleID uint64) (returned uint64, err error) {
	defer s.observe("revoke_vesting", time.Now(), &err)

	if caller == "" {
		return 0, e.ErrUnauthenticated
	}

	var schedule *models.VestingSchedule
	transferred := false
	err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		found, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		schedule = found
		if schedule.EmployerIdentity != caller {
			return e.ErrUnauthorizedOrganizationOwner
		}
		if schedule.Revoked {
			return e.ErrVestingScheduleAlreadyRevoked
		}
		if !schedule.Revocable {
			return e.ErrVestingScheduleNotRevocable
		}

		now := s.now()
		returned = schedule.UnvestedAt(now)
		if err := tx.MarkRevoked(ctx, scheduleID, now); err != nil {
			return err
		}
		schedule.Revoked = true
		schedule.RevokeTime = utils.Ptr(now)

		if returned == 0 {
			return nil
		}
		if err := s.escrow.Withdraw(ctx, escrowOf(schedule), returned, schedule.EmployerIdentity); err != nil {
			return err
		}
		transferred = true
		return nil
	})
	if err != nil {
		if transferred {
			s.logger.Error("Revocation transferred tokens but did not commit",
				zap.Error(err),
				zap.Uint64("schedule_id", scheduleID),
				zap.Uint64("amount", returned),
			)
			s.metrics.ReconciliationNeeded("revoke_vesting")
		}
		return 0, fmt.Errorf("failed to revoke vesting: %w", err)
	}

	s.logger.Info("Vesting schedule revoked",
		zap.Uint64("schedule_id", scheduleID),
		zap.String("employer", caller),
		zap.Uint64("returned", returned),
		zap.Int64("revoke_time", utils.Deref(schedule.RevokeTime)),
	)
	s.metrics.TokensReturned(schedule.TokenType, returned)
	s.publish(events.Event{
		Type:     events.ScheduleRevoked,
		Key:      orgKey(schedule.OrgID),
		Actor:    caller,
		Schedule: schedule,
		Amount:   returned,
	})
	return returned, nil
}

func escrowOf(schedule *models.VestingSchedule) ledger.Holding {
	return ledger.Holding{ID: schedule.EscrowHolding, Authority: schedule.EscrowAuthority}
}
