package minter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/providers/ethereum"
	"github.com/feral-file/achievement-minter/internal/store"
	"github.com/feral-file/achievement-minter/internal/store/schema"
)

// unitState is a state of the mint-and-persist unit
type unitState string

const (
	stateEligible             unitState = "ELIGIBLE"
	stateSubmitting           unitState = "SUBMITTING"
	stateAwaitingConfirmation unitState = "AWAITING_CONFIRMATION"
	stateParsingResult        unitState = "PARSING_RESULT"
	statePersisted            unitState = "PERSISTED"
	stateAlreadyMinted        unitState = "ALREADY_MINTED"
	stateFailed               unitState = "FAILED"
)

// mintUnit carries one goal through ELIGIBLE -> ... -> PERSISTED.
// Any step may exit to FAILED with a reason.
type mintUnit struct {
	goal   store.EligibleGoal
	state  unitState
	reason error
	// failedIn is the state the unit was in when it failed
	failedIn unitState
	txHash   string
	record   *schema.MintRecord
}

func (u *mintUnit) transition(ctx context.Context, next unitState) {
	logger.DebugCtx(ctx, "Mint unit transition",
		zap.String("goal_id", u.goal.GoalID.String()),
		zap.String("from", string(u.state)),
		zap.String("to", string(next)),
	)
	u.state = next
}

func (u *mintUnit) fail(reason error) *mintUnit {
	u.reason = reason
	u.failedIn = u.state
	u.state = stateFailed
	return u
}

// mintGoal runs one mint-and-persist unit. It never returns an error: the
// terminal state and reason are carried on the returned unit.
func (o *orchestrator) mintGoal(ctx context.Context, goal store.EligibleGoal) (u *mintUnit) {
	u = &mintUnit{goal: goal, state: stateEligible}

	defer func() {
		if r := recover(); r != nil {
			u.fail(fmt.Errorf("panic in state %s: %v", u.state, r))
		}
	}()

	// ELIGIBLE -> SUBMITTING
	if !goal.OwnerExists {
		return u.fail(domain.ErrMissingOwner)
	}
	if goal.WalletAddress == nil || !domain.IsValidLedgerAddress(*goal.WalletAddress) {
		addr := ""
		if goal.WalletAddress != nil {
			addr = *goal.WalletAddress
		}
		return u.fail(fmt.Errorf("%w: %q", domain.ErrInvalidAddress, addr))
	}
	recipient := *goal.WalletAddress
	userInfo := domain.CompactUserInfo(goal.OwnerName, goal.OwnerRole)
	u.transition(ctx, stateSubmitting)

	// SUBMITTING -> AWAITING_CONFIRMATION
	txHash, err := o.client.SubmitMint(ctx, ethereum.MintRequest{
		Recipient:     recipient,
		Description:   goal.Title,
		UserInfo:      userInfo,
		CompletedAtMs: goal.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return u.fail(fmt.Errorf("failed to submit mint: %w", err))
	}
	u.txHash = txHash.Hex()
	u.transition(ctx, stateAwaitingConfirmation)

	// AWAITING_CONFIRMATION -> PARSING_RESULT
	receipt, err := o.client.AwaitConfirmation(ctx, txHash, o.config.ConfirmationTimeout)
	if err != nil {
		return u.fail(fmt.Errorf("failed to confirm mint: %w", err))
	}
	u.transition(ctx, stateParsingResult)

	// PARSING_RESULT -> PERSISTED
	var tokenID *string
	if id, ok := o.client.ParseMintedTokenID(receipt); ok {
		s := id.String()
		tokenID = &s
	} else {
		logger.WarnCtx(ctx, "Minted token id not found in receipt, persisting without it",
			zap.String("goal_id", goal.GoalID.String()),
			zap.String("tx_hash", u.txHash),
		)
	}

	metadata := schema.MintRecordMetadata{
		UserInfo:  userInfo,
		Recipient: domain.NormalizeAddress(recipient),
		GasUsed:   receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		metadata.BlockNumber = receipt.BlockNumber.Uint64()
	}

	// The ledger write is final at this point; do not let a cancelled run drop the record
	persistCtx := context.WithoutCancel(ctx)
	record, err := o.store.CreateMintRecord(persistCtx, store.CreateMintRecordInput{
		UserID:          goal.UserID,
		GoalID:          goal.GoalID,
		TokenID:         tokenID,
		TxHash:          u.txHash,
		Chain:           o.client.Chain(),
		ContractAddress: o.client.ContractAddress(),
		Description:     goal.Title,
		Metadata:        metadata,
		GoalCompletedAt: goal.UpdatedAt,
		ConfirmedAt:     o.confirmedAt(persistCtx, receipt),
	})
	if err != nil {
		if errors.Is(err, domain.ErrMintRecordExists) {
			u.transition(ctx, stateAlreadyMinted)
			return u
		}
		return u.fail(fmt.Errorf("failed to persist confirmed mint %s: %w", u.txHash, err))
	}
	u.record = record
	u.transition(ctx, statePersisted)

	o.publish(ctx, recipient, record)
	return u
}

// confirmedAt resolves the confirming block time, falling back to the current time
func (o *orchestrator) confirmedAt(ctx context.Context, receipt *types.Receipt) *time.Time {
	if receipt.BlockNumber != nil {
		t, err := o.client.BlockTime(ctx, receipt.BlockNumber)
		if err == nil && t != nil {
			return t
		}
		logger.WarnCtx(ctx, "Failed to resolve block time, using current time",
			zap.String("block_number", receipt.BlockNumber.String()),
			zap.Error(err),
		)
	}
	now := o.clock.Now().UTC()
	return &now
}

// publish announces a persisted mint. Failures are logged only.
func (o *orchestrator) publish(ctx context.Context, recipient string, record *schema.MintRecord) {
	if o.publisher == nil {
		return
	}

	event := &domain.AchievementMinted{
		EventID:         ulid.Make().String(),
		MintRecordID:    record.ID.String(),
		UserID:          record.UserID.String(),
		GoalID:          record.GoalID.String(),
		Chain:           record.Chain,
		ContractAddress: record.ContractAddress,
		TokenID:         record.TokenID,
		TxHash:          record.TxHash,
		Recipient:       domain.NormalizeAddress(recipient),
		ConfirmedAt:     record.ConfirmedAt,
		Timestamp:       o.clock.Now().UTC(),
	}
	if err := o.publisher.PublishAchievementMinted(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish achievement minted event",
			zap.String("goal_id", event.GoalID),
			zap.String("mint_record_id", event.MintRecordID),
			zap.Error(err),
		)
	}
}
