package keeper

import (
	"time"

	sdk "github.com/chainkit/corechain/types"
	sdkerrors "github.com/chainkit/corechain/types/errors"
	"github.com/chainkit/corechain/x/staking/types"
)

// CommissionUpdatePeriod is the minimum interval between two commission
// rate changes on the same validator.
const CommissionUpdatePeriod = 24 * time.Hour

// EditValidator applies a description change and, if newRate is non-nil, a
// commission rate change. The rate change is rejected unless at least
// CommissionUpdatePeriod has elapsed since the validator's last change, the
// new rate does not exceed MaxRate, and the requested delta does not exceed
// MaxChangeRate.
func (k Keeper) EditValidator(ctx sdk.Context, operatorAddr []byte, description types.Description, newRate *sdk.Dec) (types.Validator, error) {
	validator, found := k.GetValidator(ctx, operatorAddr)
	if !found {
		return types.Validator{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "validator not found")
	}

	validator.Description = description

	if newRate != nil {
		blockTime := ctx.BlockTime()
		if blockTime.Sub(validator.Commission.UpdateTime) < CommissionUpdatePeriod {
			return types.Validator{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "commission update period not elapsed")
		}
		if newRate.GT(validator.Commission.MaxRate) {
			return types.Validator{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "commission rate cannot exceed max rate")
		}
		change := newRate.Sub(validator.Commission.Rate)
		if change.IsNegative() {
			change = sdk.ZeroDec().Sub(change)
		}
		if change.GT(validator.Commission.MaxChangeRate) {
			return types.Validator{}, sdkerrors.Wrap(sdkerrors.ErrInvalidRequest, "commission change rate exceeds maximum")
		}
		validator.Commission.Rate = *newRate
		validator.Commission.UpdateTime = blockTime
	}

	k.SetValidator(ctx, validator)
	return validator, nil
}
