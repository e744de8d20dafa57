package types

import (
	"fmt"

	sdkerrors "github.com/chainkit/corechain/types/errors"
)

// GasMeter tracks gas consumed during one unit of execution (a tx, or a
// whole block via the Block variant). Consume fails with OutOfGas rather
// than silently saturating.
type GasMeter interface {
	GasConsumed() uint64
	Limit() uint64
	ConsumeGas(amount uint64, descriptor string) error
	IsPastLimit() bool
	IsOutOfGas() bool
}

type basicGasMeter struct {
	limit    uint64
	consumed uint64
}

// NewGasMeter returns a meter bounded at limit. Use NewInfiniteGasMeter
// for contexts that must never run out, such as genesis processing.
func NewGasMeter(limit uint64) GasMeter {
	return &basicGasMeter{limit: limit}
}

func NewInfiniteGasMeter() GasMeter {
	return &basicGasMeter{limit: ^uint64(0)}
}

func (g *basicGasMeter) GasConsumed() uint64 { return g.consumed }

func (g *basicGasMeter) Limit() uint64 { return g.limit }

func (g *basicGasMeter) IsPastLimit() bool { return g.consumed > g.limit }

func (g *basicGasMeter) IsOutOfGas() bool { return g.consumed >= g.limit }

func (g *basicGasMeter) ConsumeGas(amount uint64, descriptor string) error {
	var overflow bool
	next := g.consumed + amount
	overflow = next < g.consumed
	if overflow || (g.limit != ^uint64(0) && next > g.limit) {
		g.consumed = g.limit
		return sdkerrors.Wrapf(sdkerrors.ErrOutOfGas, "out of gas in location: %s; gasWanted: %d, gasUsed: %d", descriptor, g.limit, next)
	}
	g.consumed = next
	return nil
}

func (g *basicGasMeter) String() string {
	return fmt.Sprintf("BasicGasMeter: limit %d, consumed %d", g.limit, g.consumed)
}

// BlockGasMeter aliases GasMeter: the per-block aggregate tracker is
// structurally identical, just scoped to the block context instead of a
// single transaction.
type BlockGasMeter = GasMeter

func NewBlockGasMeter(maxGas uint64) BlockGasMeter {
	return NewGasMeter(maxGas)
}
