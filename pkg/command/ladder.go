package command

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxLadderSize bounds the number of levels a single STEP command can create
const MaxLadderSize = 500

// Ladder returns from, from+step, from+2*step, ... for every value <= to.
// The step must be positive. An empty ladder is returned when from > to.
func Ladder(from, to, step decimal.Decimal) ([]decimal.Decimal, error) {
	if !step.IsPositive() {
		return nil, fmt.Errorf("ladder step must be positive, got %s", step)
	}
	if from.GreaterThan(to) {
		return nil, nil
	}

	gaps := to.Sub(from).Div(step).Floor()
	if gaps.GreaterThanOrEqual(decimal.NewFromInt(MaxLadderSize)) {
		return nil, fmt.Errorf("ladder of %s levels exceeds %d", gaps.Add(decimal.NewFromInt(1)), MaxLadderSize)
	}

	levels := make([]decimal.Decimal, 0, gaps.IntPart()+1)
	for level := from; level.LessThanOrEqual(to); level = level.Add(step) {
		levels = append(levels, level)
	}
	return levels, nil
}
