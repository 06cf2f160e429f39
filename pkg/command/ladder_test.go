package command

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLadder(t *testing.T) {
	levels, err := Ladder(decimal.NewFromInt(100), decimal.NewFromInt(200), decimal.NewFromInt(5))
	require.NoError(t, err)
	require.Len(t, levels, 21)
	require.True(t, levels[0].Equal(decimal.NewFromInt(100)))
	require.True(t, levels[1].Equal(decimal.NewFromInt(105)))
	require.True(t, levels[20].Equal(decimal.NewFromInt(200)))
}

func TestLadder_StopsBelowUpperBound(t *testing.T) {
	levels, err := Ladder(decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.RequireFromString("0.3"))
	require.NoError(t, err)
	requireDecimals(t, []string{"1", "1.3", "1.6", "1.9"}, levels)
}

func TestLadder_SingleLevel(t *testing.T) {
	levels, err := Ladder(decimal.NewFromInt(7), decimal.NewFromInt(7), decimal.NewFromInt(1))
	require.NoError(t, err)
	requireDecimals(t, []string{"7"}, levels)
}

func TestLadder_Reversed(t *testing.T) {
	levels, err := Ladder(decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.Empty(t, levels)
}

func TestLadder_InvalidStep(t *testing.T) {
	_, err := Ladder(decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.Zero)
	require.Error(t, err)

	_, err = Ladder(decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(-1))
	require.Error(t, err)

	_, err = Ladder(decimal.Zero, decimal.NewFromInt(MaxLadderSize), decimal.NewFromInt(1))
	require.Error(t, err)
}

func TestLadder_HugeRange(t *testing.T) {
	_, err := Ladder(decimal.Zero, decimal.RequireFromString("18446744073709551616"), decimal.NewFromInt(1))
	require.Error(t, err)

	_, err = Ladder(decimal.Zero, decimal.RequireFromString("9223372036854775808"), decimal.NewFromInt(1))
	require.Error(t, err)

	levels, err := Ladder(decimal.Zero, decimal.NewFromInt(MaxLadderSize-1), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.Len(t, levels, MaxLadderSize)
}
