package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManyCollectsUntilFailure(t *testing.T) {
	i := 0
	got := many(func() (int, bool) {
		if i >= 3 {
			return 0, false
		}
		i++
		return i, true
	})
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestManyAllowsZeroResults(t *testing.T) {
	got := many(func() (int, bool) { return 0, false })
	require.Nil(t, got)
}

func TestMany1RequiresAtLeastOne(t *testing.T) {
	_, ok := many1(func() (int, bool) { return 0, false })
	require.False(t, ok)

	i := 0
	got, ok := many1(func() (int, bool) {
		if i >= 2 {
			return 0, false
		}
		i++
		return i, true
	})
	require.True(t, ok)
	require.Equal(t, []int{1, 2}, got)
}

func TestReluctantTillStopsWithoutConsumingEnd(t *testing.T) {
	items := []int{1, 2, 3, 0, 4, 5}
	idx := 0
	end := func() bool { return idx < len(items) && items[idx] == 0 }
	elem := func() (int, bool) {
		if idx >= len(items) {
			return 0, false
		}
		v := items[idx]
		idx++
		return v, true
	}
	got := reluctantTill(end, elem)
	require.Equal(t, []int{1, 2, 3}, got)
	require.Equal(t, 3, idx) // the terminating 0 was never consumed
}

func TestReluctantTillStopsOnElemFailure(t *testing.T) {
	items := []int{1, 2}
	idx := 0
	end := func() bool { return false } // never signals end
	elem := func() (int, bool) {
		if idx >= len(items) {
			return 0, false
		}
		v := items[idx]
		idx++
		return v, true
	}
	got := reluctantTill(end, elem)
	require.Equal(t, []int{1, 2}, got)
}

func TestChainLeftFoldsLeftAssociative(t *testing.T) {
	terms := []string{"1", "2", "3"}
	i := 0
	term := func() string { v := terms[i]; i++; return v }
	ops := []string{"-", "-"}
	j := 0
	op := func() (string, bool) {
		if j >= len(ops) {
			return "", false
		}
		o := ops[j]
		j++
		return o, true
	}
	got := chainLeft(term, op, func(op string, l, r string) string {
		return "(" + l + op + r + ")"
	})
	require.Equal(t, "((1-2)-3)", got)
}

func TestChainRightFoldsRightAssociative(t *testing.T) {
	terms := []string{"1", "2", "3"}
	i := 0
	term := func() string { v := terms[i]; i++; return v }
	ops := []string{"&&", "&&"}
	j := 0
	op := func() (string, bool) {
		if j >= len(ops) {
			return "", false
		}
		o := ops[j]
		j++
		return o, true
	}
	got := chainRight(term, op, func(op string, l, r string) string {
		return "(" + l + op + r + ")"
	})
	require.Equal(t, "(1&&(2&&3))", got)
}

func TestChainRightNoOperatorReturnsTermUnchanged(t *testing.T) {
	term := func() string { return "solo" }
	op := func() (string, bool) { return "", false }
	got := chainRight(term, op, func(op string, l, r string) string { return l + op + r })
	require.Equal(t, "solo", got)
}
