package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransformSlice(t *testing.T) {
	out := TransformSlice([]int{1, 2, 3}, func(v int) int { return v * 2 })
	require.Equal(t, []int{2, 4, 6}, out)
}

func TestCanonicalMapIterYieldsSortedKeys(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}
	var keys []string
	for k := range CanonicalMapIter(m) {
		keys = append(keys, k)
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestConcurrentMapFuncWithErrorPreservesOrder(t *testing.T) {
	inputs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	out, err := ConcurrentMapFuncWithError(inputs, 3, func(v int) (int, error) {
		return v * v, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, out)
}

func TestConcurrentMapFuncWithErrorPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ConcurrentMapFuncWithError([]int{1, 2, 3}, 2, func(v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	require.ErrorIs(t, err, boom)
}
