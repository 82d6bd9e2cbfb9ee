package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func ints(t *testing.T, d *tensor.Dense) []int {
	t.Helper()
	return d.Data().([]int)
}

func TestNewWindowerShapeErrors(t *testing.T) {
	_, err := NewWindower(seq(10), 0, 5)
	require.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewWindower(seq(10), 2, 0)
	require.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewWindower(seq(10), -1, 5)
	require.ErrorIs(t, err, ErrInvalidShape)
}

func TestNewWindowerInsufficientData(t *testing.T) {
	_, err := NewWindower(seq(9), 2, 5)
	require.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewWindower(nil, 2, 5)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestWindowCountAndShape(t *testing.T) {
	// 47 symbols in 2x5 windows: floor(47/10) = 4 windows, 7 dropped.
	w, err := NewWindower(seq(47), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, w.Len())

	count := 0
	for {
		b, ok := w.Next()
		if !ok {
			break
		}
		assert.Equal(t, tensor.Shape{2, 5}, b.Input.Shape())
		assert.Equal(t, tensor.Shape{2, 5}, b.Target.Shape())
		count++
	}
	assert.Equal(t, 4, count)

	// Exhausted windower stays exhausted.
	_, ok := w.Next()
	assert.False(t, ok)
}

func TestKnownWindowContents(t *testing.T) {
	// Lanes are contiguous runs: lane 0 = 0..9, lane 1 = 10..19.
	w, err := NewWindower(seq(20), 2, 5)
	require.NoError(t, err)
	require.Equal(t, 2, w.Len())

	b, ok := w.Next()
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 10, 11, 12, 13, 14}, ints(t, b.Input))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 11, 12, 13, 14, 15}, ints(t, b.Target))

	b, ok = w.Next()
	require.True(t, ok)
	assert.Equal(t, []int{5, 6, 7, 8, 9, 15, 16, 17, 18, 19}, ints(t, b.Input))
	// Last target column of the final window is zero-filled per lane.
	assert.Equal(t, []int{6, 7, 8, 9, 0, 16, 17, 18, 19, 0}, ints(t, b.Target))

	_, ok = w.Next()
	assert.False(t, ok)
}

func TestTargetIsShiftedInput(t *testing.T) {
	w, err := NewWindower(seq(60), 3, 4)
	require.NoError(t, err)

	prev, ok := w.Next()
	require.True(t, ok)
	for {
		b, ok := w.Next()
		if !ok {
			break
		}
		in := ints(t, prev.Input)
		tg := ints(t, prev.Target)
		next := ints(t, b.Input)
		// Within a window the target is the input shifted left by one;
		// the last column continues into the next window's first column.
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.Equal(t, in[i*4+j+1], tg[i*4+j])
			}
			assert.Equal(t, next[i*4], tg[i*4+3])
		}
		prev = b
	}
}

func TestTruncationLaw(t *testing.T) {
	// 23 = 2*(2*5) + 3: symbols 20..22 must never appear in any window.
	w, err := NewWindower(seq(23), 2, 5)
	require.NoError(t, err)
	for {
		b, ok := w.Next()
		if !ok {
			break
		}
		for _, id := range ints(t, b.Input) {
			assert.Less(t, id, 20)
		}
		for _, id := range ints(t, b.Target) {
			assert.Less(t, id, 20)
		}
	}
}

func TestSingleWindowCorpus(t *testing.T) {
	w, err := NewWindower(seq(6), 2, 3)
	require.NoError(t, err)
	require.Equal(t, 1, w.Len())

	b, ok := w.Next()
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ints(t, b.Input))
	assert.Equal(t, []int{1, 2, 0, 4, 5, 0}, ints(t, b.Target))
}
