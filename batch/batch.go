// Package batch turns an encoded corpus into fixed-shape training windows.
package batch

import (
	"errors"

	"gorgonia.org/tensor"
)

var (
	// ErrInvalidShape reports a non-positive batch size or step count.
	ErrInvalidShape = errors.New("batch: batch size and step count must be positive")
	// ErrInsufficientData reports a corpus too short for even one window.
	ErrInsufficientData = errors.New("batch: corpus shorter than one window")
)

// Batch is one training window. Input and Target are int tensors of shape
// (batchSize, nSteps); Target holds the symbol one position after the
// corresponding Input cell within its lane.
type Batch struct {
	Input  *tensor.Dense
	Target *tensor.Dense
}

// Windower slices an encoded corpus into equally shaped (input, target)
// windows. The corpus is truncated to a whole number of windows and split
// row-major into batchSize contiguous lanes, so consecutive windows
// continue each lane where the previous one stopped. The window sequence
// is lazy, finite and single-consumer; restart by constructing a new
// Windower.
type Windower struct {
	lanes   [][]int
	nSteps  int
	laneLen int
	offset  int
}

// NewWindower validates the shape and partitions arr into lanes. Trailing
// symbols that do not fill a whole window are silently dropped.
func NewWindower(arr []int, batchSize, nSteps int) (*Windower, error) {
	if batchSize <= 0 || nSteps <= 0 {
		return nil, ErrInvalidShape
	}
	nBatches := len(arr) / (batchSize * nSteps)
	if nBatches == 0 {
		return nil, ErrInsufficientData
	}
	laneLen := nBatches * nSteps
	lanes := make([][]int, batchSize)
	for i := range lanes {
		lanes[i] = arr[i*laneLen : (i+1)*laneLen]
	}
	return &Windower{lanes: lanes, nSteps: nSteps, laneLen: laneLen}, nil
}

// Len returns the number of windows the sequence produces in total,
// regardless of how many have been consumed.
func (w *Windower) Len() int { return w.laneLen / w.nSteps }

// Next returns the next window, or ok=false once the corpus is exhausted.
// The last target column of the final window is zero-filled, since the
// shifted read would run past the lane end. That one artifact pair per
// lane is intentional and kept stable across runs.
func (w *Windower) Next() (*Batch, bool) {
	if w.offset >= w.laneLen {
		return nil, false
	}
	n := len(w.lanes)
	m := w.nSteps
	in := make([]int, n*m)
	tg := make([]int, n*m)
	for i, lane := range w.lanes {
		copy(in[i*m:(i+1)*m], lane[w.offset:w.offset+m])
		for j := 0; j < m; j++ {
			if src := w.offset + j + 1; src < w.laneLen {
				tg[i*m+j] = lane[src]
			}
		}
	}
	w.offset += m
	return &Batch{
		Input:  tensor.New(tensor.WithShape(n, m), tensor.WithBacking(in)),
		Target: tensor.New(tensor.WithShape(n, m), tensor.WithBacking(tg)),
	}, true
}
