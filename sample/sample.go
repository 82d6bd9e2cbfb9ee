// Package sample draws symbols from categorical distributions, restricted
// to the most probable candidates to control generation diversity.
package sample

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// DefaultTopN is the restriction used when a caller has no preference.
const DefaultTopN = 5

var (
	// ErrInvalidTopN reports a top-n outside [1, vocab size].
	ErrInvalidTopN = errors.New("sample: top-n outside [1, vocab size]")
	// ErrDegenerateDistribution reports that the restricted weights sum to
	// zero, which can only happen when the input is not a probability
	// vector.
	ErrDegenerateDistribution = errors.New("sample: restricted weights sum to zero")
)

// Sampler draws symbols using an injected random source, so callers can
// seed it for reproducible generation.
type Sampler struct {
	rng *rand.Rand
}

// New returns a Sampler drawing from rng.
func New(rng *rand.Rand) *Sampler { return &Sampler{rng: rng} }

// NewSeeded is shorthand for New with a freshly seeded source.
func NewSeeded(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// TopN restricts preds to its topN most probable entries, renormalizes
// them and draws one index. Entries tied with the topN-th largest are
// kept or dropped in unspecified order.
func (s *Sampler) TopN(preds []float32, topN int) (int, error) {
	if topN < 1 || topN > len(preds) {
		return 0, ErrInvalidTopN
	}
	type kv struct {
		i int
		p float32
	}
	ranked := make([]kv, len(preds))
	for i, p := range preds {
		ranked[i] = kv{i, p}
	}
	sort.Slice(ranked, func(a, b int) bool { return ranked[a].p > ranked[b].p })
	keep := ranked[:topN]

	var sum float32
	for _, e := range keep {
		sum += e.p
	}
	if sum <= 0 {
		return 0, ErrDegenerateDistribution
	}

	r := s.rng.Float32() * sum
	var cum float32
	for _, e := range keep {
		cum += e.p
		if r <= cum {
			return e.i, nil
		}
	}
	return keep[topN-1].i, nil
}

// Flatten strips the redundant leading singleton dimension that
// batch-shaped inference output carries, returning the single row.
func Flatten(preds [][]float32) []float32 {
	if len(preds) == 0 {
		return nil
	}
	return preds[0]
}

// SoftmaxTemp turns logits into a probability vector after dividing them
// by temp. temp <= 0 is treated as 1. Stable under large logits.
func SoftmaxTemp(logits []float32, temp float32) []float32 {
	if temp <= 0 {
		temp = 1
	}
	maxv := float32(math.Inf(-1))
	for _, v := range logits {
		if v/temp > maxv {
			maxv = v / temp
		}
	}
	out := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		e := float32(math.Exp(float64(v/temp - maxv)))
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Uniform returns the uniform distribution over n symbols. Handy for
// picking an unprimed starting symbol through the same sampling path.
func Uniform(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1 / float32(n)
	}
	return out
}
