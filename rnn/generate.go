package rnn

import (
	"fmt"

	"gorgonia.org/tensor"

	"charrnn/sample"
	"charrnn/vocab"
)

// Generator runs single-symbol inference over a trained snapshot, feeding
// every drawn symbol back in as the next input.
type Generator struct {
	m *Model
	v *vocab.Vocab
	s *sample.Sampler
}

// NewGenerator builds a one-lane, one-step inference model from snap and
// loads its weights. The sampler supplies (and seeds) all randomness.
func NewGenerator(snap *Snapshot, v *vocab.Vocab, s *sample.Sampler) (*Generator, error) {
	cfg := snap.Config
	cfg.BatchSize = 1
	cfg.Steps = 1
	m, err := build(cfg, false)
	if err != nil {
		return nil, err
	}
	if err := m.SetWeights(snap); err != nil {
		m.Close()
		return nil, err
	}
	return &Generator{m: m, v: v, s: s}, nil
}

// Generate primes the hidden state with prime, then draws n symbols,
// restricting each draw to the topN most probable characters after
// temperature scaling. An unencodable (or empty) prime starts from a
// uniformly drawn symbol instead.
func (g *Generator) Generate(prime string, n, topN int, temp float32) (string, error) {
	ids := g.v.Encode(prime)
	if len(ids) == 0 {
		id, err := g.s.TopN(sample.Uniform(g.v.Size()), g.v.Size())
		if err != nil {
			return "", err
		}
		ids = []int{id}
	}

	h := zeroHidden(1, g.m.cfg.HiddenSize)
	out := append([]int(nil), ids...)

	var preds []float32
	var err error
	for _, id := range ids {
		if preds, h, err = g.next(id, h, temp); err != nil {
			return "", err
		}
	}
	for i := 0; i < n; i++ {
		id, err := g.s.TopN(preds, topN)
		if err != nil {
			return "", err
		}
		out = append(out, id)
		if preds, h, err = g.next(id, h, temp); err != nil {
			return "", err
		}
	}
	return g.v.Decode(out), nil
}

// next feeds one symbol through the cell and returns the temperature-
// scaled distribution over the following symbol plus the new state.
func (g *Generator) next(id int, h *tensor.Dense, temp float32) ([]float32, *tensor.Dense, error) {
	v := g.m.cfg.VocabSize
	back := make([]float32, v)
	back[id] = 1
	x := tensor.New(tensor.WithShape(1, v), tensor.WithBacking(back))

	if err := g.m.step([]*tensor.Dense{x}, nil, h); err != nil {
		return nil, nil, fmt.Errorf("rnn: inference step: %w", err)
	}
	logits := append([]float32(nil), g.m.logits[0].Value().Data().([]float32)...)
	return sample.SoftmaxTemp(logits, temp), g.m.carriedState(), nil
}

// Close releases the inference machine.
func (g *Generator) Close() error { return g.m.Close() }
