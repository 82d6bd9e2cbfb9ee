package rnn

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Snapshot is a flat copy of the model weights plus the config they were
// trained with. Checkpoints serialize exactly this.
type Snapshot struct {
	Config Config
	Wxh    []float32
	Whh    []float32
	Bh     []float32
	Why    []float32
	By     []float32
}

// Snapshot copies the current weights out of the graph.
func (m *Model) Snapshot() *Snapshot {
	cp := func(n *gorgonia.Node) []float32 {
		return append([]float32(nil), n.Value().Data().([]float32)...)
	}
	return &Snapshot{
		Config: m.cfg,
		Wxh:    cp(m.wxh),
		Whh:    cp(m.whh),
		Bh:     cp(m.bh),
		Why:    cp(m.why),
		By:     cp(m.by),
	}
}

// SetWeights loads snapshot weights into the graph. The snapshot must
// come from a model with the same vocab and hidden sizes; batch size and
// step count may differ, which is how training weights move into the
// one-step generation graph.
func (m *Model) SetWeights(s *Snapshot) error {
	if s.Config.VocabSize != m.cfg.VocabSize || s.Config.HiddenSize != m.cfg.HiddenSize {
		return fmt.Errorf("rnn: snapshot shape (%d, %d) does not match model (%d, %d)",
			s.Config.VocabSize, s.Config.HiddenSize, m.cfg.VocabSize, m.cfg.HiddenSize)
	}
	v, h := m.cfg.VocabSize, m.cfg.HiddenSize
	set := func(n *gorgonia.Node, data []float32, rows, cols int) error {
		if len(data) != rows*cols {
			return fmt.Errorf("rnn: snapshot weight %s has %d values, want %d", n.Name(), len(data), rows*cols)
		}
		t := tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(append([]float32(nil), data...)))
		return gorgonia.Let(n, t)
	}
	if err := set(m.wxh, s.Wxh, v, h); err != nil {
		return err
	}
	if err := set(m.whh, s.Whh, h, h); err != nil {
		return err
	}
	if err := set(m.bh, s.Bh, 1, h); err != nil {
		return err
	}
	if err := set(m.why, s.Why, h, v); err != nil {
		return err
	}
	return set(m.by, s.By, 1, v)
}

// Save writes snap to path, gob-encoded inside a zstd stream.
func Save(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Load reads a snapshot previously written by Save.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var snap Snapshot
	if err := gob.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
