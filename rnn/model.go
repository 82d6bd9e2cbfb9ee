// Package rnn trains a character-level recurrent language model and
// samples text from it. The cell math, gradients and optimizer state are
// owned by gorgonia; this package owns the graph wiring, the window loop
// and checkpointing.
package rnn

import (
	"fmt"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Model is a tanh recurrent cell unrolled cfg.Steps times over one-hot
// inputs, with weights shared across steps. Training graphs additionally
// carry per-step targets, the mean cross-entropy loss and its gradient
// nodes.
type Model struct {
	cfg Config

	g   *gorgonia.ExprGraph
	wxh *gorgonia.Node // (V, H)
	whh *gorgonia.Node // (H, H)
	bh  *gorgonia.Node // (1, H)
	why *gorgonia.Node // (H, V)
	by  *gorgonia.Node // (1, V)

	inputs  []*gorgonia.Node // one per step, (N, V) one-hot
	targets []*gorgonia.Node // one per step, (N, V) one-hot; training only
	h0      *gorgonia.Node   // (N, H) carried-in state
	hLast   *gorgonia.Node   // (N, H) carried-out state
	logits  []*gorgonia.Node // one per step, (N, V)
	loss    *gorgonia.Node   // training only

	vm     gorgonia.VM
	solver gorgonia.Solver
}

// NewModel builds the training graph for cfg, including gradient nodes
// and an Adam solver with gradient clipping.
func NewModel(cfg Config) (*Model, error) {
	return build(cfg, true)
}

func build(cfg Config, training bool) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n, v, h := cfg.BatchSize, cfg.VocabSize, cfg.HiddenSize

	g := gorgonia.NewGraph()
	m := &Model{cfg: cfg, g: g}

	m.wxh = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(v, h), gorgonia.WithName("wxh"),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	m.whh = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(h, h), gorgonia.WithName("whh"),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	m.bh = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(1, h), gorgonia.WithName("bh"),
		gorgonia.WithInit(gorgonia.Zeroes()))
	m.why = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(h, v), gorgonia.WithName("why"),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	m.by = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(1, v), gorgonia.WithName("by"),
		gorgonia.WithInit(gorgonia.Zeroes()))

	m.h0 = gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(n, h), gorgonia.WithName("h0"))

	eps := gorgonia.NewConstant(float32(1e-8), gorgonia.WithName("eps"))

	hPrev := m.h0
	var total *gorgonia.Node
	for t := 0; t < cfg.Steps; t++ {
		x := gorgonia.NewMatrix(g, tensor.Float32,
			gorgonia.WithShape(n, v), gorgonia.WithName(fmt.Sprintf("x.%d", t)))
		m.inputs = append(m.inputs, x)

		pre := gorgonia.Must(gorgonia.Add(
			gorgonia.Must(gorgonia.Mul(x, m.wxh)),
			gorgonia.Must(gorgonia.Mul(hPrev, m.whh)),
		))
		pre = gorgonia.Must(gorgonia.BroadcastAdd(pre, m.bh, nil, []byte{0}))
		hPrev = gorgonia.Must(gorgonia.Tanh(pre))

		logit := gorgonia.Must(gorgonia.BroadcastAdd(
			gorgonia.Must(gorgonia.Mul(hPrev, m.why)), m.by, nil, []byte{0}))
		m.logits = append(m.logits, logit)

		if training {
			y := gorgonia.NewMatrix(g, tensor.Float32,
				gorgonia.WithShape(n, v), gorgonia.WithName(fmt.Sprintf("y.%d", t)))
			m.targets = append(m.targets, y)

			prob := gorgonia.Must(gorgonia.SoftMax(logit))
			logp := gorgonia.Must(gorgonia.Log(gorgonia.Must(gorgonia.Add(prob, eps))))
			ce := gorgonia.Must(gorgonia.Sum(gorgonia.Must(gorgonia.HadamardProd(y, logp))))
			if total == nil {
				total = ce
			} else {
				total = gorgonia.Must(gorgonia.Add(total, ce))
			}
		}
	}
	m.hLast = hPrev

	if training {
		positions := gorgonia.NewConstant(float32(n*cfg.Steps), gorgonia.WithName("positions"))
		m.loss = gorgonia.Must(gorgonia.Neg(gorgonia.Must(gorgonia.Div(total, positions))))

		if _, err := gorgonia.Grad(m.loss, m.learnables()...); err != nil {
			return nil, fmt.Errorf("rnn: gradient construction: %w", err)
		}
		m.vm = gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(m.learnables()...))

		opts := []gorgonia.SolverOpt{gorgonia.WithLearnRate(cfg.LearnRate)}
		if cfg.Clip > 0 {
			opts = append(opts, gorgonia.WithClip(cfg.Clip))
		}
		m.solver = gorgonia.NewAdamSolver(opts...)
	} else {
		m.vm = gorgonia.NewTapeMachine(g)
	}
	return m, nil
}

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// Close releases the underlying virtual machine.
func (m *Model) Close() error { return m.vm.Close() }

func (m *Model) learnables() gorgonia.Nodes {
	return gorgonia.Nodes{m.wxh, m.whh, m.bh, m.why, m.by}
}

// step binds one window plus the carried-in state and runs the tape.
// ys may be nil on inference graphs.
func (m *Model) step(xs, ys []*tensor.Dense, h *tensor.Dense) error {
	for t, x := range xs {
		if err := gorgonia.Let(m.inputs[t], x); err != nil {
			return err
		}
	}
	for t, y := range ys {
		if err := gorgonia.Let(m.targets[t], y); err != nil {
			return err
		}
	}
	if err := gorgonia.Let(m.h0, h); err != nil {
		return err
	}
	m.vm.Reset()
	return m.vm.RunAll()
}

// carriedState copies the final hidden state out of the graph so it can
// seed the next window.
func (m *Model) carriedState() *tensor.Dense {
	return m.hLast.Value().(*tensor.Dense).Clone().(*tensor.Dense)
}

func (m *Model) lossValue() float64 {
	return float64(m.loss.Value().Data().(float32))
}

// oneHotSteps splits an (n, steps) id tensor into per-step one-hot
// (n, vocab) tensors, the layout the unrolled graph consumes.
func oneHotSteps(ids *tensor.Dense, vocab int) []*tensor.Dense {
	shp := ids.Shape()
	n, steps := shp[0], shp[1]
	data := ids.Data().([]int)
	out := make([]*tensor.Dense, steps)
	for t := 0; t < steps; t++ {
		back := make([]float32, n*vocab)
		for i := 0; i < n; i++ {
			back[i*vocab+data[i*steps+t]] = 1
		}
		out[t] = tensor.New(tensor.WithShape(n, vocab), tensor.WithBacking(back))
	}
	return out
}

func zeroHidden(n, h int) *tensor.Dense {
	return tensor.New(tensor.WithShape(n, h), tensor.WithBacking(make([]float32, n*h)))
}
