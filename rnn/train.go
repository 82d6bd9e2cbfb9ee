package rnn

import (
	"fmt"
	"log/slog"
	"math"

	"gorgonia.org/gorgonia"

	"charrnn/batch"
)

// EpochMetrics records one epoch of training progress.
type EpochMetrics struct {
	Epoch      int     `json:"epoch"`
	Loss       float64 `json:"loss"`
	Perplexity float64 `json:"perplexity"`
}

// TrainResult is the outcome of a full training run.
type TrainResult struct {
	Epochs    []EpochMetrics `json:"epochs"`
	FinalLoss float64        `json:"final_loss"`
}

// Train runs cfg.Epochs passes over the encoded corpus. Hidden state is
// carried across the consecutive windows of an epoch, which is why the
// windower keeps lanes contiguous, and reset to zero at every epoch
// start. A nil logger falls back to slog.Default.
func (m *Model) Train(corpus []int, logger *slog.Logger) (*TrainResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := m.cfg
	res := &TrainResult{}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		w, err := batch.NewWindower(corpus, cfg.BatchSize, cfg.Steps)
		if err != nil {
			return nil, err
		}
		h := zeroHidden(cfg.BatchSize, cfg.HiddenSize)
		var lossSum float64
		windows := 0

		for {
			b, ok := w.Next()
			if !ok {
				break
			}
			xs := oneHotSteps(b.Input, cfg.VocabSize)
			ys := oneHotSteps(b.Target, cfg.VocabSize)
			if err := m.step(xs, ys, h); err != nil {
				return nil, fmt.Errorf("rnn: window %d of epoch %d: %w", windows, epoch, err)
			}
			if err := m.solver.Step(gorgonia.NodesToValueGrads(m.learnables())); err != nil {
				return nil, fmt.Errorf("rnn: solver step: %w", err)
			}
			h = m.carriedState()
			lossSum += m.lossValue()
			windows++
		}

		avg := lossSum / float64(windows)
		res.Epochs = append(res.Epochs, EpochMetrics{
			Epoch:      epoch,
			Loss:       avg,
			Perplexity: math.Exp(avg),
		})
		res.FinalLoss = avg
		logger.Info("epoch complete",
			"epoch", epoch,
			"windows", windows,
			"loss", avg,
			"perplexity", math.Exp(avg),
		)
	}
	return res, nil
}
