package rnn

import "errors"

// Config holds the model and training hyperparameters. VocabSize comes
// from the corpus; everything else has a workable default.
type Config struct {
	VocabSize  int     `json:"vocab_size"`
	HiddenSize int     `json:"hidden_size"`
	BatchSize  int     `json:"batch_size"`
	Steps      int     `json:"steps"`
	LearnRate  float64 `json:"learn_rate"`
	Clip       float64 `json:"clip"`
	Epochs     int     `json:"epochs"`
}

// DefaultConfig returns the hyperparameters the CLI uses unless
// overridden.
func DefaultConfig(vocabSize int) Config {
	return Config{
		VocabSize:  vocabSize,
		HiddenSize: 256,
		BatchSize:  64,
		Steps:      50,
		LearnRate:  1e-3,
		Clip:       5,
		Epochs:     10,
	}
}

var errBadConfig = errors.New("rnn: vocab, hidden, batch, steps and learn rate must be positive")

// Validate rejects shapes the graph cannot be built with.
func (c Config) Validate() error {
	if c.VocabSize <= 0 || c.HiddenSize <= 0 || c.BatchSize <= 0 || c.Steps <= 0 {
		return errBadConfig
	}
	if c.LearnRate <= 0 {
		return errBadConfig
	}
	return nil
}
