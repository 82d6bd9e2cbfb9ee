// Command charrnn trains a character-level recurrent language model on a
// text corpus and samples new text from it.
package main

import (
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"charrnn/rnn"
	"charrnn/sample"
	"charrnn/vocab"
)

const (
	modelFile    = "model.gob.zst"
	vocabFile    = "vocab.json"
	manifestFile = "manifest.json"
	metricsFile  = "metrics.json"
)

// Manifest describes a finished training run.
type Manifest struct {
	CorpusPath string     `json:"corpus_path"`
	CorpusHash string     `json:"corpus_hash"`
	Config     rnn.Config `json:"config"`
	VocabSize  int        `json:"vocab_size"`
	FinalLoss  float64    `json:"final_loss"`
	TrainedAt  time.Time  `json:"trained_at"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "train":
		runTrain(os.Args[2:])
	case "generate":
		runGenerate(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("charrnn - character-level recurrent language model")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  charrnn train -corpus FILE -out DIR [options]")
	fmt.Println("  charrnn generate -model DIR [options]")
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	corpusPath := fs.String("corpus", "", "path to training corpus (required)")
	out := fs.String("out", "", "output directory for the model (required)")
	hidden := fs.Int("hidden", 256, "hidden state size")
	batchSize := fs.Int("batch", 64, "parallel lanes per window")
	steps := fs.Int("steps", 50, "window width in symbols")
	lr := fs.Float64("lr", 1e-3, "learning rate")
	clip := fs.Float64("clip", 5, "gradient clipping")
	epochs := fs.Int("epochs", 10, "training epochs")
	fs.Parse(args)

	if *corpusPath == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "train: -corpus and -out are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := rnn.Config{
		HiddenSize: *hidden,
		BatchSize:  *batchSize,
		Steps:      *steps,
		LearnRate:  *lr,
		Clip:       *clip,
		Epochs:     *epochs,
	}
	if err := train(*corpusPath, *out, cfg, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func train(corpusPath, out string, cfg rnn.Config, logger *slog.Logger) error {
	data, err := os.ReadFile(corpusPath)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	text := string(data)
	v := vocab.Build(text)
	ids := v.Encode(text)
	cfg.VocabSize = v.Size()
	logger.Info("corpus loaded",
		"path", corpusPath,
		"symbols", len(ids),
		"vocab", v.Size(),
	)

	m, err := rnn.NewModel(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	res, err := m.Train(ids, logger)
	if err != nil {
		return err
	}

	if err := rnn.Save(filepath.Join(out, modelFile), m.Snapshot()); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	if err := v.Save(filepath.Join(out, vocabFile)); err != nil {
		return fmt.Errorf("save vocab: %w", err)
	}
	man := Manifest{
		CorpusPath: corpusPath,
		CorpusHash: fmt.Sprintf("%x", sha256.Sum256(data))[:16],
		Config:     cfg,
		VocabSize:  v.Size(),
		FinalLoss:  res.FinalLoss,
		TrainedAt:  time.Now(),
	}
	if err := saveJSON(filepath.Join(out, manifestFile), man); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := saveJSON(filepath.Join(out, metricsFile), res); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	logger.Info("model saved", "dir", out, "final_loss", res.FinalLoss)
	return nil
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	modelDir := fs.String("model", "", "model directory written by train (required)")
	n := fs.Int("n", 500, "symbols to generate")
	topN := fs.Int("topn", sample.DefaultTopN, "restrict draws to the top-n symbols")
	temp := fs.Float64("temp", 1.0, "sampling temperature")
	prime := fs.String("prime", "", "prompt used to prime the hidden state")
	seed := fs.Int64("seed", 0, "random seed (0 picks one from the clock)")
	fs.Parse(args)

	if *modelDir == "" {
		fmt.Fprintln(os.Stderr, "generate: -model is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	text, err := generate(*modelDir, *prime, *n, *topN, float32(*temp), *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(text)
}

func generate(dir, prime string, n, topN int, temp float32, seed int64) (string, error) {
	snap, err := rnn.Load(filepath.Join(dir, modelFile))
	if err != nil {
		return "", fmt.Errorf("load model: %w", err)
	}
	v, err := vocab.Load(filepath.Join(dir, vocabFile))
	if err != nil {
		return "", fmt.Errorf("load vocab: %w", err)
	}
	gen, err := rnn.NewGenerator(snap, v, sample.NewSeeded(seed))
	if err != nil {
		return "", err
	}
	defer gen.Close()
	return gen.Generate(prime, n, topN, temp)
}

func saveJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
