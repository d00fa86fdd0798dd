// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/surge"
	"github.com/poiesic/surge/ai"
	"github.com/poiesic/surge/ai/openai"
	"github.com/poiesic/surge/batch"
	"github.com/poiesic/surge/cache"
	"github.com/poiesic/surge/core"
	"github.com/poiesic/surge/similarity"
)

func main() {
	app := &cli.App{
		Name:  "surge",
		Usage: "Adaptive batch execution engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "bench",
				Usage:  "Run a synthetic batch workload and report metrics",
				Action: benchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "items",
						Usage: "Number of items to process",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Explicit batch size (0 lets the strategy decide)",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum concurrent batches",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Batch context domain (database, embedding, similarity)",
						Value: "database",
					},
					&cli.StringFlag{
						Name:  "subtype",
						Usage: "Batch context subtype (qdrant, neo4j, openai, ollama, cosine)",
						Value: "qdrant",
					},
					&cli.DurationFlag{
						Name:  "item-cost",
						Usage: "Simulated processing time per item",
						Value: time.Millisecond,
					},
					&cli.IntFlag{
						Name:  "rounds",
						Usage: "Number of runs, to observe adaptive sizing settle",
						Value: 3,
					},
				},
			},
			{
				Name:      "similarity",
				Usage:     "Compute a pairwise similarity matrix for texts",
				Action:    similarityCommand,
				ArgsUsage: "[text ...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read texts from a file, one per line",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Vector length the model produces",
						Value: 768,
					},
					&cli.StringFlag{
						Name:  "cache-dir",
						Usage: "Persist the embedding cache in this BadgerDB directory",
					},
					&cli.DurationFlag{
						Name:  "cache-ttl",
						Usage: "Lifetime of cached embeddings",
						Value: 24 * time.Hour,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func benchCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := surge.New(surge.DefaultConfig())
	if err != nil {
		return err
	}

	batchCtx := core.BatchContext{
		Domain:  c.String("domain"),
		SubType: c.String("subtype"),
	}
	if err := batchCtx.Validate(); err != nil {
		return err
	}

	items := make([]int, c.Int("items"))
	for i := range items {
		items[i] = i
	}
	itemCost := c.Duration("item-cost")

	for round := 1; round <= c.Int("rounds"); round++ {
		start := time.Now()
		_, err := surge.ProcessBatches(ctx, engine, items,
			func(ctx context.Context, chunk []int) ([]int, error) {
				time.Sleep(itemCost * time.Duration(len(chunk)))
				return chunk, nil
			}, batch.ProcessOptions{
				BatchSize:        c.Int("batch-size"),
				MaxConcurrency:   c.Int("concurrency"),
				Context:          batchCtx,
				EnableMonitoring: true,
				OperationName:    "bench",
			})
		if err != nil {
			return fmt.Errorf("bench round %d failed: %w", round, err)
		}

		line := fmt.Sprintf("round %d: %d items in %s", round, len(items), time.Since(start).Round(time.Millisecond))
		if size, ok := engine.Metrics().AdaptiveSize(batchCtx.Key()); ok {
			line += fmt.Sprintf(" (adaptive batch size now %d)", size)
		}
		fmt.Fprintln(os.Stderr, line)
	}

	stats := engine.Metrics().Stats("bench")
	fmt.Printf("batches:      %d\n", stats.Count)
	fmt.Printf("success rate: %.2f\n", stats.SuccessRate)
	fmt.Printf("average:      %s\n", stats.Average.Round(time.Millisecond))
	fmt.Printf("p95:          %s\n", stats.P95.Round(time.Millisecond))
	fmt.Printf("p99:          %s\n", stats.P99.Round(time.Millisecond))
	return nil
}

func similarityCommand(c *cli.Context) error {
	ctx := context.Background()

	texts, err := collectTexts(c)
	if err != nil {
		return err
	}
	if len(texts) < 2 {
		return fmt.Errorf("at least two texts are required")
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimensions(c.Int("dimensions")),
	)
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	var store cache.Store
	if dir := c.String("cache-dir"); dir != "" {
		store, err = cache.OpenBadger(dir, false)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
	} else {
		store = cache.NewMemory()
	}
	defer store.Close()

	engine, err := surge.New(surge.DefaultConfig())
	if err != nil {
		return err
	}

	optimizer, err := engine.NewSimilarityOptimizer(embedder, store,
		similarity.WithTTL(c.Duration("cache-ttl")))
	if err != nil {
		return err
	}

	matrix, err := optimizer.Similarities(ctx, texts)
	if err != nil {
		return fmt.Errorf("similarity computation failed: %w", err)
	}

	for i, row := range matrix {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%6.3f", v)
		}
		fmt.Printf("%3d  %s\n", i, strings.Join(cells, " "))
	}
	return nil
}

// collectTexts reads texts from positional args or, with --file, one per
// non-empty line.
func collectTexts(c *cli.Context) ([]string, error) {
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var texts []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				texts = append(texts, line)
			}
		}
		return texts, scanner.Err()
	}
	return c.Args().Slice(), nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
