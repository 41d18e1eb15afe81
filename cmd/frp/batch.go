package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"frpengine/internal/frp"
)

var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "Run many documents with one pipeline configuration",
	Long: `batch reads a JSON array, JSON lines or a YAML list of
{id, input_text, question} items and writes one JSON result per line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		items, err := loadBatch(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		cfg, err := pipelineConfig(cmd)
		if err != nil {
			return err
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		results := a.pipeline.Batch(ctx, cfg, items, concurrency)
		enc := json.NewEncoder(cmd.OutOrStdout())
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d items failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addPipelineFlags(batchCmd)
	batchCmd.Flags().IntP("concurrency", "c", 4, "Items run at the same time")
}

func loadBatch(path string) ([]frp.BatchItem, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return parseBatch(raw, strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"))
}

func parseBatch(raw []byte, isYAML bool) ([]frp.BatchItem, error) {
	var items []frp.BatchItem
	if isYAML {
		if err := yaml.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		return items, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		return items, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var item frp.BatchItem
		if err := dec.Decode(&item); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode batch line %d: %w", len(items)+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}
