package frp

import (
	"context"

	"golang.org/x/sync/errgroup"

	"frpengine/internal/types"
)

// BatchItem is one independent analysis request.
type BatchItem struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Input    string `json:"input_text" yaml:"input_text"`
	Question string `json:"question" yaml:"question"`
}

// BatchResult pairs an item with its outcome. Lengths holds the content
// length of every captured level, so partial runs still report progress.
type BatchResult struct {
	Item     BatchItem           `json:"item"`
	Analysis *types.FRPAnalysis  `json:"analysis,omitempty"`
	Err      error               `json:"-"`
	Error    string              `json:"error,omitempty"`
	Lengths  map[types.Level]int `json:"lengths,omitempty"`
}

// Batch runs every item with the same cfg, at most concurrency at a time.
// Results come back in input order. A failing item never stops its siblings;
// only ctx cancellation does.
func (p *Pipeline) Batch(ctx context.Context, cfg types.PipelineConfig, items []BatchItem, concurrency int) []BatchResult {
	results := make([]BatchResult, len(items))
	if concurrency <= 0 {
		concurrency = 1
	}
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			analysis, err := p.Run(ctx, cfg, item.Input, item.Question, nil)
			res := BatchResult{Item: item, Analysis: analysis, Err: err}
			if err != nil {
				res.Error = err.Error()
			}
			if analysis != nil {
				res.Lengths = make(map[types.Level]int, len(analysis.Levels))
				for _, lvl := range analysis.Levels {
					res.Lengths[lvl.Level] = len(lvl.Content)
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
