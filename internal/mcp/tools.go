package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"frpengine/internal/document"
	"frpengine/internal/frp"
	"frpengine/internal/store"
	"frpengine/internal/types"
)

func decodeArgs(req mcp.CallToolRequest, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(req.GetArguments()); err != nil {
		return &frp.ValidationError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func withInputPath() mcp.ToolOption {
	return mcp.WithString("input_path",
		mcp.Description("Document path under the server's document root, used when input_text is empty"),
	)
}

// resolveInput prefers inline text and falls back to reading path from docs.
func resolveInput(docs *document.Root, text, path string) (string, error) {
	if text != "" || path == "" {
		return text, nil
	}
	if docs == nil {
		return "", &frp.ValidationError{Field: "input_path", Reason: "no document root configured"}
	}
	raw, err := docs.Read(path)
	if err != nil {
		return "", &frp.ValidationError{Field: "input_path", Reason: err.Error()}
	}
	return document.Clean(raw), nil
}

func withDomainContext() mcp.ToolOption {
	return mcp.WithObject("domain_context",
		mcp.Description("Domain context: domain, sub_domain, jurisdiction, industry, additional_context"),
	)
}

type levelsTool struct{}

func (levelsTool) Definition() mcp.Tool {
	return mcp.NewTool("frp_levels",
		mcp.WithDescription("List the five reasoning levels with objectives, focus areas and expected length."),
	)
}

func (levelsTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(frp.Levels())
}

type composeArgs struct {
	Level         string                 `mapstructure:"level"`
	InputText     string                 `mapstructure:"input_text"`
	InputPath     string                 `mapstructure:"input_path"`
	Question      string                 `mapstructure:"question"`
	DomainContext types.DomainContext    `mapstructure:"domain_context"`
	Prior         map[types.Level]string `mapstructure:"prior"`
}

type composeTool struct {
	docs *document.Root
}

func (composeTool) Definition() mcp.Tool {
	return mcp.NewTool("frp_compose",
		mcp.WithDescription("Build the prompt for one level without calling a model."),
		mcp.WithString("level", mcp.Required(), mcp.Description("Level to compose: L1..L5")),
		mcp.WithString("input_text", mcp.Description("Material under analysis")),
		withInputPath(),
		mcp.WithString("question", mcp.Required(), mcp.Description("The analysis question")),
		withDomainContext(),
		mcp.WithObject("prior", mcp.Description("Outputs of earlier levels keyed by level, e.g. {\"L1\": \"...\"}")),
	)
}

func (t composeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args composeArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err), nil
	}
	input, err := resolveInput(t.docs, args.InputText, args.InputPath)
	if err != nil {
		return toolError(err), nil
	}
	level, ok := types.ParseLevel(args.Level)
	if !ok {
		return toolError(&frp.ValidationError{Field: "level", Reason: fmt.Sprintf("unknown level %q", args.Level)}), nil
	}
	prompt, err := frp.Compose(level, input, args.Question, args.DomainContext, args.Prior)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(prompt), nil
}

type runArgs struct {
	InputText        string                      `mapstructure:"input_text"`
	InputPath        string                      `mapstructure:"input_path"`
	Question         string                      `mapstructure:"question"`
	Preset           string                      `mapstructure:"preset"`
	DomainContext    types.DomainContext         `mapstructure:"domain_context"`
	Levels           []string                    `mapstructure:"levels"`
	OutputFormat     string                      `mapstructure:"output_format"`
	IncludeReasoning bool                        `mapstructure:"include_reasoning"`
	ModelPreferences types.GenerationPreferences `mapstructure:"model_preferences"`
}

func (a runArgs) config() (types.PipelineConfig, error) {
	dc := a.DomainContext
	if a.Preset != "" && dc.Domain == "" {
		p, ok := frp.Preset(a.Preset)
		if !ok {
			return types.PipelineConfig{}, &frp.ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", a.Preset)}
		}
		dc = p
	}
	cfg := frp.DefaultConfig(dc.Domain)
	cfg.DomainContext = dc
	if len(a.Levels) > 0 {
		cfg.LevelsToExecute = make([]types.Level, 0, len(a.Levels))
		for _, raw := range a.Levels {
			l, ok := types.ParseLevel(raw)
			if !ok {
				return types.PipelineConfig{}, &frp.ConfigurationError{Reason: fmt.Sprintf("unknown level %q", raw)}
			}
			cfg.LevelsToExecute = append(cfg.LevelsToExecute, l)
		}
	}
	cfg.OutputFormat = types.OutputFormat(a.OutputFormat)
	cfg.IncludeReasoning = a.IncludeReasoning
	cfg.ModelPreferences = a.ModelPreferences
	return cfg, nil
}

type runTool struct {
	pipeline *frp.Pipeline
	store    store.Store
	docs     *document.Root
	log      *zap.Logger
	now      func() time.Time
}

func (t *runTool) Definition() mcp.Tool {
	return mcp.NewTool("frp_run",
		mcp.WithDescription("Run the fractal reasoning pipeline over the input and return the rendered analysis."),
		mcp.WithString("input_text", mcp.Description("Material under analysis")),
		withInputPath(),
		mcp.WithString("question", mcp.Required(), mcp.Description("The analysis question")),
		withDomainContext(),
		mcp.WithString("preset", mcp.Description("Named domain context preset used when domain_context is omitted"),
			mcp.Enum("constitutional", "political")),
		mcp.WithArray("levels", mcp.Description("Levels to execute in ascending order; defaults to L1..L5"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("output_format", mcp.Description("Rendering of the result"),
			mcp.Enum(string(types.FormatStructured), string(types.FormatNarrative), string(types.FormatCompact))),
		mcp.WithBoolean("include_reasoning", mcp.Description("Keep scratch reasoning in each level's metadata")),
		mcp.WithObject("model_preferences", mcp.Description("preferred_model, temperature, max_tokens")),
	)
}

func (t *runTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args runArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err), nil
	}
	cfg, err := args.config()
	if err != nil {
		return toolError(err), nil
	}
	input, err := resolveInput(t.docs, args.InputText, args.InputPath)
	if err != nil {
		return toolError(err), nil
	}
	analysis, err := t.pipeline.Run(ctx, cfg, input, args.Question, nil)
	if err != nil {
		return toolError(err), nil
	}
	if t.store != nil {
		rec := store.NewRecord(analysis, t.now())
		if err := t.store.Put(ctx, rec); err != nil {
			t.log.Warn("mcp: store analysis", zap.Error(err))
		} else {
			t.log.Info("mcp: analysis stored", zap.String("id", rec.ID))
		}
	}
	text, err := frp.Render(analysis, cfg.OutputFormat)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}

type getArgs struct {
	ID     string `mapstructure:"id"`
	Format string `mapstructure:"format"`
}

type getTool struct {
	store store.Store
}

func (t *getTool) Definition() mcp.Tool {
	return mcp.NewTool("frp_get",
		mcp.WithDescription("Fetch a stored analysis by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Analysis id")),
		mcp.WithString("format", mcp.Description("Rendering of the result"),
			mcp.Enum(string(types.FormatStructured), string(types.FormatNarrative), string(types.FormatCompact))),
	)
}

func (t *getTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getArgs
	if err := decodeArgs(req, &args); err != nil {
		return toolError(err), nil
	}
	rec, err := t.store.Get(ctx, args.ID)
	if err != nil {
		return toolError(err), nil
	}
	text, err := frp.Render(rec.Analysis, types.OutputFormat(args.Format))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(text), nil
}
