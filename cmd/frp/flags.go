package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"frpengine/internal/config"
	"frpengine/internal/document"
	"frpengine/internal/frp"
	"frpengine/internal/types"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "File holding the material to analyse; - reads stdin")
	cmd.Flags().String("text", "", "Material to analyse, inline")
	cmd.Flags().StringP("question", "q", "", "The analysis question")
	cmd.Flags().Bool("clean", false, "Strip images, HTML comments and blank-line runs from the input")
}

func addDomainFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("domain", "d", string(types.DomainLegal), "Analytical domain")
	cmd.Flags().String("preset", "", "Domain context preset: constitutional or political")
	cmd.Flags().String("sub-domain", "", "Sub-domain")
	cmd.Flags().String("jurisdiction", "", "Jurisdiction")
	cmd.Flags().String("industry", "", "Industry")
}

func addPipelineFlags(cmd *cobra.Command) {
	addDomainFlags(cmd)
	cmd.Flags().StringP("levels", "l", "", "Comma separated levels to run, e.g. L1,L2,L3 (default all)")
	cmd.Flags().StringP("format", "f", string(types.FormatNarrative), "Output format: structured, narrative or compact")
	cmd.Flags().Bool("include-reasoning", false, "Keep scratch reasoning in level metadata")
	cmd.Flags().String("model", "", "Preferred model forwarded to the provider")
	cmd.Flags().String("pipeline", "", "YAML pipeline file; flags that are set override it")
}

func readInput(cmd *cobra.Command) (string, error) {
	text, err := readRawInput(cmd)
	if err != nil {
		return "", err
	}
	if clean, _ := cmd.Flags().GetBool("clean"); clean {
		text = document.Clean(text)
	}
	return text, nil
}

func readRawInput(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	path, _ := cmd.Flags().GetString("input")
	switch {
	case text != "" && path != "":
		return "", fmt.Errorf("use either --text or --input, not both")
	case text != "":
		return text, nil
	case path == "-":
		raw, err := io.ReadAll(cmd.InOrStdin())
		return string(raw), err
	case path != "":
		raw, err := os.ReadFile(path)
		return string(raw), err
	}
	return "", nil
}

func domainContext(cmd *cobra.Command) (types.DomainContext, error) {
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		dc, ok := frp.Preset(name)
		if !ok {
			return types.DomainContext{}, fmt.Errorf("unknown preset %q", name)
		}
		return dc, nil
	}
	domain, _ := cmd.Flags().GetString("domain")
	dc := types.DomainContext{Domain: types.Domain(strings.ToLower(strings.TrimSpace(domain)))}
	dc.SubDomain, _ = cmd.Flags().GetString("sub-domain")
	dc.Jurisdiction, _ = cmd.Flags().GetString("jurisdiction")
	dc.Industry, _ = cmd.Flags().GetString("industry")
	return dc, nil
}

func parseLevels(raw string) ([]types.Level, error) {
	var out []types.Level
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, ok := types.ParseLevel(part)
		if !ok {
			return nil, fmt.Errorf("unknown level %q", part)
		}
		out = append(out, l)
	}
	return out, nil
}

// pipelineConfig starts from --pipeline when given and applies any flags the
// user set explicitly.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	flags := cmd.Flags()
	var cfg types.PipelineConfig
	if path, _ := flags.GetString("pipeline"); path != "" {
		fileCfg, err := config.LoadPipelineFile(path)
		if err != nil {
			return types.PipelineConfig{}, err
		}
		cfg = fileCfg
	} else {
		cfg = frp.DefaultConfig("")
		cfg.OutputFormat = ""
	}

	domainSet := flags.Changed("domain") || flags.Changed("preset") || flags.Changed("sub-domain") ||
		flags.Changed("jurisdiction") || flags.Changed("industry")
	if domainSet || cfg.DomainContext.Domain == "" {
		dc, err := domainContext(cmd)
		if err != nil {
			return types.PipelineConfig{}, err
		}
		cfg.DomainContext = dc
	}
	if raw, _ := flags.GetString("levels"); raw != "" {
		levels, err := parseLevels(raw)
		if err != nil {
			return types.PipelineConfig{}, err
		}
		cfg.LevelsToExecute = levels
	}
	if flags.Changed("format") || cfg.OutputFormat == "" {
		format, _ := flags.GetString("format")
		cfg.OutputFormat = types.OutputFormat(format)
	}
	if flags.Changed("include-reasoning") {
		cfg.IncludeReasoning, _ = flags.GetBool("include-reasoning")
	}
	if model, _ := flags.GetString("model"); model != "" {
		cfg.ModelPreferences.PreferredModel = model
	}
	return cfg, nil
}
