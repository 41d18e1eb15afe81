package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frpengine/internal/types"
)

func newPipelineCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addInputFlags(cmd)
	addPipelineFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels("L1, 2,l3")
	require.NoError(t, err)
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, levels)

	levels, err = parseLevels("")
	require.NoError(t, err)
	assert.Empty(t, levels)

	_, err = parseLevels("L1,L6")
	assert.Error(t, err)
}

func TestPipelineConfig_Defaults(t *testing.T) {
	cfg, err := pipelineConfig(newPipelineCmd(t))
	require.NoError(t, err)
	assert.Equal(t, types.DomainLegal, cfg.DomainContext.Domain)
	assert.Equal(t, types.AllLevels, cfg.LevelsToExecute)
	assert.Equal(t, types.FormatNarrative, cfg.OutputFormat)
	assert.False(t, cfg.IncludeReasoning)
}

func TestPipelineConfig_Flags(t *testing.T) {
	cfg, err := pipelineConfig(newPipelineCmd(t,
		"--domain", "Audit", "--jurisdiction", "EU", "-l", "L1,L2",
		"-f", "compact", "--include-reasoning", "--model", "m-1"))
	require.NoError(t, err)
	assert.Equal(t, types.DomainAudit, cfg.DomainContext.Domain)
	assert.Equal(t, "EU", cfg.DomainContext.Jurisdiction)
	assert.Equal(t, []types.Level{types.L1, types.L2}, cfg.LevelsToExecute)
	assert.Equal(t, types.FormatCompact, cfg.OutputFormat)
	assert.True(t, cfg.IncludeReasoning)
	assert.Equal(t, "m-1", cfg.ModelPreferences.PreferredModel)
}

func TestPipelineConfig_PresetAndFile(t *testing.T) {
	cfg, err := pipelineConfig(newPipelineCmd(t, "--preset", "political"))
	require.NoError(t, err)
	assert.Equal(t, types.DomainPolitical, cfg.DomainContext.Domain)

	_, err = pipelineConfig(newPipelineCmd(t, "--preset", "maritime"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`domain_context:
  domain: risk
  industry: energy
levels_to_execute: [L1, L2, L3]
output_format: structured
`), 0o644))

	cfg, err = pipelineConfig(newPipelineCmd(t, "--pipeline", path))
	require.NoError(t, err)
	assert.Equal(t, types.DomainRisk, cfg.DomainContext.Domain)
	assert.Equal(t, "energy", cfg.DomainContext.Industry)
	assert.Equal(t, types.FormatStructured, cfg.OutputFormat)
	assert.Len(t, cfg.LevelsToExecute, 3)

	cfg, err = pipelineConfig(newPipelineCmd(t, "--pipeline", path, "-l", "L1", "-f", "compact"))
	require.NoError(t, err)
	assert.Equal(t, types.DomainRisk, cfg.DomainContext.Domain)
	assert.Equal(t, []types.Level{types.L1}, cfg.LevelsToExecute)
	assert.Equal(t, types.FormatCompact, cfg.OutputFormat)
}

func TestReadInput(t *testing.T) {
	text, err := readInput(newPipelineCmd(t, "--text", "inline"))
	require.NoError(t, err)
	assert.Equal(t, "inline", text)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	text, err = readInput(newPipelineCmd(t, "-i", path))
	require.NoError(t, err)
	assert.Equal(t, "from file", text)

	_, err = readInput(newPipelineCmd(t, "-i", path, "--text", "x"))
	assert.Error(t, err)

	text, err = readInput(newPipelineCmd(t, "--clean", "--text", "a <!-- c -->b\n\n\n\nc"))
	require.NoError(t, err)
	assert.Equal(t, "a b\n\nc", text)
}

func TestParseBatch(t *testing.T) {
	items, err := parseBatch([]byte(`[{"id":"a","input_text":"x","question":"q"}]`), false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	items, err = parseBatch([]byte("{\"input_text\":\"x\",\"question\":\"q\"}\n{\"input_text\":\"y\",\"question\":\"r\"}\n"), false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "y", items[1].Input)

	items, err = parseBatch([]byte("- id: one\n  input_text: x\n  question: q\n"), true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "one", items[0].ID)

	_, err = parseBatch([]byte("{not json"), false)
	assert.Error(t, err)
}
