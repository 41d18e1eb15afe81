package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"frpengine/internal/types"
)

// LoadPipelineFile decodes a YAML pipeline configuration. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadPipelineFile(path string) (types.PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PipelineConfig{}, fmt.Errorf("read pipeline file: %w", err)
	}
	return ParsePipeline(data)
}

func ParsePipeline(data []byte) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return types.PipelineConfig{}, fmt.Errorf("decode pipeline: %w", err)
	}
	return cfg, nil
}
