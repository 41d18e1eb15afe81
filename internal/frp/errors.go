package frp

import (
	"errors"
	"fmt"
	"strings"

	"frpengine/internal/llmclient"
	"frpengine/internal/types"
)

// Sentinels for errors.Is. Each typed error below matches exactly one.
var (
	ErrValidation    = errors.New("frp: validation failed")
	ErrConfiguration = errors.New("frp: invalid configuration")
	ErrDependency    = errors.New("frp: missing prior level")
	ErrGeneration    = errors.New("frp: generation failed")
)

// ValidationError rejects empty input or question, or an unknown level
// identifier, before any work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("frp: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigurationError rejects a level list or output format.
type ConfigurationError struct {
	Levels []types.Level
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Levels) == 0 {
		return "frp: configuration: " + e.Reason
	}
	return fmt.Sprintf("frp: configuration %v: %s", e.Levels, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DependencyError reports a level whose predecessors were neither generated
// in this run nor supplied through resume.
type DependencyError struct {
	Level   types.Level
	Missing []types.Level
}

func (e *DependencyError) Error() string {
	names := make([]string, len(e.Missing))
	for i, l := range e.Missing {
		names[i] = string(l)
	}
	return fmt.Sprintf("frp: %s requires %s", e.Level, strings.Join(names, ", "))
}

func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

// GenerationError wraps a failure of the generation capability at one level.
type GenerationError struct {
	Level types.Level
	Kind  llmclient.ErrorKind
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("frp: %s generation %s: %v", e.Level, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
