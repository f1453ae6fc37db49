package infra

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"styleai/internal/cinematic"
)

// PipelineEnvPrefix prefixes environment overrides of pipeline params.
// CINEMATIC_LIGHTING__VIGNETTE_FLOOR=0.8 sets lighting.vignette_floor.
const PipelineEnvPrefix = "CINEMATIC_"

// LoadPipelineParams layers an optional YAML file and CINEMATIC_* env vars
// over cinematic.DefaultParams and validates the result.
func LoadPipelineParams(path string) (cinematic.Params, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cinematic.Params{}, fmt.Errorf("load pipeline params %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(PipelineEnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, PipelineEnvPrefix)), "__", ".")
	}), nil); err != nil {
		return cinematic.Params{}, fmt.Errorf("load pipeline env: %w", err)
	}

	params := cinematic.DefaultParams()
	if err := k.Unmarshal("", &params); err != nil {
		return cinematic.Params{}, fmt.Errorf("decode pipeline params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return cinematic.Params{}, fmt.Errorf("invalid pipeline params: %w", err)
	}
	return params, nil
}
