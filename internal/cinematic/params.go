package cinematic

import (
	"errors"
	"fmt"
)

// Local contrast equalization runs on a fixed tile grid with a fixed clip
// limit; they are not tunable per call.
const (
	claheClipLimit = 2.0
	claheGrid      = 8
)

// Params holds the numeric constants of every stage. Sigmas for color
// similarity are expressed in 8-bit units; everything else operates on
// normalized samples.
type Params struct {
	Preprocess   PreprocessParams   `koanf:"preprocess" yaml:"preprocess"`
	Lighting     LightingParams     `koanf:"lighting" yaml:"lighting"`
	Composition  CompositionParams  `koanf:"composition" yaml:"composition"`
	ColorGrading ColorGradingParams `koanf:"color_grading" yaml:"color_grading"`
	Detail       DetailParams       `koanf:"detail" yaml:"detail"`
	Polish       PolishParams       `koanf:"polish" yaml:"polish"`
}

type PreprocessParams struct {
	Diameter   int     `koanf:"diameter" yaml:"diameter"`
	SigmaColor float64 `koanf:"sigma_color" yaml:"sigma_color"`
	SigmaSpace float64 `koanf:"sigma_space" yaml:"sigma_space"`
}

type LightingParams struct {
	HighlightSigma  float64 `koanf:"highlight_sigma" yaml:"highlight_sigma"`
	HighlightWeight float32 `koanf:"highlight_weight" yaml:"highlight_weight"`
	ShadowSigma     float64 `koanf:"shadow_sigma" yaml:"shadow_sigma"`
	ShadowWeight    float32 `koanf:"shadow_weight" yaml:"shadow_weight"`
	VignetteFloor   float32 `koanf:"vignette_floor" yaml:"vignette_floor"`
	RimWeight       float32 `koanf:"rim_weight" yaml:"rim_weight"`
}

type CompositionParams struct {
	// FocusDivisor sets the focus mask sigma to min(height, width)/FocusDivisor.
	FocusDivisor  float64 `koanf:"focus_divisor" yaml:"focus_divisor"`
	FocusBase     float32 `koanf:"focus_base" yaml:"focus_base"`
	FocusWeight   float32 `koanf:"focus_weight" yaml:"focus_weight"`
	EdgeThreshold float32 `koanf:"edge_threshold" yaml:"edge_threshold"`
	EdgeWeight    float32 `koanf:"edge_weight" yaml:"edge_weight"`
}

type ColorGradingParams struct {
	Saturation float32 `koanf:"saturation" yaml:"saturation"`
	// HueShift is in degrees and wraps around the hue wheel.
	HueShift     float32 `koanf:"hue_shift" yaml:"hue_shift"`
	Value        float32 `koanf:"value" yaml:"value"`
	ShadowBlue   float32 `koanf:"shadow_blue" yaml:"shadow_blue"`
	HighlightRed float32 `koanf:"highlight_red" yaml:"highlight_red"`
	SplitPivot   float32 `koanf:"split_pivot" yaml:"split_pivot"`
}

type DetailParams struct {
	SharpenWeight float32 `koanf:"sharpen_weight" yaml:"sharpen_weight"`
	TextureSigma  float64 `koanf:"texture_sigma" yaml:"texture_sigma"`
	TextureWeight float32 `koanf:"texture_weight" yaml:"texture_weight"`
}

type PolishParams struct {
	Diameter   int     `koanf:"diameter" yaml:"diameter"`
	SigmaColor float64 `koanf:"sigma_color" yaml:"sigma_color"`
	SigmaSpace float64 `koanf:"sigma_space" yaml:"sigma_space"`
	Alpha      float32 `koanf:"alpha" yaml:"alpha"`
	// Beta is an additive brightness offset in 8-bit units.
	Beta float32 `koanf:"beta" yaml:"beta"`
}

// DefaultParams returns the production constants.
func DefaultParams() Params {
	return Params{
		Preprocess: PreprocessParams{Diameter: 9, SigmaColor: 75, SigmaSpace: 75},
		Lighting: LightingParams{
			HighlightSigma:  5,
			HighlightWeight: 0.4,
			ShadowSigma:     7,
			ShadowWeight:    -0.3,
			VignetteFloor:   0.75,
			RimWeight:       0.1,
		},
		Composition: CompositionParams{
			FocusDivisor:  4,
			FocusBase:     0.9,
			FocusWeight:   0.1,
			EdgeThreshold: 0.6,
			EdgeWeight:    0.05,
		},
		ColorGrading: ColorGradingParams{
			Saturation:   1.2,
			HueShift:     16,
			Value:        1.1,
			ShadowBlue:   0.9,
			HighlightRed: 1.1,
			SplitPivot:   0.5,
		},
		Detail: DetailParams{SharpenWeight: 0.2, TextureSigma: 1, TextureWeight: 0.1},
		Polish: PolishParams{Diameter: 5, SigmaColor: 50, SigmaSpace: 50, Alpha: 1.05, Beta: 5},
	}
}

// Validate rejects parameter sets that would break the range or shape
// guarantees of a stage.
func (p Params) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(p.Preprocess.Diameter >= 0, "preprocess.diameter must be >= 0")
	check(p.Preprocess.SigmaColor > 0 && p.Preprocess.SigmaSpace > 0, "preprocess sigmas must be > 0")
	check(p.Lighting.HighlightSigma > 0, "lighting.highlight_sigma must be > 0")
	check(p.Lighting.ShadowSigma > 0, "lighting.shadow_sigma must be > 0")
	check(p.Lighting.HighlightWeight >= 0, "lighting.highlight_weight must be >= 0")
	check(p.Lighting.ShadowWeight <= 0, "lighting.shadow_weight must be <= 0")
	check(p.Lighting.VignetteFloor >= 0 && p.Lighting.VignetteFloor <= 1, "lighting.vignette_floor must be in [0,1]")
	check(p.Lighting.RimWeight >= 0 && p.Lighting.RimWeight < 1, "lighting.rim_weight must be in [0,1)")
	check(p.Composition.FocusDivisor > 0, "composition.focus_divisor must be > 0")
	check(p.Composition.EdgeThreshold > 0, "composition.edge_threshold must be > 0")
	check(p.ColorGrading.Saturation > 0, "color_grading.saturation must be > 0")
	check(p.ColorGrading.Value > 0, "color_grading.value must be > 0")
	check(p.ColorGrading.SplitPivot > 0 && p.ColorGrading.SplitPivot < 1, "color_grading.split_pivot must be in (0,1)")
	check(p.Detail.SharpenWeight >= 0 && p.Detail.SharpenWeight <= 1, "detail.sharpen_weight must be in [0,1]")
	check(p.Detail.TextureSigma > 0, "detail.texture_sigma must be > 0")
	check(p.Detail.TextureWeight >= 0 && p.Detail.TextureWeight <= 1, "detail.texture_weight must be in [0,1]")
	check(p.Polish.Diameter >= 0, "polish.diameter must be >= 0")
	check(p.Polish.SigmaColor > 0 && p.Polish.SigmaSpace > 0, "polish sigmas must be > 0")
	check(p.Polish.Alpha > 0, "polish.alpha must be > 0")
	return errors.Join(errs...)
}
