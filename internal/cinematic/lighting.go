package cinematic

import "math"

// rimKernel is a Laplacian that responds to edges in every direction.
var rimKernel = [9]float32{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// Lighting sculpts light: highlight bloom, shadow deepening, a radial
// vignette and a faint rim light.
type Lighting struct {
	p LightingParams
}

func NewLighting(p LightingParams) Lighting { return Lighting{p: p} }

func (Lighting) Name() StageName { return StageLighting }

func (s Lighting) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}

	bloom, err := gaussianBlur(in, s.p.HighlightSigma)
	if err != nil {
		return src, err
	}
	lit, err := addWeighted(in, 1, bloom, s.p.HighlightWeight, 0)
	if err != nil {
		return src, err
	}

	shadow, err := gaussianBlur(in, s.p.ShadowSigma)
	if err != nil {
		return src, err
	}
	if lit, err = addWeighted(lit, 1, shadow, s.p.ShadowWeight, 0); err != nil {
		return src, err
	}

	lit = applyMask(lit, vignetteMask(in.Width, in.Height), s.p.VignetteFloor, 1-s.p.VignetteFloor)

	rim, err := convolve3x3(lit, rimKernel)
	if err != nil {
		return src, err
	}
	if lit, err = addWeighted(lit, 1-s.p.RimWeight, rim, s.p.RimWeight, 0); err != nil {
		return src, err
	}

	return finish(src, lit)
}

// vignetteMask is 1 at the center and falls to 0 at the corners. Distances
// are normalized by the half diagonal so non-square frames get a circular
// falloff with no directional bias.
func vignetteMask(w, h int) []float32 {
	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Hypot(cx, cy)
	mask := make([]float32, w*h)
	for y := 0; y < h; y++ {
		dy := float64(y) + 0.5 - cy
		for x := 0; x < w; x++ {
			dx := float64(x) + 0.5 - cx
			mask[y*w+x] = clamp01(float32(1 - math.Hypot(dx, dy)/radius))
		}
	}
	return mask
}

// applyMask multiplies every channel by base + weight*mask.
func applyMask(f Frame, mask []float32, base, weight float32) Frame {
	out := NewFrame(f.Width, f.Height)
	for p, m := range mask {
		k := base + weight*m
		i := p * channels
		out.Pix[i] = clamp01(f.Pix[i] * k)
		out.Pix[i+1] = clamp01(f.Pix[i+1] * k)
		out.Pix[i+2] = clamp01(f.Pix[i+2] * k)
	}
	return out
}
