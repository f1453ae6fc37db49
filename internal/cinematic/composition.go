package cinematic

import "math"

// Composition pulls attention to the center of the frame and reinforces
// strong outlines.
type Composition struct {
	p CompositionParams
}

func NewComposition(p CompositionParams) Composition { return Composition{p: p} }

func (Composition) Name() StageName { return StageComposition }

func (s Composition) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}
	w, h := in.Width, in.Height

	sigma := float64(min(w, h)) / s.p.FocusDivisor
	focused := applyMask(in, focusMask(w, h, sigma), s.p.FocusBase, s.p.FocusWeight)

	gray, err := grayPlane(in)
	if err != nil {
		return src, err
	}
	grad, err := sobelMagnitude(gray, w, h)
	if err != nil {
		return src, err
	}
	edges, err := edgeMask(grad, w, h, s.p.EdgeThreshold)
	if err != nil {
		return src, err
	}

	for p, e := range edges {
		if e == 0 {
			continue
		}
		i := p * channels
		add := s.p.EdgeWeight * e
		focused.Pix[i] += add
		focused.Pix[i+1] += add
		focused.Pix[i+2] += add
	}
	return finish(src, focused)
}

// focusMask is a Gaussian bump with peak 1 at the frame center.
func focusMask(w, h int, sigma float64) []float32 {
	cx, cy := float64(w)/2, float64(h)/2
	denom := 2 * sigma * sigma
	mask := make([]float32, w*h)
	for y := 0; y < h; y++ {
		dy := float64(y) + 0.5 - cy
		for x := 0; x < w; x++ {
			dx := float64(x) + 0.5 - cx
			mask[y*w+x] = float32(math.Exp(-(dx*dx + dy*dy) / denom))
		}
	}
	return mask
}
