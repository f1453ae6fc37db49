package cinematic

// ColorGrading applies the teal-orange cinematic look: a saturation and
// brightness lift, a warm hue rotation, then split toning on the blue and
// red channels. The output is snapped to 8-bit levels.
type ColorGrading struct {
	p ColorGradingParams
}

func NewColorGrading(p ColorGradingParams) ColorGrading { return ColorGrading{p: p} }

func (ColorGrading) Name() StageName { return StageColorGrading }

func (s ColorGrading) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}

	hsv, err := BGRToHSV(in)
	if err != nil {
		return src, err
	}
	shift := s.p.HueShift / 360
	for i := 0; i < len(hsv.Pix); i += channels {
		hsv.Pix[i] = wrap01(hsv.Pix[i] + shift)
		hsv.Pix[i+1] = clamp01(hsv.Pix[i+1] * s.p.Saturation)
		hsv.Pix[i+2] = clamp01(hsv.Pix[i+2] * s.p.Value)
	}
	graded, err := HSVToBGR(hsv)
	if err != nil {
		return src, err
	}

	pivot := s.p.SplitPivot
	for i := 0; i < len(graded.Pix); i += channels {
		if b := graded.Pix[i]; b < pivot {
			graded.Pix[i] = b * s.p.ShadowBlue
		}
		if r := graded.Pix[i+2]; r > pivot {
			graded.Pix[i+2] = clamp01(r * s.p.HighlightRed)
		}
	}

	out, err := finish(src, graded)
	if err != nil {
		return out, err
	}
	return Quantize(out), nil
}
