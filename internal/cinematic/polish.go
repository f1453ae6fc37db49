package cinematic

// Polish is always the last stage: a mild bilateral denoise, then a linear
// contrast/brightness lift. Its output is exactly representable in 8 bits.
type Polish struct {
	p PolishParams
}

func NewPolish(p PolishParams) Polish { return Polish{p: p} }

func (Polish) Name() StageName { return StagePolish }

func (s Polish) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}

	out, err := bilateral(in, s.p.Diameter, s.p.SigmaColor, s.p.SigmaSpace)
	if err != nil {
		return src, err
	}
	beta := s.p.Beta / 255
	for i, v := range out.Pix {
		out.Pix[i] = clamp01(v*s.p.Alpha + beta)
	}

	out, err = finish(src, out)
	if err != nil {
		return out, err
	}
	return Quantize(out), nil
}
