package cinematic

// sharpenKernel has unit gain: the center outweighs the neighbors by one.
var sharpenKernel = [9]float32{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

// Detail blends in a sharpened copy for crispness and a lightly blurred copy
// of the input for film-like softness.
type Detail struct {
	p DetailParams
}

func NewDetail(p DetailParams) Detail { return Detail{p: p} }

func (Detail) Name() StageName { return StageDetail }

func (s Detail) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}

	sharp, err := convolve3x3(in, sharpenKernel)
	if err != nil {
		return src, err
	}
	out, err := addWeighted(in, 1-s.p.SharpenWeight, sharp, s.p.SharpenWeight, 0)
	if err != nil {
		return src, err
	}

	soft, err := gaussianBlur(in, s.p.TextureSigma)
	if err != nil {
		return src, err
	}
	if out, err = addWeighted(out, 1-s.p.TextureWeight, soft, s.p.TextureWeight, 0); err != nil {
		return src, err
	}

	return finish(src, out)
}
