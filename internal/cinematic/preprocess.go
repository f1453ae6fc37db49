package cinematic

// Preprocess removes sensor noise with a bilateral filter and then
// equalizes local contrast on the Lab lightness channel.
type Preprocess struct {
	p PreprocessParams
}

func NewPreprocess(p PreprocessParams) Preprocess { return Preprocess{p: p} }

func (Preprocess) Name() StageName { return StagePreprocess }

func (s Preprocess) Apply(src Frame) (Frame, error) {
	in, err := normalize(src)
	if err != nil {
		return src, err
	}

	smooth, err := bilateral(in, s.p.Diameter, s.p.SigmaColor, s.p.SigmaSpace)
	if err != nil {
		return src, err
	}

	lab, err := BGRToLab(smooth)
	if err != nil {
		return src, err
	}
	l := make([]float32, in.Width*in.Height)
	for p := range l {
		l[p] = lab.Pix[p*channels]
	}
	if l, err = clahe(l, in.Width, in.Height, claheClipLimit, claheGrid, claheGrid); err != nil {
		return src, err
	}
	for p, v := range l {
		lab.Pix[p*channels] = v
	}

	out, err := LabToBGR(lab)
	if err != nil {
		return src, err
	}
	return finish(src, out)
}
