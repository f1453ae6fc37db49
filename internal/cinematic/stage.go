package cinematic

// StageName identifies a pipeline stage.
type StageName string

const (
	StagePreprocess   StageName = "preprocess"
	StageLighting     StageName = "lighting"
	StageComposition  StageName = "composition"
	StageColorGrading StageName = "color_grading"
	StageDetail       StageName = "detail"
	StagePolish       StageName = "polish"
)

// CanonicalOrder is the only order stages ever run in.
var CanonicalOrder = [...]StageName{
	StagePreprocess,
	StageLighting,
	StageComposition,
	StageColorGrading,
	StageDetail,
	StagePolish,
}

// Stage is one pure frame-to-frame transformation. On error a stage returns
// its input unchanged together with the error; it never mutates the input.
type Stage interface {
	Name() StageName
	Apply(Frame) (Frame, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName StageName
	Fn        func(Frame) (Frame, error)
}

func (s StageFunc) Name() StageName              { return s.StageName }
func (s StageFunc) Apply(f Frame) (Frame, error) { return s.Fn(f) }

// finish validates a stage's output before it leaves the stage.
func finish(in, out Frame) (Frame, error) {
	if !out.sameShape(in) {
		return in, ErrMalformedFrame
	}
	if !out.finite() {
		return in, ErrNumeric
	}
	clampInPlace(out.Pix)
	return out, nil
}
