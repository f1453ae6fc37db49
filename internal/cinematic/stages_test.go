package cinematic

import (
	"errors"
	"testing"
)

func defaultStages() []Stage {
	p := DefaultParams()
	return []Stage{
		NewPreprocess(p.Preprocess),
		NewLighting(p.Lighting),
		NewComposition(p.Composition),
		NewColorGrading(p.ColorGrading),
		NewDetail(p.Detail),
		NewPolish(p.Polish),
	}
}

func assertFrameInvariants(t *testing.T, in, out Frame) {
	t.Helper()
	if out.Width != in.Width || out.Height != in.Height || len(out.Pix) != len(in.Pix) {
		t.Fatalf("shape changed: %dx%d/%d -> %dx%d/%d", in.Width, in.Height, len(in.Pix), out.Width, out.Height, len(out.Pix))
	}
	for i, v := range out.Pix {
		if !(v >= 0 && v <= 1) {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}

func TestStagesPreserveShapeAndRange(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 1}, {2, 3}, {31, 17}}
	for _, st := range defaultStages() {
		for _, sz := range sizes {
			in := randomFrame(t, sz[0], sz[1], int64(sz[0]*100+sz[1]))
			out, err := st.Apply(in)
			if err != nil {
				t.Fatalf("%s %dx%d: %v", st.Name(), sz[0], sz[1], err)
			}
			assertFrameInvariants(t, in, out)
		}
	}
}

func TestStagesDoNotMutateInput(t *testing.T) {
	in := randomFrame(t, 12, 9, 3)
	snapshot := in.Clone()
	for _, st := range defaultStages() {
		if _, err := st.Apply(in); err != nil {
			t.Fatalf("%s: %v", st.Name(), err)
		}
		if maxAbsDiff(in, snapshot) != 0 {
			t.Fatalf("%s mutated its input", st.Name())
		}
	}
}

func TestStagesRejectMalformedFrames(t *testing.T) {
	bad := Frame{Width: 4, Height: 4, Pix: make([]float32, 5)}
	for _, st := range defaultStages() {
		out, err := st.Apply(bad)
		if !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("%s: err = %v, want ErrMalformedFrame", st.Name(), err)
		}
		if len(out.Pix) != len(bad.Pix) {
			t.Fatalf("%s did not return its input on failure", st.Name())
		}
	}
}

func TestStagesSanitizeOutOfRangeInput(t *testing.T) {
	in := uniformFrame(6, 6, 0.5)
	in.Pix[0] = 3
	in.Pix[1] = -2
	for _, st := range defaultStages() {
		out, err := st.Apply(in)
		if err != nil {
			t.Fatalf("%s: %v", st.Name(), err)
		}
		assertFrameInvariants(t, in, out)
	}
}

func TestLightingDarkensCorners(t *testing.T) {
	in := uniformFrame(64, 48, 0.5)
	out, err := NewLighting(DefaultParams().Lighting).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	center := out.Pix[(24*64+32)*channels]
	corner := out.Pix[0]
	if center <= corner {
		t.Fatalf("center %v should be brighter than corner %v", center, corner)
	}
}

func TestVignetteMaskIsRadiallySymmetric(t *testing.T) {
	w, h := 200, 100
	mask := vignetteMask(w, h)
	horizontal := mask[50*w+139]
	vertical := mask[89*w+100]
	if !near(horizontal, vertical, 1e-6) {
		t.Fatalf("mask differs along axes: %v vs %v", horizontal, vertical)
	}
	if c := mask[50*w+100]; c < 0.99 {
		t.Fatalf("center mask = %v, want ~1", c)
	}
	if corner := mask[0]; corner > 0.02 {
		t.Fatalf("corner mask = %v, want ~0", corner)
	}
}

func TestCompositionFavorsCenter(t *testing.T) {
	in := uniformFrame(40, 40, 0.5)
	out, err := NewComposition(DefaultParams().Composition).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	center := out.Pix[(20*40+20)*channels]
	edge := out.Pix[(20*40+0)*channels]
	if center <= edge {
		t.Fatalf("center %v should exceed edge %v", center, edge)
	}
}

func TestCompositionReinforcesEdges(t *testing.T) {
	p := DefaultParams().Composition
	p.FocusWeight = 0
	p.FocusBase = 1
	in := NewFrame(16, 16)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			i := (y*16 + x) * channels
			in.Pix[i], in.Pix[i+1], in.Pix[i+2] = 0.5, 0.5, 0.5
		}
	}
	out, err := NewComposition(p).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	onEdge := out.Pix[(8*16+8)*channels]
	if !near(onEdge, 0.5+p.EdgeWeight, 1e-5) {
		t.Fatalf("edge pixel = %v, want %v", onEdge, 0.5+p.EdgeWeight)
	}
	if flat := out.Pix[(8*16+14)*channels]; !near(flat, 0.5, 1e-5) {
		t.Fatalf("flat pixel = %v, want 0.5", flat)
	}
}

func TestColorGradingHueShiftWraps(t *testing.T) {
	// Hue 350 degrees: a shift of 16 lands on 6 degrees, not a clamp at 360.
	in := Frame{Width: 1, Height: 1, Pix: []float32{1.0 / 6, 0, 1}}
	out, err := NewColorGrading(DefaultParams().ColorGrading).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	b, g, r := out.Pix[0], out.Pix[1], out.Pix[2]
	if r != 1 || b > 0.02 || g < 0.08 || g > 0.12 {
		t.Fatalf("bgr = (%v, %v, %v), want ~(0, 0.1, 1)", b, g, r)
	}
}

func TestColorGradingSplitTone(t *testing.T) {
	p := DefaultParams().ColorGrading
	p.Saturation, p.Value, p.HueShift = 1, 1, 0
	in := Frame{Width: 1, Height: 1, Pix: []float32{0.2, 0.4, 0.8}}
	out, err := NewColorGrading(p).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Pix[0] >= 0.2 {
		t.Fatalf("blue below pivot should darken, got %v", out.Pix[0])
	}
	if out.Pix[2] <= 0.8 {
		t.Fatalf("red above pivot should brighten, got %v", out.Pix[2])
	}
}

func TestQuantizingStagesEmitByteLevels(t *testing.T) {
	p := DefaultParams()
	in := randomFrame(t, 9, 9, 42)
	for _, st := range []Stage{NewColorGrading(p.ColorGrading), NewPolish(p.Polish)} {
		out, err := st.Apply(in)
		if err != nil {
			t.Fatalf("%s: %v", st.Name(), err)
		}
		if maxAbsDiff(out, Quantize(out)) > 1e-6 {
			t.Fatalf("%s output is not 8-bit quantized", st.Name())
		}
	}
}

func TestDetailKeepsFlatRegions(t *testing.T) {
	in := uniformFrame(10, 10, 0.3)
	out, err := NewDetail(DefaultParams().Detail).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d := maxAbsDiff(in, out); d > 1e-4 {
		t.Fatalf("flat region changed by %v", d)
	}
}

func TestDetailTextureBlursTheInput(t *testing.T) {
	in := randomFrame(t, 12, 12, 21)
	p := DetailParams{SharpenWeight: 1, TextureSigma: 1.5, TextureWeight: 1}
	out, err := NewDetail(p).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// With full texture weight the result is the soft copy alone, which
	// must come from the unsharpened input.
	want, err := gaussianBlur(in, p.TextureSigma)
	if err != nil {
		t.Fatalf("gaussianBlur: %v", err)
	}
	if d := maxAbsDiff(want, out); d > 1e-5 {
		t.Fatalf("texture layer differs from blurred input by %v", d)
	}
}

func TestPolishLiftsMidtones(t *testing.T) {
	in := uniformFrame(8, 8, 0.5)
	out, err := NewPolish(DefaultParams().Polish).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := float32(to8(0.5*1.05+5.0/255)) / 255
	if !near(out.Pix[0], want, 1e-6) {
		t.Fatalf("polish = %v, want %v", out.Pix[0], want)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	p := DefaultParams()
	p.Lighting.VignetteFloor = 2
	p.Detail.TextureSigma = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
