package cinematic

import (
	"math"

	"gocv.io/x/gocv"
)

// Color conversions keep every representation inside [0,1] so the same
// Frame type carries all of them:
//
//	HSV: H/360, S, V
//	Lab: L/100, (a+128)/255, (b+128)/255

// BGRToHSV converts a BGR frame to HSV.
func BGRToHSV(f Frame) (Frame, error) {
	out, err := mapFrame(Clamp(f), func(src gocv.Mat, dst *gocv.Mat) {
		gocv.CvtColor(src, dst, gocv.ColorBGRToHSV)
	})
	if err != nil {
		return Frame{}, err
	}
	for i := 0; i+2 < len(out.Pix); i += channels {
		out.Pix[i] = wrap01(out.Pix[i] / 360)
		out.Pix[i+1] = clamp01(out.Pix[i+1])
		out.Pix[i+2] = clamp01(out.Pix[i+2])
	}
	return out, nil
}

// HSVToBGR converts an HSV frame back to BGR. Hue wraps, S and V clamp.
func HSVToBGR(f Frame) (Frame, error) {
	in := NewFrame(f.Width, f.Height)
	if !f.sameShape(in) {
		return Frame{}, ErrMalformedFrame
	}
	for i := 0; i+2 < len(f.Pix); i += channels {
		in.Pix[i] = wrap01(f.Pix[i]) * 360
		in.Pix[i+1] = clamp01(f.Pix[i+1])
		in.Pix[i+2] = clamp01(f.Pix[i+2])
	}
	out, err := mapFrame(in, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.CvtColor(src, dst, gocv.ColorHSVToBGR)
	})
	if err != nil {
		return Frame{}, err
	}
	clampInPlace(out.Pix)
	return out, nil
}

// BGRToLab converts a BGR (sRGB encoded) frame to CIE Lab.
func BGRToLab(f Frame) (Frame, error) {
	out, err := mapFrame(Clamp(f), func(src gocv.Mat, dst *gocv.Mat) {
		gocv.CvtColor(src, dst, gocv.ColorBGRToLab)
	})
	if err != nil {
		return Frame{}, err
	}
	for i := 0; i+2 < len(out.Pix); i += channels {
		out.Pix[i] = clamp01(out.Pix[i] / 100)
		out.Pix[i+1] = clamp01((out.Pix[i+1] + 128) / 255)
		out.Pix[i+2] = clamp01((out.Pix[i+2] + 128) / 255)
	}
	return out, nil
}

// LabToBGR converts a Lab frame back to BGR.
func LabToBGR(f Frame) (Frame, error) {
	in := NewFrame(f.Width, f.Height)
	if !f.sameShape(in) {
		return Frame{}, ErrMalformedFrame
	}
	for i := 0; i+2 < len(f.Pix); i += channels {
		in.Pix[i] = clamp01(f.Pix[i]) * 100
		in.Pix[i+1] = clamp01(f.Pix[i+1])*255 - 128
		in.Pix[i+2] = clamp01(f.Pix[i+2])*255 - 128
	}
	out, err := mapFrame(in, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.CvtColor(src, dst, gocv.ColorLabToBGR)
	})
	if err != nil {
		return Frame{}, err
	}
	clampInPlace(out.Pix)
	return out, nil
}

// Scale returns f*scale+offset per channel, clamped to [0,1].
func Scale(f Frame, scale, offset [3]float32) Frame {
	out := NewFrame(f.Width, f.Height)
	for i := 0; i+2 < len(f.Pix); i += channels {
		for c := 0; c < channels; c++ {
			out.Pix[i+c] = clamp01(f.Pix[i+c]*scale[c] + offset[c])
		}
	}
	return out
}

// AddWeighted returns alpha*a + beta*b + gamma, clamped. The frames must
// share a shape.
func AddWeighted(a Frame, alpha float32, b Frame, beta, gamma float32) (Frame, error) {
	return addWeighted(a, alpha, b, beta, gamma)
}

// Clamp returns a copy of f with every sample inside [0,1].
func Clamp(f Frame) Frame {
	out := f.Clone()
	clampInPlace(out.Pix)
	return out
}

// Quantize snaps every sample to the nearest 8-bit level.
func Quantize(f Frame) Frame {
	out := NewFrame(f.Width, f.Height)
	for i, v := range f.Pix {
		out.Pix[i] = float32(to8(v)) / 255
	}
	return out
}

func clampInPlace(pix []float32) {
	for i, v := range pix {
		pix[i] = clamp01(v)
	}
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func wrap01(v float32) float32 {
	if v != v {
		return 0
	}
	v = float32(math.Mod(float64(v), 1))
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}
