package cinematic

import (
	"fmt"

	"gocv.io/x/gocv"
)

// frameMat copies f into a new CV_32FC3 Mat. The caller closes it.
func frameMat(f Frame) (gocv.Mat, error) {
	if !f.shapeOK() {
		return gocv.Mat{}, ErrMalformedFrame
	}
	m := gocv.NewMatWithSize(f.Height, f.Width, gocv.MatTypeCV32FC3)
	dst, err := m.DataPtrFloat32()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("cinematic: mat buffer: %w", err)
	}
	copy(dst, f.Pix)
	return m, nil
}

// matFrame copies a CV_32FC3 Mat back into Go memory.
func matFrame(m gocv.Mat) (Frame, error) {
	if m.Empty() || m.Type() != gocv.MatTypeCV32FC3 {
		return Frame{}, fmt.Errorf("%w: unexpected mat type %v", ErrMalformedFrame, m.Type())
	}
	src, err := m.DataPtrFloat32()
	if err != nil {
		return Frame{}, fmt.Errorf("cinematic: mat buffer: %w", err)
	}
	out := NewFrame(m.Cols(), m.Rows())
	if len(src) != len(out.Pix) {
		return Frame{}, ErrMalformedFrame
	}
	copy(out.Pix, src)
	return out, nil
}

// planeMat copies a single-channel plane into a new CV_32F Mat.
func planeMat(plane []float32, w, h int) (gocv.Mat, error) {
	if w <= 0 || h <= 0 || len(plane) != w*h {
		return gocv.Mat{}, ErrMalformedFrame
	}
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	dst, err := m.DataPtrFloat32()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("cinematic: mat buffer: %w", err)
	}
	copy(dst, plane)
	return m, nil
}

func matPlane(m gocv.Mat) ([]float32, error) {
	if m.Empty() || m.Type() != gocv.MatTypeCV32F {
		return nil, fmt.Errorf("%w: unexpected mat type %v", ErrMalformedFrame, m.Type())
	}
	src, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("cinematic: mat buffer: %w", err)
	}
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

// kernelMat builds a 3x3 CV_32F kernel from row-major weights.
func kernelMat(k [9]float32) (gocv.Mat, error) {
	return planeMat(k[:], 3, 3)
}

// mapFrame runs op over f through OpenCV and returns the result as a Frame.
func mapFrame(f Frame, op func(src gocv.Mat, dst *gocv.Mat)) (Frame, error) {
	src, err := frameMat(f)
	if err != nil {
		return Frame{}, err
	}
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	op(src, &dst)
	return matFrame(dst)
}
