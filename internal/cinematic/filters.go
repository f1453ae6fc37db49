package cinematic

import (
	"image"

	"gocv.io/x/gocv"
)

// gaussianBlur blurs every channel; the kernel size follows from sigma.
func gaussianBlur(f Frame, sigma float64) (Frame, error) {
	return mapFrame(f, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Pt(0, 0), sigma, sigma, gocv.BorderReflect101)
	})
}

// convolve3x3 applies k (row-major) to each channel. The result is not
// clamped; callers blend it first.
func convolve3x3(f Frame, k [9]float32) (Frame, error) {
	kernel, err := kernelMat(k)
	if err != nil {
		return Frame{}, err
	}
	defer kernel.Close()
	return mapFrame(f, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Filter2D(src, dst, gocv.MatTypeCV32F, kernel, image.Pt(-1, -1), 0, gocv.BorderReflect101)
	})
}

// bilateral is an edge-preserving smoothing filter. sigmaColor is given in
// 8-bit units and rescaled to the normalized samples OpenCV sees.
func bilateral(f Frame, diameter int, sigmaColor, sigmaSpace float64) (Frame, error) {
	if diameter/2 < 1 || sigmaColor <= 0 || sigmaSpace <= 0 {
		return f.Clone(), nil
	}
	return mapFrame(f, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.BilateralFilter(src, dst, diameter, sigmaColor/255, sigmaSpace)
	})
}

// addWeighted returns alpha*a + beta*b + gamma, clamped to [0,1].
func addWeighted(a Frame, alpha float32, b Frame, beta, gamma float32) (Frame, error) {
	if !a.sameShape(b) {
		return Frame{}, ErrMalformedFrame
	}
	other, err := frameMat(b)
	if err != nil {
		return Frame{}, err
	}
	defer other.Close()
	out, err := mapFrame(a, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.AddWeighted(src, float64(alpha), other, float64(beta), float64(gamma), dst)
	})
	if err != nil {
		return Frame{}, err
	}
	clampInPlace(out.Pix)
	return out, nil
}

// clahe equalizes a single [0,1] plane on a tile grid. OpenCV's CLAHE works
// on 8-bit data, so the plane is quantized on the way in.
func clahe(plane []float32, w, h int, clipLimit float64, gridX, gridY int) ([]float32, error) {
	src, err := planeMat(plane, w, h)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	u8 := gocv.NewMat()
	defer u8.Close()
	src.ConvertToWithParams(&u8, gocv.MatTypeCV8U, 255, 0)

	eq := gocv.NewMat()
	defer eq.Close()
	c := gocv.NewCLAHEWithParams(clipLimit, image.Pt(min(gridX, w), min(gridY, h)))
	defer c.Close()
	c.Apply(u8, &eq)

	back := gocv.NewMat()
	defer back.Close()
	eq.ConvertToWithParams(&back, gocv.MatTypeCV32F, 1.0/255, 0)
	return matPlane(back)
}

// sobelMagnitude returns the gradient magnitude of a single plane.
func sobelMagnitude(plane []float32, w, h int) ([]float32, error) {
	src, err := planeMat(plane, w, h)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gx, gy, mag := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer gx.Close()
	defer gy.Close()
	defer mag.Close()
	gocv.Sobel(src, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderReflect101)
	gocv.Sobel(src, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderReflect101)
	gocv.Magnitude(gx, gy, &mag)
	return matPlane(mag)
}

// edgeMask marks gradients above threshold and grows them by one pixel.
func edgeMask(grad []float32, w, h int, threshold float32) ([]float32, error) {
	src, err := planeMat(grad, w, h)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(src, &bin, threshold, 1, gocv.ThresholdBinary)
	return dilateMat(bin)
}

// dilate3x3 grows a binary plane by one pixel in every direction.
func dilate3x3(mask []float32, w, h int) ([]float32, error) {
	src, err := planeMat(mask, w, h)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return dilateMat(src)
}

func dilateMat(src gocv.Mat) ([]float32, error) {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)
	return matPlane(dst)
}

// grayPlane returns the BT.601 luma of f as a single plane.
func grayPlane(f Frame) ([]float32, error) {
	src, err := frameMat(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return matPlane(gray)
}
