// Package cinematic implements the deterministic enhancement pipeline used
// both as the "cinematic" style and as the fallback when the generative
// model cannot produce an image.
//
// Images travel between stages as Frames: BGR interleaved float32 samples
// normalized to [0,1]. Rasters are the 8-bit form used at the package
// boundary.
package cinematic

import (
	"image"
	"image/color"
	"math"
)

const channels = 3

// Raster is an 8-bit, 3-channel BGR image.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) Raster {
	return Raster{Width: width, Height: height, Pix: make([]uint8, width*height*channels)}
}

// Valid reports whether the raster holds a non-empty image whose buffer
// matches its dimensions.
func (r Raster) Valid() bool {
	return r.Width > 0 && r.Height > 0 && len(r.Pix) == r.Width*r.Height*channels
}

// At returns the BGR sample at (x, y).
func (r Raster) At(x, y int) (b, g, red uint8) {
	i := (y*r.Width + x) * channels
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Frame converts the raster to normalized floating point.
func (r Raster) Frame() Frame {
	f := Frame{Width: r.Width, Height: r.Height, Pix: make([]float32, len(r.Pix))}
	for i, v := range r.Pix {
		f.Pix[i] = float32(v) / 255
	}
	return f
}

// Image returns the raster as an RGBA image for encoding.
func (r Raster) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			b, g, red := r.At(x, y)
			o := img.PixOffset(x, y)
			img.Pix[o] = red
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 0xff
		}
	}
	return img
}

// FromImage converts any decoded image to a BGR raster. Alpha is dropped.
func FromImage(src image.Image) Raster {
	bounds := src.Bounds()
	r := NewRaster(bounds.Dx(), bounds.Dy())
	if nrgba, ok := src.(*image.NRGBA); ok {
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				o := nrgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				i := (y*r.Width + x) * channels
				r.Pix[i] = nrgba.Pix[o+2]
				r.Pix[i+1] = nrgba.Pix[o+1]
				r.Pix[i+2] = nrgba.Pix[o]
			}
		}
		return r
	}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*r.Width + x) * channels
			r.Pix[i] = c.B
			r.Pix[i+1] = c.G
			r.Pix[i+2] = c.R
		}
	}
	return r
}

// Frame is a BGR image with float32 samples in [0,1]. Stages never mutate
// the Frame they receive.
type Frame struct {
	Width  int
	Height int
	Pix    []float32
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: make([]float32, width*height*channels)}
}

func (f Frame) shapeOK() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*channels
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := Frame{Width: f.Width, Height: f.Height, Pix: make([]float32, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

func (f Frame) sameShape(o Frame) bool {
	return f.Width == o.Width && f.Height == o.Height && len(f.Pix) == len(o.Pix)
}

// Raster quantizes the frame to 8 bits with rounding and clamping.
func (f Frame) Raster() Raster {
	r := Raster{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	for i, v := range f.Pix {
		r.Pix[i] = to8(v)
	}
	return r
}

func to8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// finite reports whether every sample is a finite number.
func (f Frame) finite() bool {
	for _, v := range f.Pix {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// normalize validates a frame entering a stage and returns a clamped copy.
// NaN samples become 0.
func normalize(f Frame) (Frame, error) {
	if !f.shapeOK() {
		return Frame{}, ErrMalformedFrame
	}
	out := f.Clone()
	clampInPlace(out.Pix)
	return out, nil
}
