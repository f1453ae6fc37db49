package enhance

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"styleai/internal/domain"
)

const jpegQuality = 95

// DefaultMaxPixels bounds decoded images when Options.MaxPixels is unset.
// A small compressed upload can otherwise declare dimensions that need
// gigabytes once decoded.
const DefaultMaxPixels = 40_000_000

type decoded struct {
	img    image.Image
	format string
}

// decode checks the declared dimensions against maxPixels before decoding
// any pixel data. maxPixels <= 0 disables the check.
func decode(data []byte, maxPixels int) (decoded, error) {
	if len(data) == 0 {
		return decoded{}, fmt.Errorf("%w: empty payload", domain.ErrInvalidImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return decoded{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return decoded{}, fmt.Errorf("%w: zero-sized image", domain.ErrInvalidImage)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return decoded{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return decoded{}, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return decoded{}, fmt.Errorf("%w: zero-sized image", domain.ErrInvalidImage)
	}
	return decoded{img: img, format: format}, nil
}

// cameraInfo returns the EXIF make and model, if any. Missing or unreadable
// metadata is not an error.
func cameraInfo(data []byte) (cameraMake, cameraModel string) {
	defer func() {
		// imagemeta can panic on truncated segments.
		if recover() != nil {
			cameraMake, cameraModel = "", ""
		}
	}()
	meta, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(meta.Make), strings.TrimSpace(meta.Model)
}

// encode writes PNG for PNG inputs and JPEG otherwise.
func encode(img image.Image, sourceFormat string) (data []byte, contentType, ext string, err error) {
	var buf bytes.Buffer
	if sourceFormat == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", "png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", "jpg", nil
}

// fitTo resamples src to exactly the given bounds with Catmull-Rom.
func fitTo(src image.Image, bounds image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if src.Bounds().Size() == bounds.Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// blendWeights picks how much of the generated image survives the blend.
// The remainder comes from the original.
func blendWeights(instruction string) (generated, original float64) {
	lower := strings.ToLower(instruction)
	switch {
	case strings.Contains(lower, "preserve"), strings.Contains(lower, "keep"):
		return 0.5, 0.5
	case strings.Contains(lower, "enhance"), strings.Contains(lower, "improve"):
		return 0.8, 0.2
	default:
		return 0.7, 0.3
	}
}

// blend mixes two same-sized opaque images channel by channel.
func blend(generated, original *image.NRGBA, wg, wo float64) *image.NRGBA {
	out := image.NewNRGBA(original.Rect)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(generated.Pix[i+c])*wg + float64(original.Pix[i+c])*wo
			out.Pix[i+c] = uint8(math.Min(255, math.Max(0, math.Round(v))))
		}
		out.Pix[i+3] = 0xff
	}
	return out
}
