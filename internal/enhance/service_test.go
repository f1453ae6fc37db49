package enhance

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	"styleai/internal/cinematic"
	"styleai/internal/domain"
	imageprovider "styleai/internal/providers/image"
	"styleai/internal/ratelimit"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 90, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

type fakeGenerator struct {
	calls int
	got   imageprovider.GenerateRequest
	asset *imageprovider.Asset
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, req imageprovider.GenerateRequest) (*imageprovider.Asset, error) {
	f.calls++
	f.got = req
	return f.asset, f.err
}

func newService(gen imageprovider.Generator, limiter *ratelimit.Limiter) *Service {
	opts := Options{Limiter: limiter, Concurrency: 2, Logger: zerolog.Nop()}
	if gen != nil {
		opts.Generator = gen
	}
	return NewService(opts)
}

func TestProcessCinematic(t *testing.T) {
	svc := newService(nil, nil)
	tests := []struct {
		name        string
		instruction string
		mode        cinematic.Mode
		wantMode    cinematic.Mode
	}{
		{name: "no instruction", wantMode: cinematic.ModeComprehensive},
		{name: "instruction implies guided", instruction: "warmer mood", wantMode: cinematic.ModePromptGuided},
		{name: "explicit mode wins", instruction: "warmer mood", mode: cinematic.ModeComprehensive, wantMode: cinematic.ModeComprehensive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := svc.Process(context.Background(), Request{
				Image:       pngBytes(t, gradient(32, 20)),
				Style:       domain.StyleCinematic,
				Mode:        tc.mode,
				Instruction: tc.instruction,
			})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if out.Engine != domain.EngineCinematic || out.Mode != tc.wantMode {
				t.Fatalf("engine=%s mode=%s", out.Engine, out.Mode)
			}
			if out.Width != 32 || out.Height != 20 {
				t.Fatalf("dimensions = %dx%d", out.Width, out.Height)
			}
			if out.ContentType != "image/png" || out.Ext != "png" {
				t.Fatalf("content type = %s/%s", out.ContentType, out.Ext)
			}
			if len(out.Stages) != len(cinematic.CanonicalOrder) {
				t.Fatalf("stages = %d", len(out.Stages))
			}
			if _, err := png.Decode(bytes.NewReader(out.Data)); err != nil {
				t.Fatalf("output is not a png: %v", err)
			}
		})
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	svc := newService(nil, nil)
	if _, err := svc.Process(context.Background(), Request{Image: []byte("not an image"), Style: domain.StyleCinematic}); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
	if _, err := svc.Process(context.Background(), Request{Image: pngBytes(t, gradient(4, 4)), Style: "watercolor"}); !errors.Is(err, domain.ErrUnsupportedStyle) {
		t.Fatalf("err = %v, want ErrUnsupportedStyle", err)
	}
}

func TestProcessGenerativeResizesAndBlends(t *testing.T) {
	gen := &fakeGenerator{asset: &imageprovider.Asset{
		Data:  pngBytes(t, gradient(64, 40)),
		Model: "gemini-test",
	}}
	limiter := ratelimit.New(ratelimit.Limits{PerMinute: 5, PerDay: 5}, nil)
	svc := newService(gen, limiter)

	out, err := svc.Process(context.Background(), Request{
		Image:       jpegBytes(t, gradient(30, 18)),
		Style:       domain.StyleEnhance,
		Instruction: "keep the colors",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Engine != domain.EngineGenerative || out.Model != "gemini-test" || out.Fallback != "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Width != 30 || out.Height != 18 || out.ContentType != "image/jpeg" {
		t.Fatalf("got %dx%d %s", out.Width, out.Height, out.ContentType)
	}
	if gen.got.MIME != "image/jpeg" || gen.got.Instruction != "keep the colors" {
		t.Fatalf("generator request %+v", gen.got)
	}
	if s := limiter.Status(); s.MinuteRequests != 1 {
		t.Fatalf("limiter not recorded: %+v", s)
	}
}

func TestProcessGenerativeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "provider limit", err: errors.Join(domain.ErrRateLimited, errors.New("429")), want: FallbackProviderLimit},
		{name: "no payload", err: domain.ErrNoImagePayload, want: FallbackNoImage},
		{name: "generic", err: errors.New("boom"), want: FallbackProviderError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tc.err}
			out, err := newService(gen, nil).Process(context.Background(), Request{
				Image: pngBytes(t, gradient(16, 16)),
				Style: domain.StyleEnhance,
			})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if out.Fallback != tc.want || out.Engine != domain.EngineCinematic {
				t.Fatalf("fallback=%q engine=%s", out.Fallback, out.Engine)
			}
			if out.Mode != cinematic.ModeComprehensive {
				t.Fatalf("fallback mode = %s", out.Mode)
			}
		})
	}

	t.Run("undecodable output", func(t *testing.T) {
		gen := &fakeGenerator{asset: &imageprovider.Asset{Data: []byte("garbage")}}
		out, err := newService(gen, nil).Process(context.Background(), Request{Image: pngBytes(t, gradient(8, 8)), Style: domain.StyleEnhance})
		if err != nil || out.Fallback != FallbackBadOutput {
			t.Fatalf("out=%+v err=%v", out, err)
		}
	})

	t.Run("no generator", func(t *testing.T) {
		out, err := newService(nil, nil).Process(context.Background(), Request{Image: pngBytes(t, gradient(8, 8)), Style: domain.StyleEnhance})
		if err != nil || out.Fallback != FallbackUnavailable {
			t.Fatalf("out=%+v err=%v", out, err)
		}
	})
}

func TestProcessLimiterDeniesBeforeCallingGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	limiter := ratelimit.New(ratelimit.Limits{PerMinute: 1, PerDay: 10}, nil)
	limiter.Record()

	out, err := newService(gen, limiter).Process(context.Background(), Request{Image: pngBytes(t, gradient(8, 8)), Style: domain.StyleEnhance})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator called %d times", gen.calls)
	}
	if out.Fallback != FallbackRateLimited {
		t.Fatalf("fallback = %q", out.Fallback)
	}
}

func TestProcessCancelledGeneratorIsNotMasked(t *testing.T) {
	gen := &fakeGenerator{err: context.Canceled}
	_, err := newService(gen, nil).Process(context.Background(), Request{Image: pngBytes(t, gradient(8, 8)), Style: domain.StyleEnhance})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcessWaitsForSlot(t *testing.T) {
	svc := NewService(Options{Concurrency: 1, Logger: zerolog.Nop()})
	if err := svc.slots.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer svc.slots.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Process(ctx, Request{Image: pngBytes(t, gradient(8, 8)), Style: domain.StyleCinematic}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
