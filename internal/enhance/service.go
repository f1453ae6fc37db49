// Package enhance turns uploaded bytes into an enhanced image using either
// the local cinematic pipeline or a generative model with a local fallback.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"styleai/internal/cinematic"
	"styleai/internal/domain"
	imageprovider "styleai/internal/providers/image"
	"styleai/internal/ratelimit"
)

// Fallback reasons reported on an Outcome.
const (
	FallbackRateLimited   = "rate_limited"
	FallbackUnavailable   = "generator_unavailable"
	FallbackProviderLimit = "provider_rate_limited"
	FallbackNoImage       = "no_image_payload"
	FallbackProviderError = "provider_error"
	FallbackBadOutput     = "undecodable_output"
)

type Request struct {
	Image []byte
	Style string
	// Mode applies to the cinematic style. Empty selects prompt-guided when an
	// instruction is present and comprehensive otherwise.
	Mode        cinematic.Mode
	Instruction string
	RequestID   string
}

type Outcome struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	Engine      domain.Engine
	Model       string
	Fallback    string
	Mode        cinematic.Mode
	Stages      []cinematic.StageResult
	CameraMake  string
	CameraModel string
	Took        time.Duration
}

type Options struct {
	Pipeline    *cinematic.Pipeline
	Generator   imageprovider.Generator
	Limiter     *ratelimit.Limiter
	Concurrency int
	// MaxPixels caps decoded width*height; zero means DefaultMaxPixels and a
	// negative value disables the cap.
	MaxPixels int
	Logger    zerolog.Logger
	Tracer    trace.Tracer
}

type Service struct {
	pipeline  *cinematic.Pipeline
	generator imageprovider.Generator
	limiter   *ratelimit.Limiter
	slots     *semaphore.Weighted
	maxPixels int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

func NewService(opts Options) *Service {
	p := opts.Pipeline
	if p == nil {
		p = cinematic.New(cinematic.DefaultParams(), cinematic.WithLogger(opts.Logger))
	}
	n := opts.Concurrency
	if n < 1 {
		n = 1
	}
	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = DefaultMaxPixels
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("styleai/internal/enhance")
	}
	return &Service{
		pipeline:  p,
		generator: opts.Generator,
		limiter:   opts.Limiter,
		slots:     semaphore.NewWeighted(int64(n)),
		maxPixels: maxPixels,
		logger:    opts.Logger,
		tracer:    tracer,
	}
}

// Process decodes, enhances and re-encodes one image.
func (s *Service) Process(ctx context.Context, req Request) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "enhance.Process", trace.WithAttributes(
		attribute.String("enhance.style", req.Style),
		attribute.Int("enhance.input_bytes", len(req.Image)),
	))
	defer span.End()

	out, err := s.process(ctx, span, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("enhance.engine", string(out.Engine)),
		attribute.String("enhance.fallback", out.Fallback),
		attribute.Int("enhance.width", out.Width),
		attribute.Int("enhance.height", out.Height),
	)
	return out, nil
}

func (s *Service) process(ctx context.Context, span trace.Span, req Request) (*Outcome, error) {
	started := time.Now()
	if _, ok := domain.LookupStyle(req.Style); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStyle, req.Style)
	}
	src, err := decode(req.Image, s.maxPixels)
	if err != nil {
		return nil, err
	}
	cameraMake, cameraModel := cameraInfo(req.Image)

	var (
		result image.Image
		out    = &Outcome{CameraMake: cameraMake, CameraModel: cameraModel}
	)
	switch req.Style {
	case domain.StyleEnhance:
		result, err = s.generative(ctx, span, req, src, out)
	default:
		mode := req.Mode
		if mode == "" {
			mode = cinematic.ModeComprehensive
			if strings.TrimSpace(req.Instruction) != "" {
				mode = cinematic.ModePromptGuided
			}
		}
		result, err = s.local(ctx, span, src.img, mode, req.Instruction, out)
	}
	if err != nil {
		return nil, err
	}

	out.Data, out.ContentType, out.Ext, err = encode(result, src.format)
	if err != nil {
		return nil, err
	}
	b := result.Bounds()
	out.Width, out.Height = b.Dx(), b.Dy()
	out.Took = time.Since(started)

	s.logger.Info().
		Str("request_id", req.RequestID).
		Str("style", req.Style).
		Str("engine", string(out.Engine)).
		Str("fallback", out.Fallback).
		Int("width", out.Width).
		Int("height", out.Height).
		Dur("took", out.Took).
		Msg("enhance: processed image")
	return out, nil
}

// local runs the cinematic pipeline inside a concurrency slot.
func (s *Service) local(ctx context.Context, span trace.Span, img image.Image, mode cinematic.Mode, instruction string, out *Outcome) (image.Image, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.slots.Release(1)

	res, err := s.pipeline.Run(cinematic.FromImage(img), mode, instruction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	for _, st := range res.Stages {
		attrs := []attribute.KeyValue{
			attribute.String("stage", string(st.Stage)),
			attribute.String("status", string(st.Status)),
		}
		if st.Err != nil {
			attrs = append(attrs, attribute.String("error", st.Err.Error()))
		}
		span.AddEvent("pipeline.stage", trace.WithAttributes(attrs...))
	}
	out.Engine = domain.EngineCinematic
	out.Mode = res.Mode
	out.Stages = res.Stages
	return res.Raster.Image(), nil
}

// generative asks the model for an edit and falls back to the comprehensive
// local pipeline on any failure other than cancellation.
func (s *Service) generative(ctx context.Context, span trace.Span, req Request, src decoded, out *Outcome) (image.Image, error) {
	fallback := func(reason string, cause error) (image.Image, error) {
		ev := s.logger.Warn().Str("request_id", req.RequestID).Str("reason", reason)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("enhance: generative fallback")
		span.AddEvent("enhance.fallback", trace.WithAttributes(attribute.String("reason", reason)))
		out.Fallback = reason
		return s.local(ctx, span, src.img, cinematic.ModeComprehensive, "", out)
	}

	if s.generator == nil {
		return fallback(FallbackUnavailable, nil)
	}
	if s.limiter != nil && !s.limiter.Take() {
		return fallback(FallbackRateLimited, nil)
	}

	asset, err := s.generator.Generate(ctx, imageprovider.GenerateRequest{
		Image:       req.Image,
		MIME:        "image/" + src.format,
		Instruction: req.Instruction,
		RequestID:   req.RequestID,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			return fallback(FallbackProviderLimit, err)
		case errors.Is(err, domain.ErrNoImagePayload):
			return fallback(FallbackNoImage, err)
		default:
			return fallback(FallbackProviderError, err)
		}
	}

	gen, err := decode(asset.Data, s.maxPixels)
	if err != nil {
		return fallback(FallbackBadOutput, err)
	}
	bounds := src.img.Bounds()
	if gen.img.Bounds().Size() != bounds.Size() {
		s.logger.Debug().
			Str("request_id", req.RequestID).
			Int("from_w", gen.img.Bounds().Dx()).Int("from_h", gen.img.Bounds().Dy()).
			Int("to_w", bounds.Dx()).Int("to_h", bounds.Dy()).
			Msg("enhance: resizing generated image to source dimensions")
	}
	wg, wo := blendWeights(req.Instruction)
	out.Engine = domain.EngineGenerative
	out.Model = asset.Model
	return blend(fitTo(gen.img, bounds), fitTo(src.img, bounds), wg, wo), nil
}
