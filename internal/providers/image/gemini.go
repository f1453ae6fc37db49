// Package image adapts generative image models to the enhancement service.
package image

import (
	"context"
	"errors"
	"strings"

	"styleai/internal/domain"
	"styleai/internal/providers/genai"
)

// DefaultInstruction asks the model for a cinematic, story-driven edit that
// leaves identities untouched.
const DefaultInstruction = `Enhance this photo into a professionally shot cinematic image that tells the story already present in the scene.
Keep the emotions and atmosphere authentic. Refine skin tone, clarity and lighting without changing faces, expressions or identity.
Use cinematic lighting with soft highlights, meaningful shadows and controlled contrast. Grade color for mood, sharpen the details that matter and soften distractions.
Any change to posture, gaze or placement must be subtle and serve the narrative.`

type GenerateRequest struct {
	Image       []byte
	MIME        string
	Instruction string
	RequestID   string
}

// Asset is an edited image as returned by a provider.
type Asset struct {
	Data   []byte
	Format string
	Model  string
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Asset, error)
}

// editor is the subset of *genai.Client the generator needs.
type editor interface {
	EditImage(ctx context.Context, req genai.EditRequest) (*genai.Asset, error)
	Model() string
}

type GeminiGenerator struct {
	client editor
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate sends the request to Gemini. Provider failures are mapped onto
// domain errors so callers do not depend on the genai package.
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*Asset, error) {
	instruction := strings.TrimSpace(req.Instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}
	asset, err := g.client.EditImage(ctx, genai.EditRequest{
		Image:       req.Image,
		MIME:        req.MIME,
		Instruction: instruction,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &Asset{Data: asset.Data, Format: asset.Format, Model: g.client.Model()}, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, genai.ErrRateLimited):
		return errors.Join(domain.ErrRateLimited, err)
	case errors.Is(err, genai.ErrNoImagePayload):
		return errors.Join(domain.ErrNoImagePayload, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Join(domain.ErrProviderFailure, err)
	}
}

var _ Generator = (*GeminiGenerator)(nil)
