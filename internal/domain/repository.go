package domain

import "context"

// ProcessedImageRepository persists enhancement records.
type ProcessedImageRepository interface {
	Create(ctx context.Context, img *ProcessedImage) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]ProcessedImage, error)
	GetByID(ctx context.Context, userID, id string) (*ProcessedImage, error)
}

// PromptRepository persists saved prompts.
type PromptRepository interface {
	Create(ctx context.Context, p *SavedPrompt) error
	ListByUser(ctx context.Context, userID string) ([]SavedPrompt, error)
	GetByID(ctx context.Context, userID, id string) (*SavedPrompt, error)
	Update(ctx context.Context, p *SavedPrompt) error
	Delete(ctx context.Context, userID, id string) error
}
