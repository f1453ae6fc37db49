package domain

import (
	"fmt"
	"strings"
	"time"
)

// SavedPrompt is an instruction a user kept for reuse.
type SavedPrompt struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	PromptText string    `json:"prompt_text"`
	StyleType  string    `json:"style_type"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PromptPatch carries the fields of a partial prompt update. Nil fields
// are left unchanged.
type PromptPatch struct {
	Title      *string `json:"title"`
	PromptText *string `json:"prompt_text"`
	StyleType  *string `json:"style_type"`
	IsFavorite *bool   `json:"is_favorite"`
}

const (
	maxPromptTitle = 200
	maxPromptText  = 4000
)

// Validate normalizes and checks a prompt before it is stored.
func (p *SavedPrompt) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	p.PromptText = strings.TrimSpace(p.PromptText)
	p.StyleType = strings.TrimSpace(p.StyleType)
	if p.StyleType == "" {
		p.StyleType = "custom"
	}
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidPrompt)
	case p.PromptText == "":
		return fmt.Errorf("%w: prompt_text is required", ErrInvalidPrompt)
	case len(p.Title) > maxPromptTitle:
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidPrompt, maxPromptTitle)
	case len(p.PromptText) > maxPromptText:
		return fmt.Errorf("%w: prompt_text exceeds %d characters", ErrInvalidPrompt, maxPromptText)
	}
	return nil
}

// Apply merges a patch into p.
func (p *SavedPrompt) Apply(patch PromptPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.PromptText != nil {
		p.PromptText = *patch.PromptText
	}
	if patch.StyleType != nil {
		p.StyleType = *patch.StyleType
	}
	if patch.IsFavorite != nil {
		p.IsFavorite = *patch.IsFavorite
	}
}
