package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"styleai/internal/domain"
	"styleai/internal/infra"
	"styleai/internal/sqlinline"
)

// PromptRepositoryPG implements domain.PromptRepository. Every query is
// scoped by user id so one user can never see another's prompts.
type PromptRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPromptRepository(sql infra.SQLExecutor) *PromptRepositoryPG {
	return &PromptRepositoryPG{sql: sql}
}

func (r *PromptRepositoryPG) Create(ctx context.Context, p *domain.SavedPrompt) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.sql.QueryRow(ctx, sqlinline.QInsertSavedPrompt,
		p.ID, p.UserID, p.Title, p.PromptText, p.StyleType, p.IsFavorite,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// ListByUser returns favorites first, then newest first.
func (r *PromptRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.SavedPrompt, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListSavedPromptsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SavedPrompt, 0)
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PromptRepositoryPG) GetByID(ctx context.Context, userID, id string) (*domain.SavedPrompt, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := scanPrompt(r.sql.QueryRow(ctx, sqlinline.QSelectSavedPrompt, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Update writes every mutable field of p.
func (r *PromptRepositoryPG) Update(ctx context.Context, p *domain.SavedPrompt) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.sql.QueryRow(ctx, sqlinline.QUpdateSavedPrompt,
		p.ID, p.UserID, p.Title, p.PromptText, p.StyleType, p.IsFavorite,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *PromptRepositoryPG) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteSavedPrompt, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPrompt(row pgx.Row) (*domain.SavedPrompt, error) {
	var p domain.SavedPrompt
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.PromptText, &p.StyleType, &p.IsFavorite, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ domain.PromptRepository = (*PromptRepositoryPG)(nil)
