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

// ProcessedImageRepositoryPG implements domain.ProcessedImageRepository.
type ProcessedImageRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProcessedImageRepository(sql infra.SQLExecutor) *ProcessedImageRepositoryPG {
	return &ProcessedImageRepositoryPG{sql: sql}
}

// Create inserts img, assigning an id when empty, and fills CreatedAt.
func (r *ProcessedImageRepositoryPG) Create(ctx context.Context, img *domain.ProcessedImage) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	return r.sql.QueryRow(ctx, sqlinline.QInsertProcessedImage,
		img.ID,
		img.UserID,
		img.Filename,
		img.OriginalFilename,
		img.Style,
		string(img.Engine),
		img.Width,
		img.Height,
		img.CameraMake,
		img.CameraModel,
		img.Country,
	).Scan(&img.CreatedAt)
}

// ListByUser returns the user's images, newest first.
func (r *ProcessedImageRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ProcessedImage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListProcessedImagesByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProcessedImage, 0)
	for rows.Next() {
		img, err := scanProcessedImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

func (r *ProcessedImageRepositoryPG) GetByID(ctx context.Context, userID, id string) (*domain.ProcessedImage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	img, err := scanProcessedImage(r.sql.QueryRow(ctx, sqlinline.QSelectProcessedImage, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return img, err
}

func scanProcessedImage(row pgx.Row) (*domain.ProcessedImage, error) {
	var (
		img    domain.ProcessedImage
		engine string
	)
	if err := row.Scan(
		&img.ID,
		&img.UserID,
		&img.Filename,
		&img.OriginalFilename,
		&img.Style,
		&engine,
		&img.Width,
		&img.Height,
		&img.CameraMake,
		&img.CameraModel,
		&img.Country,
		&img.CreatedAt,
	); err != nil {
		return nil, err
	}
	img.Engine = domain.Engine(engine)
	return &img, nil
}

var _ domain.ProcessedImageRepository = (*ProcessedImageRepositoryPG)(nil)
