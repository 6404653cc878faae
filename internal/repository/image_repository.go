package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pocketideas/api/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(ctx context.Context, image models.ItemImage) error {
	const query = `
		INSERT INTO item_images (
			id, item_id, storage_key, url, content_type, byte_size,
			width, height, sort_order, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		image.ID,
		image.ItemID,
		image.StorageKey,
		image.URL,
		image.ContentType,
		image.ByteSize,
		image.Width,
		image.Height,
		image.SortOrder,
	)
	return err
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.ItemImage, error) {
	const query = `
		SELECT id, item_id, storage_key, url, content_type, byte_size,
		       width, height, sort_order, created_at
		FROM item_images WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	image, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ItemImage{}, ErrImageNotFound
		}
		return models.ItemImage{}, err
	}
	return image, nil
}

func (r *ImageRepository) ListByItem(ctx context.Context, itemID string) ([]models.ItemImage, error) {
	const query = `
		SELECT id, item_id, storage_key, url, content_type, byte_size,
		       width, height, sort_order, created_at
		FROM item_images
		WHERE item_id = $1
		ORDER BY sort_order ASC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ItemImage
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *ImageRepository) UpdateSortOrder(ctx context.Context, id string, sortOrder int) error {
	const query = `UPDATE item_images SET sort_order = $2 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, sortOrder)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM item_images WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) DeleteByItem(ctx context.Context, itemID string) error {
	const query = `DELETE FROM item_images WHERE item_id = $1`
	_, err := r.pool.Exec(ctx, query, itemID)
	return err
}

func scanImage(row pgx.Row) (models.ItemImage, error) {
	var image models.ItemImage
	err := row.Scan(
		&image.ID,
		&image.ItemID,
		&image.StorageKey,
		&image.URL,
		&image.ContentType,
		&image.ByteSize,
		&image.Width,
		&image.Height,
		&image.SortOrder,
		&image.CreatedAt,
	)
	return image, err
}
