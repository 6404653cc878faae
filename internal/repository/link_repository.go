package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pocketideas/api/internal/models"
)

var ErrLinkNotFound = errors.New("link not found")

type LinkRepository struct {
	pool *pgxpool.Pool
}

func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

func (r *LinkRepository) Create(ctx context.Context, link models.ItemLink) error {
	const query = `
		INSERT INTO item_links (
			id, item_id, title, url, description, image_url, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		link.ID,
		link.ItemID,
		link.Title,
		link.URL,
		link.Description,
		link.ImageURL,
	)
	return err
}

func (r *LinkRepository) GetByID(ctx context.Context, id string) (models.ItemLink, error) {
	const query = `
		SELECT id, item_id, title, url, description, image_url, created_at
		FROM item_links WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var link models.ItemLink
	if err := row.Scan(
		&link.ID,
		&link.ItemID,
		&link.Title,
		&link.URL,
		&link.Description,
		&link.ImageURL,
		&link.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ItemLink{}, ErrLinkNotFound
		}
		return models.ItemLink{}, err
	}
	return link, nil
}

func (r *LinkRepository) ListByItem(ctx context.Context, itemID string) ([]models.ItemLink, error) {
	const query = `
		SELECT id, item_id, title, url, description, image_url, created_at
		FROM item_links
		WHERE item_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.ItemLink
	for rows.Next() {
		var link models.ItemLink
		if err := rows.Scan(
			&link.ID,
			&link.ItemID,
			&link.Title,
			&link.URL,
			&link.Description,
			&link.ImageURL,
			&link.CreatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *LinkRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM item_links WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *LinkRepository) DeleteByItem(ctx context.Context, itemID string) error {
	const query = `DELETE FROM item_links WHERE item_id = $1`
	_, err := r.pool.Exec(ctx, query, itemID)
	return err
}
