package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pocketideas/api/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

const itemColumns = `id, title, type, description, priority, status, due_date,
	tags, pinned, version, deleted_at, created_by_id, created_at, updated_at`

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

type ItemFilter struct {
	// Status filters by lifecycle status. Nil means the caller did not ask,
	// in which case listing defaults to ACTIVE. StatusAll disables the filter.
	Status    *models.ItemStatus
	StatusAll bool
	Type      *models.ItemType
	Tags      []string
	Pinned    *bool
	Search    string
}

type SortField string

const (
	SortByPriority  SortField = "priority"
	SortByUpdatedAt SortField = "updatedAt"
	SortByCreatedAt SortField = "createdAt"
	SortByDueDate   SortField = "dueDate"
	SortByTitle     SortField = "title"
)

var sortColumns = map[SortField]string{
	SortByPriority:  "priority",
	SortByUpdatedAt: "updated_at",
	SortByCreatedAt: "created_at",
	SortByDueDate:   "due_date",
	SortByTitle:     "title",
}

type ItemSort struct {
	Field      SortField
	Descending bool
}

func (r *ItemRepository) Create(ctx context.Context, item models.Item) error {
	const query = `
		INSERT INTO items (
			id, title, type, description, priority, status, due_date,
			tags, pinned, version, created_by_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Title,
		item.Type,
		item.Description,
		item.Priority,
		item.Status,
		item.DueDate,
		item.Tags,
		item.Pinned,
		item.Version,
		item.CreatedByID,
	)
	return err
}

// GetByID reads an item that is not in the trash. Soft-deleted rows surface
// as ErrItemNotFound so "gone" and "trashed" look the same to callers.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1 AND deleted_at IS NULL`, itemColumns)
	return r.scanOne(ctx, query, id)
}

func (r *ItemRepository) GetTrashedByID(ctx context.Context, id string) (models.Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM items WHERE id = $1 AND deleted_at IS NOT NULL`, itemColumns)
	return r.scanOne(ctx, query, id)
}

// Update writes the full field set and bumps version by one. When
// expectedVersion is non-nil the write is a single conditional statement:
// it matches zero rows if any intervening write changed the version, which
// is the atomic compare-and-increment the optimistic-lock contract needs.
// Zero matched rows surface as ErrItemNotFound; the caller re-reads to tell
// a vanished item from a version conflict.
func (r *ItemRepository) Update(ctx context.Context, item models.Item, expectedVersion *int) (models.Item, error) {
	query := `
		UPDATE items
		SET title = $2, type = $3, description = $4, priority = $5,
		    status = $6, due_date = $7, tags = $8, pinned = $9,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`
	args := []any{
		item.ID,
		item.Title,
		item.Type,
		item.Description,
		item.Priority,
		item.Status,
		item.DueDate,
		item.Tags,
		item.Pinned,
	}
	if expectedVersion != nil {
		query += " AND version = $10"
		args = append(args, *expectedVersion)
	}
	query += fmt.Sprintf(" RETURNING %s", itemColumns)

	return r.scanOne(ctx, query, args...)
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status models.ItemStatus) (models.Item, error) {
	query := fmt.Sprintf(`
		UPDATE items
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s`, itemColumns)
	return r.scanOne(ctx, query, id, status)
}

func (r *ItemRepository) TogglePinned(ctx context.Context, id string) (models.Item, error) {
	query := fmt.Sprintf(`
		UPDATE items
		SET pinned = NOT pinned, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s`, itemColumns)
	return r.scanOne(ctx, query, id)
}

// Touch bumps updated_at without changing version, used when a child entity
// (link, image) changes under the item.
func (r *ItemRepository) Touch(ctx context.Context, id string) error {
	const query = `UPDATE items SET updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *ItemRepository) SoftDelete(ctx context.Context, id string) (models.Item, error) {
	query := fmt.Sprintf(`
		UPDATE items
		SET deleted_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s`, itemColumns)
	return r.scanOne(ctx, query, id)
}

func (r *ItemRepository) RestoreFromTrash(ctx context.Context, id string) (models.Item, error) {
	query := fmt.Sprintf(`
		UPDATE items
		SET deleted_at = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING %s`, itemColumns)
	return r.scanOne(ctx, query, id)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM items WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepository) List(ctx context.Context, filter ItemFilter, sort ItemSort) ([]models.Item, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []any{}

	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.StatusAll:
	case filter.Status != nil:
		conditions = append(conditions, "status = "+arg(*filter.Status))
	default:
		conditions = append(conditions, "status = "+arg(models.ItemStatusActive))
	}

	if filter.Type != nil {
		conditions = append(conditions, "type = "+arg(*filter.Type))
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, "tags @> "+arg(filter.Tags))
	}
	if filter.Pinned != nil {
		conditions = append(conditions, "pinned = "+arg(*filter.Pinned))
	}
	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		exact := arg(filter.Search)
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE %s OR description ILIKE %s OR %s = ANY(tags))", pattern, pattern, exact))
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "updated_at"
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM items
		WHERE %s
		ORDER BY pinned DESC, %s %s`,
		itemColumns, strings.Join(conditions, " AND "), column, direction)

	return r.scanMany(ctx, query, args...)
}

func (r *ItemRepository) ListTrashed(ctx context.Context) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM items
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC`, itemColumns)
	return r.scanMany(ctx, query)
}

func (r *ItemRepository) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM items
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		ORDER BY deleted_at ASC`, itemColumns)
	return r.scanMany(ctx, query, cutoff)
}

func (r *ItemRepository) ListExported(ctx context.Context) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM items
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC`, itemColumns)
	return r.scanMany(ctx, query)
}

func (r *ItemRepository) scanOne(ctx context.Context, query string, args ...any) (models.Item, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Item{}, ErrItemNotFound
		}
		return models.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row pgx.Row) (models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Type,
		&item.Description,
		&item.Priority,
		&item.Status,
		&item.DueDate,
		&item.Tags,
		&item.Pinned,
		&item.Version,
		&item.DeletedAt,
		&item.CreatedByID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}
