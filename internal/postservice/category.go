package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/haiminhng/penwright/internal/common"
)

func (m *PostModel) listCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM categories
		ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (m *PostModel) getCategoryByName(ctx context.Context, name string) (*Category, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM categories
		WHERE LOWER(name) = $1 OR slug = $2`

	var c Category
	err := m.db.QueryRowContext(ctx, query, strings.ToLower(name), Slugify(name)).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &c, nil
}

// insertCategory allocates the category's slug the same way posts do:
// categories form their own slug namespace.
func (m *PostModel) insertCategory(ctx context.Context, c *Category) error {
	baseSlug := slugOrFallback(c.Name, "category")

	query := `
		INSERT INTO categories (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at`

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := baseSlug
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", baseSlug, attempt)
		}

		taken, err := m.slugTaken(ctx, "categories", candidate)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		err = m.db.QueryRowContext(ctx, query, c.Name, candidate).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			switch {
			case common.UniqueViolation(err, "categories_slug_key"):
				continue
			case common.UniqueViolation(err, "categories_name_key"):
				return ErrDuplicateCategory
			default:
				return err
			}
		}

		c.Slug = candidate
		return nil
	}

	return ErrSlugExhausted
}

// getOrCreateCategory resolves a category by name, creating it lazily when a
// post references an unknown one.
func (m *PostModel) getOrCreateCategory(ctx context.Context, name string) (*Category, error) {
	c, err := m.getCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	created := Category{Name: strings.TrimSpace(name)}
	err = m.insertCategory(ctx, &created)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCategory):
			// a concurrent creator won; use theirs
			return m.getCategoryByName(ctx, name)
		default:
			return nil, err
		}
	}

	return &created, nil
}

// deleteCategory refuses to remove a category that posts still reference.
func (m *PostModel) deleteCategory(ctx context.Context, id int) error {
	var inUse bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE category_id = $1)`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrCategoryInUse
	}

	res, err := m.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		switch {
		// a post slipped in between the check and the delete
		case common.ForeignKeyViolation(err, "posts_category_id_fkey"):
			return ErrCategoryInUse
		default:
			return err
		}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}
