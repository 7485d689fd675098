package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/haiminhng/penwright/internal/common"
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrSlugExhausted      = errors.New("could not allocate a unique slug")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrCategoryInUse      = errors.New("category is referenced by posts")
	ErrAuthorForeignKey   = errors.New("author_id does not exist")
	ErrCategoryForeignKey = errors.New("category_id does not exist")
)

// maxSlugAttempts bounds the suffix search so a pathological namespace cannot
// spin forever.
const maxSlugAttempts = 1000

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

func (m *PostModel) slugTaken(ctx context.Context, table, slug string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1)`, table)

	var taken bool
	err := m.db.QueryRowContext(ctx, query, slug).Scan(&taken)
	if err != nil {
		return false, err
	}

	return taken, nil
}

// insert saves a post, allocating a unique slug from the base candidate. The
// probe keeps the suffix search short, but the unique index on posts.slug is
// the arbiter: losing a probe/insert race advances the suffix and retries
// instead of surfacing the conflict.
func (m *PostModel) insert(ctx context.Context, post *Post, baseSlug string) error {
	query := `
		INSERT INTO posts (author_id, category_id, slug, title, subtitle, content, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, is_featured, view_count, created_at, updated_at, version`

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := baseSlug
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", baseSlug, attempt)
		}

		taken, err := m.slugTaken(ctx, "posts", candidate)
		if err != nil {
			return err
		}
		if taken {
			continue
		}

		err = m.db.QueryRowContext(ctx, query, post.AuthorID, post.CategoryID, candidate, post.Title, post.Subtitle, post.Content, post.ImageURL).
			Scan(&post.ID, &post.IsActive, &post.IsFeatured, &post.ViewCount, &post.CreatedAt, &post.UpdatedAt, &post.Version)
		if err != nil {
			switch {
			case common.UniqueViolation(err, "posts_slug_key"):
				// lost the race to a concurrent insert, try the next suffix
				continue
			case common.ForeignKeyViolation(err, "posts_author_id_fkey"):
				return ErrAuthorForeignKey
			case common.ForeignKeyViolation(err, "posts_category_id_fkey"):
				return ErrCategoryForeignKey
			default:
				return err
			}
		}

		post.Slug = candidate
		return nil
	}

	return ErrSlugExhausted
}

func (m *PostModel) getBySlug(ctx context.Context, slug string, activeOnly bool) (*Post, error) {
	query := `
		SELECT p.id, p.author_id, p.category_id, p.slug, p.title, p.subtitle, p.content, p.image_url,
		       p.is_active, p.is_featured, p.view_count, p.created_at, p.updated_at, p.version,
		       COALESCE(u.username, 'guest'), COALESCE(u.email, ''), COALESCE(u.profile_image, ''),
		       c.name, c.slug
		FROM posts p
		LEFT JOIN users u ON p.author_id = u.id
		JOIN categories c ON p.category_id = c.id
		WHERE p.slug = $1`

	if activeOnly {
		query += ` AND p.is_active = true`
	}

	var post Post
	err := m.db.QueryRowContext(ctx, query, slug).Scan(
		&post.ID, &post.AuthorID, &post.CategoryID, &post.Slug, &post.Title, &post.Subtitle, &post.Content, &post.ImageURL,
		&post.IsActive, &post.IsFeatured, &post.ViewCount, &post.CreatedAt, &post.UpdatedAt, &post.Version,
		&post.Author.Username, &post.Author.Email, &post.Author.ProfileImage,
		&post.Category.Name, &post.Category.Slug)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostModel) getByID(ctx context.Context, id int) (*Post, error) {
	query := `
		SELECT id, author_id, category_id, slug, title, subtitle, content, image_url,
		       is_active, is_featured, view_count, created_at, updated_at, version
		FROM posts
		WHERE id = $1`

	var post Post
	err := m.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.AuthorID, &post.CategoryID, &post.Slug, &post.Title, &post.Subtitle, &post.Content, &post.ImageURL,
		&post.IsActive, &post.IsFeatured, &post.ViewCount, &post.CreatedAt, &post.UpdatedAt, &post.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &post, nil
}

func (m *PostModel) list(ctx context.Context, f Filters) (*PostPage, error) {
	conditions := []string{"1 = 1"}
	args := []any{}

	if !f.IncludeInactive {
		conditions = append(conditions, "p.is_active = true")
	}

	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", len(args)))
	}

	if f.Author != "" {
		args = append(args, "%"+strings.ToLower(f.Author)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.username) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args), len(args)))
	}

	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(p.title) LIKE $%d", len(args)))
	}

	if f.FeaturedOnly {
		conditions = append(conditions, "p.is_featured = true")
	}

	order := "p.created_at DESC"
	switch f.Sort {
	case SortOldest:
		order = "p.created_at ASC"
	case SortMostPopular:
		order = "p.view_count DESC"
	case SortTrending:
		order = "p.view_count DESC"
		conditions = append(conditions, "p.created_at >= now() - interval '7 days'")
	}

	args = append(args, f.Limit)
	limitArg := len(args)
	args = append(args, f.Offset)
	offsetArg := len(args)

	query := fmt.Sprintf(`
		SELECT COUNT(*) OVER(), p.id, p.author_id, p.category_id, p.slug, p.title, p.subtitle, p.content, p.image_url,
		       p.is_active, p.is_featured, p.view_count, p.created_at, p.updated_at, p.version,
		       COALESCE(u.username, 'guest'), COALESCE(u.email, ''), COALESCE(u.profile_image, ''),
		       c.name, c.slug
		FROM posts p
		LEFT JOIN users u ON p.author_id = u.id
		JOIN categories c ON p.category_id = c.id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, strings.Join(conditions, " AND "), order, limitArg, offsetArg)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := PostPage{Posts: []Post{}}
	for rows.Next() {
		var post Post
		err := rows.Scan(&page.TotalPosts,
			&post.ID, &post.AuthorID, &post.CategoryID, &post.Slug, &post.Title, &post.Subtitle, &post.Content, &post.ImageURL,
			&post.IsActive, &post.IsFeatured, &post.ViewCount, &post.CreatedAt, &post.UpdatedAt, &post.Version,
			&post.Author.Username, &post.Author.Email, &post.Author.ProfileImage,
			&post.Category.Name, &post.Category.Slug)
		if err != nil {
			return nil, err
		}
		page.Posts = append(page.Posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	page.HasMore = f.Offset+len(page.Posts) < page.TotalPosts

	return &page, nil
}

func (m *PostModel) update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts
		SET title = $1, subtitle = $2, content = $3, image_url = $4, updated_at = now(), version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at`

	err := m.db.QueryRowContext(ctx, query, post.Title, post.Subtitle, post.Content, post.ImageURL, post.ID, post.Version).
		Scan(&post.Version, &post.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) delete(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
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

// setActive and setFeatured flip the admin toggles.
func (m *PostModel) setActive(ctx context.Context, id int, active bool) error {
	return m.setFlag(ctx, id, "is_active", active)
}

func (m *PostModel) setFeatured(ctx context.Context, id int, featured bool) error {
	return m.setFlag(ctx, id, "is_featured", featured)
}

func (m *PostModel) setFlag(ctx context.Context, id int, column string, value bool) error {
	query := fmt.Sprintf(`UPDATE posts SET %s = $1, updated_at = now() WHERE id = $2`, column)

	res, err := m.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
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

// incrementViews bumps the visit counter in a single statement; readers never
// coordinate in process.
func (m *PostModel) incrementViews(ctx context.Context, slug string) error {
	_, err := m.db.ExecContext(ctx, `UPDATE posts SET view_count = view_count + 1 WHERE slug = $1`, slug)
	return err
}
