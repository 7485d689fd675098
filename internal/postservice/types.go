package postservice

import (
	"database/sql"
	"time"

	"github.com/haiminhng/penwright/internal/common"
)

type Post struct {
	ID         int       `json:"id"`
	AuthorID   *int      `json:"author_id"`
	CategoryID int       `json:"category_id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	// Content is stored as sanitized HTML.
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url"`
	IsActive   bool      `json:"is_active"`
	IsFeatured bool      `json:"is_featured"`
	ViewCount  int       `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int       `json:"version"`

	Author   PostAuthor `json:"author"`
	Category Category   `json:"category"`
}

type PostAuthor struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// SortOrder selects a listing preset.
type SortOrder string

const (
	SortNewest      SortOrder = "newest"
	SortOldest      SortOrder = "oldest"
	SortMostPopular SortOrder = "mostpopular"
	SortTrending    SortOrder = "trending"
)

// Filters narrows a post listing. Zero values mean "no filter".
type Filters struct {
	CategorySlug    string
	Author          string
	Search          string
	FeaturedOnly    bool
	IncludeInactive bool
	Sort            SortOrder
	Limit           int
	Offset          int
}

type PostPage struct {
	Posts      []Post `json:"posts"`
	TotalPosts int    `json:"total_posts"`
	HasMore    bool   `json:"has_more"`
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m *PostModel
	c *common.Cache
}
