package postservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haiminhng/penwright/internal/common"
)

var ErrNotPermitted = errors.New("not permitted to modify this post")

func NewPostService(db *sql.DB, c *common.Cache) *PostService {
	return &PostService{m: newPostModel(db), c: c}
}

type CreatePostRequest struct {
	AuthorID int
	Category string
	Title    string
	Subtitle string
	Content  string
	ImageURL string
}

// CreatePost saves a new post. The category is resolved by name and created
// lazily when unknown; the slug is derived from the title and de-duplicated
// within the post namespace. New posts stay inactive until an admin activates
// them.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateSubtitle(v, req.Subtitle)
	validateContent(v, req.Content)
	validateCategoryName(v, req.Category)
	validateInt(v, req.AuthorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	category, err := s.m.getOrCreateCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}

	post := Post{
		AuthorID:   &req.AuthorID,
		CategoryID: category.ID,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Content:    sanitizeContent(req.Content),
		ImageURL:   req.ImageURL,
		Category:   *category,
	}

	err = s.m.insert(ctx, &post, slugOrFallback(req.Title, "post"))
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// GetPostBySlug returns a post joined with its author and category.
// Anonymous and non-admin callers only see active posts. Each successful
// fetch counts a visit.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string, isAdmin bool) (*Post, error) {
	v := common.NewValidator()
	v.Check(slug != "", "slug", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyPostBySlug(slug)
	if !isAdmin {
		if cached, ok := s.c.Get(key); ok {
			if post, ok := cached.(*Post); ok {
				if err := s.m.incrementViews(ctx, slug); err != nil {
					return nil, err
				}
				return post, nil
			}
		}
	}

	post, err := s.m.getBySlug(ctx, slug, !isAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.m.incrementViews(ctx, slug); err != nil {
		return nil, err
	}

	if !isAdmin {
		s.c.Set(key, post)
	}

	return post, nil
}

// ListPosts returns a filtered, sorted page of posts. Default page size is 5.
func (s *PostService) ListPosts(ctx context.Context, f Filters) (*PostPage, error) {
	if f.Limit < 1 {
		f.Limit = 5
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	return s.m.list(ctx, f)
}

type UpdatePostRequest struct {
	ID       int
	Title    string
	Subtitle string
	Content  string
	ImageURL string
	Version  int
}

// UpdatePost edits a post's content fields. Only the author or an admin may
// update; the slug is fixed at creation.
func (s *PostService) UpdatePost(ctx context.Context, req *UpdatePostRequest, userID int, isAdmin bool) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, req.ID, "id")
	validateTitle(v, req.Title)
	validateSubtitle(v, req.Subtitle)
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.getByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && (post.AuthorID == nil || *post.AuthorID != userID) {
		return nil, ErrNotPermitted
	}

	post.Title = req.Title
	post.Subtitle = req.Subtitle
	post.Content = sanitizeContent(req.Content)
	post.ImageURL = req.ImageURL
	if req.Version > 0 {
		post.Version = req.Version
	}

	if err := s.m.update(ctx, post); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyPostBySlug(post.Slug))

	return post, nil
}

// DeletePost removes a post. Only the author or an admin may delete.
func (s *PostService) DeletePost(ctx context.Context, id, userID int, isAdmin bool) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	post, err := s.m.getByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && (post.AuthorID == nil || *post.AuthorID != userID) {
		return ErrNotPermitted
	}

	if err := s.m.delete(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyPostBySlug(post.Slug))

	return nil
}

// ToggleActive flips a post's visibility. Admin only, enforced by the caller's
// routing layer and double-checked here.
func (s *PostService) ToggleActive(ctx context.Context, id int, isAdmin bool) (*Post, error) {
	return s.toggleFlag(ctx, id, isAdmin, func(post *Post) (bool, error) {
		post.IsActive = !post.IsActive
		return post.IsActive, s.m.setActive(ctx, id, post.IsActive)
	})
}

// ToggleFeatured flips a post's featured flag. Admin only.
func (s *PostService) ToggleFeatured(ctx context.Context, id int, isAdmin bool) (*Post, error) {
	return s.toggleFlag(ctx, id, isAdmin, func(post *Post) (bool, error) {
		post.IsFeatured = !post.IsFeatured
		return post.IsFeatured, s.m.setFeatured(ctx, id, post.IsFeatured)
	})
}

func (s *PostService) toggleFlag(ctx context.Context, id int, isAdmin bool, flip func(*Post) (bool, error)) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if !isAdmin {
		return nil, ErrNotPermitted
	}

	post, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := flip(post); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyPostBySlug(post.Slug))

	return post, nil
}

// ListCategories returns every category, newest first.
func (s *PostService) ListCategories(ctx context.Context) ([]Category, error) {
	if cached, ok := s.c.Get(common.CacheKeyCategories()); ok {
		if categories, ok := cached.([]Category); ok {
			return categories, nil
		}
	}

	categories, err := s.m.listCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyCategories(), categories)

	return categories, nil
}

// CreateCategory adds a category explicitly, outside the lazy post-creation
// path.
func (s *PostService) CreateCategory(ctx context.Context, name string) (*Category, error) {
	v := common.NewValidator()
	validateCategoryName(v, name)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if _, err := s.m.getCategoryByName(ctx, name); err == nil {
		return nil, ErrDuplicateCategory
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	c := Category{Name: name}
	if err := s.m.insertCategory(ctx, &c); err != nil {
		return nil, err
	}

	s.c.Delete(common.CacheKeyCategories())

	return &c, nil
}

// DeleteCategory removes an unused category. Admin only; refused while posts
// still reference it.
func (s *PostService) DeleteCategory(ctx context.Context, id int, isAdmin bool) error {
	v := common.NewValidator()
	validateInt(v, id, "category_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	if !isAdmin {
		return ErrNotPermitted
	}

	if err := s.m.deleteCategory(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyCategories())

	return nil
}
