package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/haiminhng/penwright/internal/common"
)

var ErrNotPermitted = errors.New("not permitted to delete this comment")

func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{m: newCommentModel(db)}
}

func validateBody(v *common.Validator, body string) {
	v.Check(body != "", "body", "must be provided")
	v.Check(v.CheckStringLength(body, 1, 2000), "body", "must not be more than 2000 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

// ListByPost returns the reply tree for a post, chronological within each
// sibling group. Available to anonymous callers.
func (s *CommentService) ListByPost(ctx context.Context, postID int) ([]*CommentNode, error) {
	v := common.NewValidator()
	validateInt(v, postID, "post_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	comments, err := s.m.listByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return BuildTree(comments), nil
}

type CreateCommentRequest struct {
	PostID   int
	AuthorID int
	Body     string
	ParentID *int
}

// Create adds a comment to a post, optionally as a reply to an existing
// comment on the same post.
func (s *CommentService) Create(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, req.PostID, "post_id")
	validateInt(v, req.AuthorID, "author_id")
	validateBody(v, req.Body)
	if req.ParentID != nil {
		validateInt(v, *req.ParentID, "parent_comment_id")
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	exists, err := s.m.postExists(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecordNotFound
	}

	c := Comment{
		PostID:   req.PostID,
		AuthorID: req.AuthorID,
		Body:     req.Body,
		ParentID: req.ParentID,
	}

	if err := s.m.insert(ctx, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// Delete removes a comment. Only the author or an admin may delete; replies
// are left in place and surface at the top level afterwards.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int, isAdmin bool) error {
	v := common.NewValidator()
	validateInt(v, commentID, "comment_id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	c, err := s.m.get(ctx, commentID)
	if err != nil {
		return err
	}

	if c.AuthorID != userID && !isAdmin {
		return ErrNotPermitted
	}

	return s.m.delete(ctx, commentID)
}
