package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrParentMismatch = errors.New("parent comment does not belong to the post")
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

// listByPost returns every comment on a post in creation order, with author
// details joined for display.
func (m *CommentModel) listByPost(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.body, c.parent_id, c.created_at, u.username, u.email, u.profile_image
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.ParentID, &c.CreatedAt, &c.Author.Username, &c.Author.Email, &c.Author.ProfileImage)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	// a reply must point at a comment on the same post
	if c.ParentID != nil {
		var parentPostID int
		err := m.db.QueryRowContext(ctx, `SELECT post_id FROM comments WHERE id = $1`, *c.ParentID).Scan(&parentPostID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return ErrParentMismatch
			default:
				return err
			}
		}

		if parentPostID != c.PostID {
			return ErrParentMismatch
		}
	}

	query := `
		INSERT INTO comments (post_id, author_id, body, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := m.db.QueryRowContext(ctx, query, c.PostID, c.AuthorID, c.Body, c.ParentID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (m *CommentModel) get(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT id, post_id, author_id, body, parent_id, created_at
		FROM comments
		WHERE id = $1`

	var c Comment
	err := m.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.ParentID, &c.CreatedAt)
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

// delete removes a single comment. Replies keep their parent_id, so the tree
// builder later promotes them.
func (m *CommentModel) delete(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

func (m *CommentModel) postExists(ctx context.Context, postID int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
