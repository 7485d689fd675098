package commentservice

import (
	"database/sql"
	"time"
)

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	AuthorID  int       `json:"author_id"`
	Body      string    `json:"body"`
	ParentID  *int      `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`

	Author CommentAuthor `json:"author"`
}

type CommentAuthor struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

// CommentNode is a comment with its replies materialized. Replies is never
// nil so the serialized tree always carries an array.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m *CommentModel
}
