package reactionservice

import (
	"database/sql"
	"time"
)

type LikeKind string

const (
	KindLike    LikeKind = "like"
	KindDislike LikeKind = "dislike"
)

// LikeResult reports which branch a like toggle took.
type LikeResult string

const (
	LikeCreated LikeResult = "created"
	LikeRemoved LikeResult = "removed"
	LikeChanged LikeResult = "changed"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target identifies the object a like or rating attaches to: a post or a
// comment. The two-nullable-column row shape only exists inside the SQL
// layer; everything above works with this type.
type Target struct {
	kind TargetKind
	id   int
}

func PostTarget(id int) Target {
	return Target{kind: TargetPost, id: id}
}

func CommentTarget(id int) Target {
	return Target{kind: TargetComment, id: id}
}

func (t Target) Kind() TargetKind {
	return t.kind
}

func (t Target) ID() int {
	return t.id
}

// column returns the likes/ratings column the target maps to. The value comes
// from a closed enum, never from user input.
func (t Target) column() string {
	if t.kind == TargetComment {
		return "comment_id"
	}
	return "post_id"
}

type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Kind      LikeKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Rating struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LikeCounts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

type RatingStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ReactionModel struct {
	db *sql.DB
}

type ReactionService struct {
	m *ReactionModel
}
