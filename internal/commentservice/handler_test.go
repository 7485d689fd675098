package commentservice

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiminhng/penwright/internal/common"
)

func setupTestEnvironment(t *testing.T) (*CommentService, *sql.DB, int, int) {
	db := common.TestDB("file://../../migrations", t)

	var userID int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password, activated)
		VALUES ('commenter', 'commenter@example.com', 'x', true)
		RETURNING id`).Scan(&userID)
	require.NoError(t, err)

	var categoryID int
	err = db.QueryRow(`
		INSERT INTO categories (name, slug)
		VALUES ('general', 'general')
		RETURNING id`).Scan(&categoryID)
	require.NoError(t, err)

	var postID int
	err = db.QueryRow(`
		INSERT INTO posts (author_id, category_id, slug, title, subtitle, content, is_active)
		VALUES ($1, $2, 'commented_post', 'Commented Post', 'sub', 'content', true)
		RETURNING id`, userID, categoryID).Scan(&postID)
	require.NoError(t, err)

	return NewCommentService(db), db, userID, postID
}

func TestCreateComment(t *testing.T) {
	s, _, userID, postID := setupTestEnvironment(t)
	ctx := context.Background()

	c, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "first"})
	assert.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Nil(t, c.ParentID)

	reply, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "a reply", ParentID: &c.ID})
	assert.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c.ID, *reply.ParentID)
}

func TestCreateCommentValidation(t *testing.T) {
	s, _, userID, postID := setupTestEnvironment(t)

	_, err := s.Create(context.Background(), &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: ""})
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"body": "must be provided"}}, err)
}

func TestCreateCommentPostNotFound(t *testing.T) {
	s, _, userID, _ := setupTestEnvironment(t)

	_, err := s.Create(context.Background(), &CreateCommentRequest{PostID: 99999, AuthorID: userID, Body: "lost"})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCreateCommentParentOnOtherPost(t *testing.T) {
	s, db, userID, postID := setupTestEnvironment(t)
	ctx := context.Background()

	var otherPostID int
	err := db.QueryRow(`
		INSERT INTO posts (author_id, category_id, slug, title, subtitle, content, is_active)
		VALUES ($1, (SELECT id FROM categories LIMIT 1), 'other_post', 'Other Post', 'sub', 'content', true)
		RETURNING id`, userID).Scan(&otherPostID)
	require.NoError(t, err)

	parent, err := s.Create(ctx, &CreateCommentRequest{PostID: otherPostID, AuthorID: userID, Body: "elsewhere"})
	require.NoError(t, err)

	_, err = s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "cross-post reply", ParentID: &parent.ID})
	assert.ErrorIs(t, err, ErrParentMismatch)
}

func TestListByPostBuildsTree(t *testing.T) {
	s, _, userID, postID := setupTestEnvironment(t)
	ctx := context.Background()

	top, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "top"})
	require.NoError(t, err)

	reply, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "reply", ParentID: &top.ID})
	require.NoError(t, err)

	_, err = s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "second top"})
	require.NoError(t, err)

	tree, err := s.ListByPost(ctx, postID)
	assert.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, top.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	assert.Equal(t, "commenter", tree[0].Author.Username)
}

func TestDeleteCommentPromotesReplies(t *testing.T) {
	s, _, userID, postID := setupTestEnvironment(t)
	ctx := context.Background()

	top, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "top"})
	require.NoError(t, err)

	reply, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "orphan to be", ParentID: &top.ID})
	require.NoError(t, err)

	err = s.Delete(ctx, top.ID, userID, false)
	assert.NoError(t, err)

	tree, err := s.ListByPost(ctx, postID)
	assert.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, reply.ID, tree[0].ID)
}

func TestDeleteCommentPermissions(t *testing.T) {
	s, db, userID, postID := setupTestEnvironment(t)
	ctx := context.Background()

	var otherID int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password, activated)
		VALUES ('bystander', 'bystander@example.com', 'x', true)
		RETURNING id`).Scan(&otherID)
	require.NoError(t, err)

	c, err := s.Create(ctx, &CreateCommentRequest{PostID: postID, AuthorID: userID, Body: "mine"})
	require.NoError(t, err)

	err = s.Delete(ctx, c.ID, otherID, false)
	assert.ErrorIs(t, err, ErrNotPermitted)

	// admins may delete anyone's comment
	err = s.Delete(ctx, c.ID, otherID, true)
	assert.NoError(t, err)

	err = s.Delete(ctx, c.ID, userID, false)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
