package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheckHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/v1/healthcheck", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}

func TestRegisterUserHandler(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, _ := ts.post(t, "/v1/users/register", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "Test_1234!",
	}, nil)
	assert.Equal(t, http.StatusCreated, status)

	// weak password is rejected with field errors
	status, _, body := ts.post(t, "/v1/users/register", map[string]string{
		"username": "weakuser",
		"email":    "weakuser@example.com",
		"password": "password",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	errs, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "password")

	// duplicate username
	status, _, _ = ts.post(t, "/v1/users/register", map[string]string{
		"username": "newuser",
		"email":    "second@example.com",
		"password": "Test_1234!",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

// createActivePost drives post creation as author and activation as admin,
// returning the post id and slug.
func createActivePost(t *testing.T, app *application, ts *testServer, authorToken, adminToken string, title string) (int, string) {
	status, _, body := ts.post(t, "/v1/posts", map[string]string{
		"title":    title,
		"subtitle": "a subtitle",
		"content":  "<p>hello world</p>",
		"category": "Cooking",
	}, &authorToken)
	require.Equal(t, http.StatusCreated, status)

	post, ok := body["post"].(map[string]any)
	require.True(t, ok)

	id := int(post["id"].(float64))
	slug := post["slug"].(string)
	require.False(t, post["is_active"].(bool))

	status, _, body = ts.put(t, fmt.Sprintf("/v1/posts/%d/activate", id), nil, &adminToken)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body["post"].(map[string]any)["is_active"].(bool))

	return id, slug
}

func TestPostLifecycle(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	authorToken := registerActivatedUser(t, app, ts, "author", "author@example.com", "Test_1234!")
	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	// anonymous users cannot create posts
	status, _, _ = ts.post(t, "/v1/posts", map[string]string{
		"title":    "Nope",
		"subtitle": "nope",
		"content":  "nope",
		"category": "Cooking",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	id, slug := createActivePost(t, app, ts, authorToken, adminToken, "Hello, World!!")
	assert.Equal(t, "hello_world", slug)

	// inactive posts 404 for anonymous callers until activated; this one is live
	status, _, body = ts.get(t, "/v1/posts/"+slug, nil)
	assert.Equal(t, http.StatusOK, status)
	post := body["post"].(map[string]any)
	assert.Equal(t, "Hello, World!!", post["title"])
	assert.Equal(t, "author", post["author"].(map[string]any)["username"])

	// a second post with the same title gets a suffixed slug
	_, slug2 := createActivePost(t, app, ts, authorToken, adminToken, "Hello, World!!")
	assert.Equal(t, "hello_world-2", slug2)

	// listing returns both
	status, _, body = ts.get(t, "/v1/posts?category=cooking", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total_posts"])

	// update by author
	status, _, body = ts.put(t, fmt.Sprintf("/v1/posts/%d", id), map[string]any{
		"title":    "Hello, World!!",
		"subtitle": "updated subtitle",
		"content":  "<p>updated</p>",
	}, &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "updated subtitle", body["post"].(map[string]any)["subtitle"])

	// delete by author
	status, _, _ = ts.delete(t, fmt.Sprintf("/v1/posts/%d", id), &authorToken)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = ts.get(t, "/v1/posts/"+slug, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategoryHandlers(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	status, _, body = ts.post(t, "/v1/categories", map[string]string{"name": "Street Food"}, &adminToken)
	assert.Equal(t, http.StatusCreated, status)
	category := body["category"].(map[string]any)
	assert.Equal(t, "street_food", category["slug"])

	status, _, _ = ts.post(t, "/v1/categories", map[string]string{"name": "Street Food"}, &adminToken)
	assert.Equal(t, http.StatusConflict, status)

	status, _, body = ts.get(t, "/v1/categories", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["categories"].([]any), 1)

	id := int(category["id"].(float64))
	status, _, _ = ts.delete(t, fmt.Sprintf("/v1/categories/%d", id), &adminToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestCommentHandlers(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	authorToken := registerActivatedUser(t, app, ts, "author", "author@example.com", "Test_1234!")
	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	postID, _ := createActivePost(t, app, ts, authorToken, adminToken, "Comment Me")

	status, _, body = ts.post(t, fmt.Sprintf("/v1/comments/%d", postID), map[string]any{
		"body": "first!",
	}, &authorToken)
	require.Equal(t, http.StatusCreated, status)
	parent := body["comment"].(map[string]any)
	parentID := int(parent["id"].(float64))

	status, _, _ = ts.post(t, fmt.Sprintf("/v1/comments/%d", postID), map[string]any{
		"body":              "a reply",
		"parent_comment_id": parentID,
	}, &authorToken)
	require.Equal(t, http.StatusCreated, status)

	// anonymous callers can read the tree
	status, _, body = ts.get(t, fmt.Sprintf("/v1/comments/%d", postID), nil)
	assert.Equal(t, http.StatusOK, status)

	tree := body["comments"].([]any)
	require.Len(t, tree, 1)
	root := tree[0].(map[string]any)
	assert.Equal(t, "first!", root["body"])
	assert.Len(t, root["replies"].([]any), 1)

	// deleting the root promotes the reply to the top level
	status, _, _ = ts.delete(t, fmt.Sprintf("/v1/comments/%d", parentID), &authorToken)
	assert.Equal(t, http.StatusOK, status)

	status, _, body = ts.get(t, fmt.Sprintf("/v1/comments/%d", postID), nil)
	assert.Equal(t, http.StatusOK, status)
	tree = body["comments"].([]any)
	require.Len(t, tree, 1)
	assert.Equal(t, "a reply", tree[0].(map[string]any)["body"])
}

func TestReactionHandlers(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	authorToken := registerActivatedUser(t, app, ts, "author", "author@example.com", "Test_1234!")
	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	postID, _ := createActivePost(t, app, ts, authorToken, adminToken, "React To Me")

	// anonymous likes are rejected
	status, _, _ = ts.post(t, fmt.Sprintf("/v1/likes/posts/%d", postID), map[string]string{"type": "like"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, body = ts.post(t, fmt.Sprintf("/v1/likes/posts/%d", postID), map[string]string{"type": "like"}, &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "created", body["result"])

	status, _, body = ts.get(t, fmt.Sprintf("/v1/likes/posts/%d/counts", postID), nil)
	assert.Equal(t, http.StatusOK, status)
	counts := body["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["likes"])
	assert.Equal(t, float64(0), counts["dislikes"])

	// status reflects the caller: nil for anonymous, the kind for the liker
	status, _, body = ts.get(t, fmt.Sprintf("/v1/likes/posts/%d/status", postID), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["status"])

	status, _, body = ts.get(t, fmt.Sprintf("/v1/likes/posts/%d/status", postID), &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "like", body["status"])

	// switching to dislike changes in place
	status, _, body = ts.post(t, fmt.Sprintf("/v1/likes/posts/%d", postID), map[string]string{"type": "dislike"}, &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "changed", body["result"])

	// ratings
	status, _, _ = ts.post(t, fmt.Sprintf("/v1/ratings/posts/%d", postID), map[string]int{"value": 4}, &authorToken)
	assert.Equal(t, http.StatusOK, status)

	status, _, body = ts.post(t, fmt.Sprintf("/v1/ratings/posts/%d", postID), map[string]int{"value": 9}, &authorToken)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"].(map[string]any), "rating")

	status, _, body = ts.get(t, fmt.Sprintf("/v1/ratings/posts/%d/stats", postID), nil)
	assert.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(4), stats["average"])
	assert.Equal(t, float64(1), stats["count"])

	status, _, body = ts.get(t, fmt.Sprintf("/v1/ratings/posts/%d/status", postID), &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), body["rating"])

	// unknown target
	status, _, _ = ts.post(t, "/v1/likes/posts/999999", map[string]string{"type": "like"}, &authorToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSavedPostHandlers(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	authorToken := registerActivatedUser(t, app, ts, "author", "author@example.com", "Test_1234!")
	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	postID, slug := createActivePost(t, app, ts, authorToken, adminToken, "Save Me")

	status, _, body = ts.put(t, fmt.Sprintf("/v1/users/saved/%d", postID), nil, &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["saved"])

	status, _, body = ts.get(t, "/v1/users/saved", &authorToken)
	assert.Equal(t, http.StatusOK, status)
	saved := body["saved_posts"].([]any)
	require.Len(t, saved, 1)
	assert.Equal(t, slug, saved[0].(map[string]any)["slug"])

	status, _, body = ts.put(t, fmt.Sprintf("/v1/users/saved/%d", postID), nil, &authorToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["saved"])
}

func TestDeleteAccountHandler(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	authorToken := registerActivatedUser(t, app, ts, "author", "author@example.com", "Test_1234!")
	registerActivatedUser(t, app, ts, "rootadmin", "rootadmin@example.com", "Test_1234!")
	promoteToAdmin(t, db, "rootadmin")

	status, _, body := ts.post(t, "/v1/users/login", map[string]string{
		"username": "rootadmin",
		"password": "Test_1234!",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	adminToken := body["token"].(map[string]any)["access_token"].(string)

	_, slug := createActivePost(t, app, ts, authorToken, adminToken, "Orphan Me")

	status, _, _ = ts.delete(t, "/v1/users/me", &authorToken)
	assert.Equal(t, http.StatusOK, status)

	// the post survives under the guest account
	status, _, body = ts.get(t, "/v1/posts/"+slug, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "guest", body["post"].(map[string]any)["author"].(map[string]any)["username"])

	// the deleted account cannot log back in
	status, _, _ = ts.post(t, "/v1/users/login", map[string]string{
		"username": "author",
		"password": "Test_1234!",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
