package commentservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatComment(id int, parent *int) Comment {
	return Comment{
		ID:        id,
		PostID:    1,
		AuthorID:  1,
		Body:      "body",
		ParentID:  parent,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, id, 0, time.UTC),
	}
}

func intPtr(n int) *int {
	return &n
}

func ids(nodes []*CommentNode) []int {
	out := make([]int, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTreeNested(t *testing.T) {
	comments := []Comment{
		flatComment(1, nil),
		flatComment(2, intPtr(1)),
		flatComment(3, nil),
		flatComment(4, intPtr(2)),
	}

	tree := BuildTree(comments)

	require.Equal(t, []int{1, 3}, ids(tree))

	require.Equal(t, []int{2}, ids(tree[0].Replies))
	require.Equal(t, []int{4}, ids(tree[0].Replies[0].Replies))
	assert.Empty(t, tree[0].Replies[0].Replies[0].Replies)
	assert.Empty(t, tree[1].Replies)
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := BuildTree(nil)
	assert.Empty(t, tree)
}

func TestBuildTreeRepliesNeverNil(t *testing.T) {
	tree := BuildTree([]Comment{flatComment(1, nil)})
	require.Len(t, tree, 1)
	assert.NotNil(t, tree[0].Replies)
}

func TestBuildTreeSiblingOrder(t *testing.T) {
	comments := []Comment{
		flatComment(1, nil),
		flatComment(2, intPtr(1)),
		flatComment(3, intPtr(1)),
		flatComment(4, intPtr(1)),
	}

	tree := BuildTree(comments)

	require.Equal(t, []int{1}, ids(tree))
	assert.Equal(t, []int{2, 3, 4}, ids(tree[0].Replies))
}

func TestBuildTreeOrphanPromoted(t *testing.T) {
	// parent 10 was deleted; its replies must surface at the top level in
	// creation order, not vanish
	comments := []Comment{
		flatComment(1, nil),
		flatComment(2, intPtr(10)),
		flatComment(3, nil),
	}

	tree := BuildTree(comments)

	assert.Equal(t, []int{1, 2, 3}, ids(tree))
}

func TestBuildTreeSelfParent(t *testing.T) {
	comments := []Comment{flatComment(1, intPtr(1))}

	tree := BuildTree(comments)

	require.Equal(t, []int{1}, ids(tree))
	assert.Empty(t, tree[0].Replies)
}

func TestBuildTreeCycleBroken(t *testing.T) {
	// 2 and 3 reference each other; neither chain reaches a root
	comments := []Comment{
		flatComment(1, nil),
		flatComment(2, intPtr(3)),
		flatComment(3, intPtr(2)),
	}

	tree := BuildTree(comments)

	total := 0
	var walk func(nodes []*CommentNode)
	walk = func(nodes []*CommentNode) {
		for _, n := range nodes {
			total++
			walk(n.Replies)
		}
	}
	walk(tree)

	// every comment surfaces exactly once
	assert.Equal(t, 3, total)
}

func TestBuildTreeDepthCapped(t *testing.T) {
	var comments []Comment
	comments = append(comments, flatComment(1, nil))
	for i := 2; i <= MaxReplyDepth+50; i++ {
		comments = append(comments, flatComment(i, intPtr(i-1)))
	}

	tree := BuildTree(comments)
	require.Len(t, tree, 1)

	depth := 0
	total := 0
	node := tree[0]
	for {
		total++
		if len(node.Replies) == 0 {
			break
		}
		depth++
		// beyond the cap, replies pile up flat on the cap-level node
		total += len(node.Replies) - 1
		node = node.Replies[0]
	}

	assert.LessOrEqual(t, depth, MaxReplyDepth)
	assert.Equal(t, len(comments), total)
}
