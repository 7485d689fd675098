package commentservice

// MaxReplyDepth caps the nesting of the materialized tree. Replies below the
// cap are attached flat at the cap so a pathological thread cannot produce an
// arbitrarily deep structure.
const MaxReplyDepth = 100

type treeItem struct {
	node *CommentNode
	// receiver is the node whose Replies collect this node's children. It is
	// the node itself until the depth cap, after which the cap-level node
	// absorbs everything beneath it.
	receiver *CommentNode
	depth    int
}

// BuildTree turns the flat, creation-time-ordered comment list for one post
// into a reply tree. Sibling order follows input order at every level. A
// comment whose parent is missing from the list (parent deleted, no cascade)
// is promoted to the top level instead of being dropped. The walk is
// iterative and each node links at most once, so a malformed parent chain
// cannot cause unbounded work.
func BuildTree(comments []Comment) []*CommentNode {
	nodes := make(map[int]*CommentNode, len(comments))
	ordered := make([]*CommentNode, 0, len(comments))

	for i := range comments {
		n := &CommentNode{Comment: comments[i], Replies: []*CommentNode{}}
		nodes[n.ID] = n
		ordered = append(ordered, n)
	}

	byParent := make(map[int][]*CommentNode)
	roots := make([]*CommentNode, 0, len(ordered))

	for _, n := range ordered {
		switch {
		case n.ParentID == nil, n.ParentID != nil && *n.ParentID == n.ID:
			roots = append(roots, n)
		default:
			if _, ok := nodes[*n.ParentID]; !ok {
				// orphan: parent was deleted, surface at top level
				roots = append(roots, n)
				continue
			}
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
		}
	}

	visited := make(map[int]bool, len(ordered))

	queue := make([]treeItem, 0, len(ordered))
	for _, r := range roots {
		visited[r.ID] = true
		queue = append(queue, treeItem{node: r, receiver: r})
	}

	expand := func() {
		for len(queue) > 0 {
			it := queue[0]
			queue = queue[1:]

			for _, child := range byParent[it.node.ID] {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true

				it.receiver.Replies = append(it.receiver.Replies, child)

				next := treeItem{node: child, receiver: child, depth: it.depth + 1}
				if next.depth >= MaxReplyDepth {
					next.receiver = it.receiver
					next.depth = MaxReplyDepth
				}
				queue = append(queue, next)
			}
		}
	}

	expand()

	// Anything still unvisited sits on a parent chain that never reaches a
	// root (a cycle, which the store should make impossible). Promote rather
	// than lose it.
	for _, n := range ordered {
		if visited[n.ID] {
			continue
		}
		visited[n.ID] = true
		roots = append(roots, n)
		queue = append(queue, treeItem{node: n, receiver: n})
		expand()
	}

	return roots
}
