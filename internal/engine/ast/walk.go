package ast

// Walk visits n and its descendants pre-order, left to right. Returning false
// from fn skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children.Nodes() {
		Walk(child, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}
