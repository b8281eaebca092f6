package accounts

import "sort"

// Node is an account with its nested active children.
type Node struct {
	Account
	Children []*Node
}

// BuildTree groups accounts by parent and returns the roots sorted by code.
func BuildTree(list []Account) []*Node {
	nodes := make(map[int64]*Node, len(list))
	for _, a := range list {
		nodes[a.ID] = &Node{Account: a}
	}
	var roots []*Node
	for _, n := range nodes {
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortNodes(n.Children)
		}
	}
}
