package models

// TreeNode is a node with its nested children, used for the full hierarchy view
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"` // Pointers for proper nesting
}

// Stats summarizes the hierarchy
type Stats struct {
	Nodes int64 `json:"nodes"`
}
