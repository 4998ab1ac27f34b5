package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/maxvaer/picknfetch/internal/api"
)

type treeNode struct {
	name     string
	children []*treeNode
}

func (n *treeNode) findOrCreate(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	child := &treeNode{name: name}
	n.children = append(n.children, child)
	return child
}

// PrintTree renders the archive layout to w. Directories are printed with a
// trailing slash; members keep their archive order within each directory.
func PrintTree(w io.Writer, entries []api.Entry) {
	if len(entries) == 0 {
		return
	}

	root := &treeNode{name: "/"}
	for _, e := range entries {
		name := strings.Trim(e.Filename, "/")
		if name == "" {
			continue
		}
		parts := strings.Split(name, "/")
		node := root
		for i, p := range parts {
			last := i == len(parts)-1
			if !last || e.IsDir() {
				p += "/"
			}
			node = node.findOrCreate(p)
		}
	}

	fmt.Fprintf(w, "\n  Archive contents:\n")
	printChildren(w, root, "  ")
}

func printChildren(w io.Writer, node *treeNode, prefix string) {
	for i, child := range node.children {
		isLast := i == len(node.children)-1
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, child.name)
		nextPrefix := prefix + "│   "
		if isLast {
			nextPrefix = prefix + "    "
		}
		printChildren(w, child, nextPrefix)
	}
}
