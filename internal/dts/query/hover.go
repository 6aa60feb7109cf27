package query

import (
	"fmt"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/binding"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Hover renders a short description for the node or property at pos: its
// resolved compatible/standard-default type and, for a property, its
// binding description if one was loaded.
func Hover(root *runtime.Node, uri string, pos token.Pos) (string, bool) {
	if node, prop, ok := FindProperty(root, uri, pos); ok {
		return hoverProperty(node, prop), true
	}
	if node, ok := FindNode(root, uri, pos); ok {
		return hoverNode(node), true
	}
	return "", false
}

func hoverNode(node *runtime.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", nodePath(node))
	if nt, ok := node.Type.(*binding.NodeType); ok && nt != nil {
		fmt.Fprintf(&sb, "type: %s\n", nt.Compatible)
		if nt.Bus != "" {
			fmt.Fprintf(&sb, "bus: %s\n", nt.Bus)
		}
	}
	if node.HasPhandle {
		fmt.Fprintf(&sb, "phandle: 0x%x\n", node.Phandle)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func hoverProperty(node *runtime.Node, prop *runtime.Property) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s.%s\n", nodePath(node), prop.Name)
	if nt, ok := node.Type.(*binding.NodeType); ok && nt != nil {
		if pd, found := findPropertyDef(nt, prop.Name); found && pd.Description != "" {
			fmt.Fprintf(&sb, "%s\n", pd.Description)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func nodePath(node *runtime.Node) string {
	if len(node.Path) == 0 {
		return "/"
	}
	return "/" + strings.Join(node.Path, "/")
}
