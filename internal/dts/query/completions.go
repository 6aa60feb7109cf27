package query

import (
	"sort"

	"github.com/dkrn/dts-ls/internal/dts/binding"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// CompletionItem is one candidate returned by Complete, ordered the way the
// caller should present it (Complete returns items pre-sorted).
type CompletionItem struct {
	Label  string
	Detail string
	Kind   CompletionKind
}

type CompletionKind int

const (
	CompletionValue CompletionKind = iota
	CompletionProperty
)

// Complete returns completions for pos in uri: type-directed enum values
// when pos falls inside a known property's value list (spec.md §4.7,
// S6's `status = |` scenario), or candidate property names — sorted
// required-and-absent first, per spec.md's `(required, alreadyPresent)`
// ordering — when pos falls inside a node body but not inside any value.
func Complete(root *runtime.Node, uri string, pos token.Pos) []CompletionItem {
	if node, prop, ok := FindProperty(root, uri, pos); ok {
		return valueCompletions(node, prop)
	}
	if node, ok := FindNode(root, uri, pos); ok {
		return propertyCompletions(node)
	}
	return nil
}

func valueCompletions(node *runtime.Node, prop *runtime.Property) []CompletionItem {
	nt, _ := node.Type.(*binding.NodeType)
	var enum []string
	if nt != nil {
		if pd, ok := findPropertyDef(nt, prop.Name); ok && len(pd.Enum) > 0 {
			enum = pd.Enum
		}
	}
	if enum == nil && prop.Name == "status" {
		enum = binding.StatusEnum
	}
	out := make([]CompletionItem, 0, len(enum))
	for _, v := range enum {
		out = append(out, CompletionItem{Label: v, Kind: CompletionValue})
	}
	return out
}

func findPropertyDef(nt *binding.NodeType, name string) (binding.PropertyDef, bool) {
	for _, pd := range nt.Properties {
		if !pd.Matcher && pd.Name == name {
			return pd, true
		}
	}
	return binding.PropertyDef{}, false
}

func propertyCompletions(node *runtime.Node) []CompletionItem {
	nt, _ := node.Type.(*binding.NodeType)
	if nt == nil {
		return nil
	}
	type candidate struct {
		item           CompletionItem
		required       bool
		alreadyPresent bool
	}
	var cands []candidate
	for _, pd := range nt.Properties {
		if pd.Matcher || pd.Requirement == binding.Omitted {
			continue
		}
		_, present := node.Properties[pd.Name]
		cands = append(cands, candidate{
			item:           CompletionItem{Label: pd.Name, Detail: pd.Description, Kind: CompletionProperty},
			required:       pd.Requirement == binding.Required,
			alreadyPresent: present,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].required != cands[j].required {
			return cands[i].required // required first
		}
		if cands[i].alreadyPresent != cands[j].alreadyPresent {
			return !cands[i].alreadyPresent // not-yet-present first
		}
		return cands[i].item.Label < cands[j].item.Label
	})
	out := make([]CompletionItem, len(cands))
	for i, c := range cands {
		out[i] = c.item
	}
	return out
}
