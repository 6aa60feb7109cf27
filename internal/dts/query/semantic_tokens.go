package query

import (
	"sort"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// SemanticTokenType classifies a SemanticToken. The order here is the
// legend's index order: a transport maps each value to its protocol token
// type string in this same order.
type SemanticTokenType int

const (
	TokenNamespace SemanticTokenType = iota // node name
	TokenProperty                           // property name
	TokenLabel                              // label definition
)

// SemanticTokenTypeNames is the legend backing SemanticTokenType, in the
// standard LSP semantic token type names a client will already recognize.
var SemanticTokenTypeNames = []string{"namespace", "property", "label"}

// SemanticToken is one classified span of source text.
type SemanticToken struct {
	Range token.Range
	Type  SemanticTokenType
}

// SemanticTokens collects every node-name, property-name, and
// label-definition token that originates in uri, in source order, for
// textDocument/semanticTokens/full. Property, node, and runtime-evaluator
// diagnostics aside, this never fails: a file with no tokens (an empty
// overlay, say) just returns an empty slice.
func SemanticTokens(root *runtime.Node, uri string) []SemanticToken {
	var out []SemanticToken
	collectSemanticTokens(root, uri, &out)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

func collectSemanticTokens(n *runtime.Node, uri string, out *[]SemanticToken) {
	for _, l := range n.Labels {
		if l.Range.URI == uri {
			*out = append(*out, SemanticToken{Range: l.Range, Type: TokenLabel})
		}
	}

	for _, def := range n.Definitions {
		if def.OriginURI != uri {
			continue
		}
		if def.Stmt.Kind() == ast.KindChildNode {
			*out = append(*out, SemanticToken{Range: def.Stmt.AsChildNode().NameRange, Type: TokenNamespace})
		}
	}

	for _, name := range n.PropertyOrder() {
		p, ok := n.Properties[name]
		if !ok {
			continue
		}
		for _, site := range p.History {
			if site.OriginURI == uri {
				*out = append(*out, SemanticToken{Range: site.Stmt.NameRange, Type: TokenProperty})
			}
		}
	}

	for _, c := range n.Children {
		collectSemanticTokens(c, uri, out)
	}
}
