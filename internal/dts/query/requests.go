package query

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/binding"
	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/cpp"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// CompiledDTSOutput renders ctx's merged runtime tree back to devicetree
// source, the effective tree after every overlay/delete/reference has been
// applied — not a reprint of any one input file.
func CompiledDTSOutput(root *runtime.Node) string {
	var sb strings.Builder
	writeCompiledNode(&sb, root, 0)
	return sb.String()
}

func writeCompiledNode(sb *strings.Builder, n *runtime.Node, depth int) {
	indent := strings.Repeat("\t", depth)
	head := "/"
	if depth > 0 {
		head = n.Path[len(n.Path)-1]
	}
	for _, l := range n.Labels {
		head = l.Name + ": " + head
	}
	sb.WriteString(indent + head + " {\n")
	for _, name := range n.PropertyOrder() {
		p := n.Properties[name]
		if p.Values == nil {
			sb.WriteString(indent + "\t" + p.Name + ";\n")
			continue
		}
		sb.WriteString(indent + "\t" + p.Name + " = " + printValueList(p.Values) + ";\n")
	}
	for _, c := range n.Children {
		writeCompiledNode(sb, c, depth+1)
	}
	sb.WriteString(indent + "};\n")
}

// contextSummary is the shape serializedContext encodes: enough of a
// context's state for a client-side debug view without exposing the
// runtime tree's internal pointers.
type contextSummary struct {
	ID              string   `toml:"id"`
	Name            string   `toml:"name"`
	RootURI         string   `toml:"root_uri"`
	Generation      uint64   `toml:"generation"`
	Stable          bool     `toml:"stable"`
	Files           []string `toml:"files"`
	DiagnosticCount int      `toml:"diagnostic_count"`
}

// SerializedContext renders ctx as TOML, for the `serializedContext`
// request.
func SerializedContext(ctx *context.Context) (string, error) {
	s := contextSummary{
		ID:              ctx.ID,
		Name:            ctx.Name,
		RootURI:         ctx.RootURI,
		Generation:      ctx.Generation(),
		Stable:          ctx.Stable(),
		Files:           ctx.Files(),
		DiagnosticCount: len(ctx.Diagnostics()),
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ActivePath returns the devicetree path of the node enclosing pos, for the
// `activePath` request (the client's breadcrumb/status-bar display).
func ActivePath(root *runtime.Node, uri string, pos token.Pos) (string, bool) {
	node, ok := FindNode(root, uri, pos)
	if !ok {
		return "", false
	}
	return nodePath(node), true
}

// CustomAction is one action offered by the `customActions` request.
type CustomAction struct {
	Title    string
	Property string // property the action would add, if any
}

// CustomActions lists quick fixes available at pos: one "add missing
// required property" per required property the enclosing node's binding
// declares but doesn't yet have.
func CustomActions(root *runtime.Node, uri string, pos token.Pos) []CustomAction {
	node, ok := FindNode(root, uri, pos)
	if !ok {
		return nil
	}
	nt, _ := node.Type.(*binding.NodeType)
	var out []CustomAction
	for _, item := range propertyCompletions(node) {
		_, present := node.Properties[item.Label]
		if pd, _ := findPropertyDef(nt, item.Label); !present && pd.Requirement == binding.Required {
			out = append(out, CustomAction{Title: "Add property " + item.Label, Property: item.Label})
		}
	}
	return out
}

// EvalMacros resolves each of names against reg, for the `evalMacros`
// request. A name with no integer-constant definition is omitted rather
// than reported as zero.
func EvalMacros(reg *cpp.Registry, names []string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		if v, ok := reg.IntLookup(name); ok {
			out[name] = v
		}
	}
	return out
}

// ContextMacroNames returns every macro name reg has a definition for,
// sorted, for the `contextMacroNames` request.
func ContextMacroNames(reg *cpp.Registry) []string {
	names := reg.Names()
	sort.Strings(names)
	return names
}

// MemoryView is one `reg` entry decoded as a base/size pair, for the
// `memoryViews` request. The reg cells are read as consecutive pairs of one
// base cell and one size cell; the effective #address-cells and
// #size-cells are not consulted.
type MemoryView struct {
	Path string
	Base uint64
	Size uint64
}

// MemoryViews walks root collecting every node's `reg` property as a list
// of base/size pairs.
func MemoryViews(root *runtime.Node) []MemoryView {
	var out []MemoryView
	var walk func(n *runtime.Node)
	walk = func(n *runtime.Node) {
		if p, ok := n.Properties["reg"]; ok {
			out = append(out, regPairs(n, p)...)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func regPairs(n *runtime.Node, p *runtime.Property) []MemoryView {
	if p.Values == nil || len(p.Values.Items) == 0 {
		return nil
	}
	arr := p.Values.Items[0].AsArray()
	if arr == nil {
		return nil
	}
	var cells []uint64
	for _, c := range arr.Cells {
		if c.ValueKind() != ast.ValueExpression {
			return nil
		}
		ev := c.AsExpression()
		if ev.Eval == nil {
			return nil
		}
		cells = append(cells, uint64(*ev.Eval))
	}
	var out []MemoryView
	for i := 0; i+1 < len(cells); i += 2 {
		out = append(out, MemoryView{Path: nodePath(n), Base: cells[i], Size: cells[i+1]})
	}
	return out
}

// ZephyrBindingSummary is one binding file's headline fields, for the
// `zephyrTypeBindings` request.
type ZephyrBindingSummary struct {
	Compatible  string
	Description string
}

// ZephyrTypeBindings scans every `*.yaml`/`*.yml` file directly under each
// of searchPaths and returns the compatible strings it declares, the same
// directory shape binding.ZephyrLoader.LoadByCompatible walks.
func ZephyrTypeBindings(searchPaths []string) []ZephyrBindingSummary {
	var out []ZephyrBindingSummary
	for _, dir := range searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			var doc struct {
				Compatible  string `yaml:"compatible"`
				Description string `yaml:"description"`
			}
			if err := yaml.Unmarshal(data, &doc); err != nil || doc.Compatible == "" {
				continue
			}
			out = append(out, ZephyrBindingSummary{Compatible: doc.Compatible, Description: doc.Description})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compatible < out[j].Compatible })
	return out
}

// LocationScope describes the node/property enclosing a position, for the
// `locationScopeInformation` request.
type LocationScope struct {
	Path     string
	Property string // empty if pos is not inside a property
}

// LocationScopeInformation reports the enclosing node path, and property
// name if any, for pos.
func LocationScopeInformation(root *runtime.Node, uri string, pos token.Pos) (LocationScope, bool) {
	if node, prop, ok := FindProperty(root, uri, pos); ok {
		return LocationScope{Path: nodePath(node), Property: prop.Name}, true
	}
	if node, ok := FindNode(root, uri, pos); ok {
		return LocationScope{Path: nodePath(node)}, true
	}
	return LocationScope{}, false
}

// FormatTextEdit is a single whole-document replacement, for the
// `formatTextEdits` request: the server reformats the whole file rather
// than computing a minimal per-line diff, and lets the client's own
// text-edit application collapse it.
type FormatTextEdit struct {
	URI     string
	NewText string
}

// FormatTextEdits formats src and returns the single edit replacing its
// entire contents, or false if src didn't parse.
func FormatTextEdits(uri, src string, opts FormatOptions) (FormatTextEdit, bool) {
	out, ok := Format(uri, src, opts)
	if !ok {
		return FormatTextEdit{}, false
	}
	return FormatTextEdit{URI: uri, NewText: out}, true
}
