package runtime

import (
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/expr"
)

// Result is the output of evaluating a context's documents into one runtime
// tree.
type Result struct {
	Root  *Node
	Diags []diag.Diagnostic

	// Labels is the final label -> node binding table, for callers (the
	// binding engine, the query layer) that need to resolve a
	// LabelRefValue/NodePathRefValue independently of the merge pass.
	Labels map[string]*Node
}

// ResolvePath resolves an absolute devicetree path ("/soc/uart@1000") from
// the result's root, the same way a `&{...}` reference is resolved during
// merge.
func (r Result) ResolvePath(path string) (*Node, bool) {
	return resolvePathFrom(r.Root, path)
}

// Doc pairs a parsed document with the URI it came from, in the order the
// context lists its main source followed by overlays — the order that
// determines last-write-wins semantics during merge.
type Doc struct {
	URI   string
	Stmts []ast.Stmt
}

// Evaluate runs the five-step algorithm from spec.md §4.5 over docs, in the
// given order, producing one runtime tree plus every merge-time diagnostic.
// lookup resolves a macro name to its constant value (normally the
// preprocessor's Registry.IntLookup for the context); it may be nil.
func Evaluate(docs []Doc, lookup expr.MacroLookup) Result {
	e := &evaluator{
		root:   newNode(nil, "", nil),
		labels: newLabelIndex(),
		lookup: lookup,
	}
	for _, d := range docs {
		e.mergeStmts(e.root, d.Stmts, d.URI)
	}
	e.evaluateExpressions(e.root)
	e.assignPhandles()
	labels := make(map[string]*Node, len(e.labels.bindings))
	for name, b := range e.labels.bindings {
		labels[name] = b.node
	}
	return Result{Root: e.root, Diags: e.diags, Labels: labels}
}

type evaluator struct {
	root   *Node
	labels *labelIndex
	lookup expr.MacroLookup
	idx    int
	diags  []diag.Diagnostic
}

func (e *evaluator) nextIndex() int {
	i := e.idx
	e.idx++
	return i
}

// mergeStmts implements the flatten+merge steps, recursing structurally over
// the AST instead of building an intermediate flat list first: since the
// statement counter increments in exactly the same top-to-bottom,
// parent-before-children order a true flatten pass would visit, the result
// is the same ordered sequence spec.md §4.5 describes.
func (e *evaluator) mergeStmts(current *Node, stmts []ast.Stmt, originURI string) {
	for _, s := range stmts {
		switch s.Kind() {
		case ast.KindRootNode:
			e.mergeRootNode(s.AsRootNode(), originURI)
		case ast.KindChildNode:
			e.mergeChildNode(current, s.AsChildNode(), originURI)
		case ast.KindRefNode:
			e.mergeRefNode(current, s.AsRefNode(), originURI)
		case ast.KindProperty:
			e.mergeProperty(current, s.AsProperty(), originURI)
		case ast.KindDeleteNode:
			e.mergeDeleteNode(current, s.AsDeleteNode())
		case ast.KindDeleteProperty:
			e.mergeDeleteProperty(current, s.AsDeleteProperty())
		case ast.KindInclude, ast.KindCommentBlock, ast.KindCommentLine:
			// inert with respect to the runtime tree
		}
	}
}

func (e *evaluator) mergeRootNode(s *ast.RootNode, originURI string) {
	idx := e.nextIndex()
	e.root.Definitions = append(e.root.Definitions, Definition{Stmt: s, OriginURI: originURI, StatementIndex: idx})
	e.bindLabels(e.root, s.Labels, idx)
	e.mergeStmts(e.root, s.Body, originURI)
}

func (e *evaluator) mergeChildNode(parent *Node, s *ast.ChildNode, originURI string) {
	child, exists := parent.childByName[s.Name]
	if !exists {
		child = newNode(parent, s.Name, s.Address)
		parent.childByName[s.Name] = child
		parent.Children = append(parent.Children, child)
	}
	idx := e.nextIndex()
	child.Definitions = append(child.Definitions, Definition{Stmt: s, OriginURI: originURI, StatementIndex: idx})
	e.bindLabels(child, s.Labels, idx)
	e.mergeStmts(child, s.Body, originURI)
}

func (e *evaluator) mergeRefNode(current *Node, s *ast.RefNode, originURI string) {
	atIdx := e.idx
	var target *Node
	var resolved bool
	switch s.RefKind {
	case ast.RefByLabel:
		target, resolved = e.labels.resolve(s.RefLabel, atIdx)
		if !resolved {
			e.diags = append(e.diags, diag.New(diag.UnableToResolveChildNode, diag.SeverityError, s.Range(),
				"cannot resolve label %q", s.RefLabel))
		}
	case ast.RefByPath:
		target, resolved = e.resolvePath(s.RefPath)
		if !resolved {
			e.diags = append(e.diags, diag.New(diag.UnableToResolveNodePath, diag.SeverityError, s.Range(),
				"cannot resolve path %q", s.RefPath))
		}
	}
	idx := e.nextIndex()
	if !resolved {
		return
	}
	target.ReferencedBy = append(target.ReferencedBy, Definition{Stmt: s, OriginURI: originURI, StatementIndex: idx})
	e.bindLabels(target, s.Labels, idx)
	e.mergeStmts(target, s.Body, originURI)
}

// resolvePath walks the runtime tree from root by path components, the way
// `&{/soc/uart@1000}` is resolved: each component matched against a child's
// full "name@addr" rendering, or its bare base name when the component
// carries no address.
func (e *evaluator) resolvePath(path string) (*Node, bool) {
	return resolvePathFrom(e.root, path)
}

func resolvePathFrom(root *Node, path string) (*Node, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return root, true
	}
	cur := root
	for _, comp := range strings.Split(path, "/") {
		next, ok := cur.childByName[comp]
		if !ok {
			// allow matching by base name alone when comp carries no '@'
			for name, c := range cur.childByName {
				base := name
				if at := strings.IndexByte(name, '@'); at >= 0 {
					base = name[:at]
				}
				if base == comp {
					next = c
					ok = true
					break
				}
			}
		}
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (e *evaluator) bindLabels(node *Node, labels []ast.Label, idx int) {
	for _, l := range labels {
		if first, ok := e.labels.define(l.Name, node, idx, l.Range); !ok {
			e.diags = append(e.diags, diag.New(diag.LabelAlreadyInUse, diag.SeverityError, l.Range,
				"label %q already in use", l.Name).WithRelated(diag.RelatedInfo{Range: first, Message: "first defined here"}))
			continue
		}
		node.Labels = append(node.Labels, Label{Name: l.Name, Range: l.Range, DefinedAt: idx})
	}
}

func (e *evaluator) mergeProperty(node *Node, s *ast.Property, originURI string) {
	idx := e.nextIndex()
	site := PropertySite{Stmt: s, OriginURI: originURI, StatementIndex: idx}

	if s.Values != nil {
		for _, v := range s.Values.Items {
			e.validateValueRef(v, idx)
		}
	}

	existing, has := node.Properties[s.Name]
	if !has {
		node.recordProperty(&Property{
			Name:     s.Name,
			DeclSite: s.Range(),
			Values:   s.Values,
			History:  []PropertySite{site},
		})
		return
	}

	// Primary range is the first declaration's name span (the one now
	// shadowed), with the overriding duplicate's name span linked as
	// related — the diagnostic is anchored on the original statement, not
	// the override.
	first := existing.History[0]
	e.diags = append(e.diags, diag.New(diag.DuplicatePropertyName, diag.SeverityWarning, first.Stmt.NameRange,
		"property %q already declared", s.Name).WithRelated(diag.RelatedInfo{
		Range:   s.NameRange,
		Message: "overridden here",
	}))
	existing.Values = s.Values
	existing.History = append(existing.History, site)
	existing.DeclSite = s.Range()
}

// validateValueRef checks a property value for a label/path reference that
// cannot be resolved at the statement index it was declared at, recursing
// into array cells. Resolution failures here don't block the merge — the
// property keeps whatever value it parsed to — they only raise a
// diagnostic, since a dangling reference is a semantic defect, not a
// structural one.
func (e *evaluator) validateValueRef(v ast.Value, atIdx int) {
	switch v.ValueKind() {
	case ast.ValueArray:
		for _, c := range v.AsArray().Cells {
			e.validateValueRef(c, atIdx)
		}
	case ast.ValueLabelRef:
		lv := v.AsLabelRef()
		if _, ok := e.labels.resolve(lv.Label, atIdx); !ok {
			e.diags = append(e.diags, diag.New(diag.UnableToResolveChildNode, diag.SeverityError, lv.Range(),
				"cannot resolve label %q", lv.Label))
		}
	case ast.ValueNodePathRef:
		pv := v.AsNodePathRef()
		if _, ok := e.resolvePath(pv.Path); !ok {
			e.diags = append(e.diags, diag.New(diag.UnableToResolveNodePath, diag.SeverityError, pv.Range(),
				"cannot resolve path %q", pv.Path))
		}
	}
}

func (e *evaluator) mergeDeleteProperty(node *Node, s *ast.DeleteProperty) {
	idx := e.nextIndex()
	prop, ok := node.Properties[s.Target]
	if !ok {
		e.diags = append(e.diags, diag.New(diag.DeleteOfAbsentTarget, diag.SeverityError, s.Range(),
			"no property %q to delete", s.Target))
		return
	}
	deletedAt := idx
	prop.DeletedAtIndex = &deletedAt
	delete(node.Properties, s.Target)
	for i, n := range node.propOrder {
		if n == s.Target {
			node.propOrder = append(node.propOrder[:i], node.propOrder[i+1:]...)
			break
		}
	}
}

func (e *evaluator) mergeDeleteNode(current *Node, s *ast.DeleteNode) {
	atIdx := e.idx
	var target *Node
	var resolved bool
	switch s.TargetKind {
	case ast.RefByLabel:
		target, resolved = e.labels.resolve(s.Target, atIdx)
	case ast.RefByPath:
		if strings.Contains(s.Target, "/") {
			target, resolved = e.resolvePath(s.Target)
		} else {
			target, resolved = current.childByName[s.Target]
			if !resolved {
				for name, c := range current.childByName {
					base := name
					if at := strings.IndexByte(name, '@'); at >= 0 {
						base = name[:at]
					}
					if base == s.Target {
						target, resolved = c, true
						break
					}
				}
			}
		}
	}
	idx := e.nextIndex()
	if !resolved {
		e.diags = append(e.diags, diag.New(diag.DeleteOfAbsentTarget, diag.SeverityError, s.Range(),
			"no node %q to delete", s.Target))
		return
	}
	deletedAt := idx
	target.DeletedAtIndex = &deletedAt
	if parent := target.Parent; parent != nil {
		for name, c := range parent.childByName {
			if c == target {
				delete(parent.childByName, name)
				break
			}
		}
		for i, c := range parent.Children {
			if c == target {
				parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
				break
			}
		}
	}
	for _, l := range target.Labels {
		e.labels.forget(l.Name)
	}
}

// evaluateExpressions walks every property's value tree after merge,
// resolving each ExpressionValue's captured source text now that the
// complete macro table is known — the same pass spec.md describes the
// binding engine relying on for constant cell values.
func (e *evaluator) evaluateExpressions(node *Node) {
	for _, name := range node.propOrder {
		p := node.Properties[name]
		if p.Values == nil {
			continue
		}
		for _, v := range p.Values.Items {
			e.evaluateValue(v)
		}
	}
	for _, c := range node.Children {
		e.evaluateExpressions(c)
	}
}

func (e *evaluator) evaluateValue(v ast.Value) {
	switch v.ValueKind() {
	case ast.ValueArray:
		for _, c := range v.AsArray().Cells {
			e.evaluateValue(c)
		}
	case ast.ValueExpression:
		ev := v.AsExpression()
		if ev.Eval != nil {
			return
		}
		if result, err := expr.Eval(ev.Source, e.lookup); err == nil {
			ev.Eval = &result
		}
	}
}
