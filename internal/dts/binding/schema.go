package binding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaLoader resolves devicetree.org-style bindings: JSON-Schema 2019-09
// documents (conventionally authored as YAML) whose `$id` ends in
// "/<compatible>.yaml#". Unlike the Zephyr dialect, a schema binding is
// matched by $id rather than a `compatible:` field, and validated wholesale
// through a compiled jsonschema.Schema rather than walked property-by-property.
type SchemaLoader struct {
	SearchPaths []string
	MetaSchema  string // optional path to a local copy of the 2019-09 meta-schema

	compiler *jsonschema.Compiler
	byID     map[string]*jsonschema.Schema
}

func NewSchemaLoader(searchPaths []string, metaSchema string) *SchemaLoader {
	return &SchemaLoader{SearchPaths: searchPaths, MetaSchema: metaSchema, byID: map[string]*jsonschema.Schema{}}
}

func (l *SchemaLoader) ensureCompiler() (*jsonschema.Compiler, error) {
	if l.compiler != nil {
		return l.compiler, nil
	}
	c := jsonschema.NewCompiler()
	c.UseLoader(yamlLoader{})
	l.compiler = c
	return c, nil
}

// yamlLoader lets jsonschema.Compiler read devicetree.org binding files
// authored as YAML (their convention) rather than requiring JSON on disk.
type yamlLoader struct{}

func (yamlLoader) Load(url string) (any, error) {
	path := strings.TrimPrefix(url, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalizeYAMLNode(v), nil
}

// normalizeYAMLNode converts yaml.v3's map[string]any-with-any-keys decode
// result into the map[string]interface{} shape jsonschema expects; yaml.v3
// already decodes mapping keys as strings when the target is `any`, but
// nested maps still need recursing into for consistency.
func normalizeYAMLNode(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLNode(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLNode(val)
		}
		return out
	default:
		return v
	}
}

// LoadByCompatible finds the schema file whose $id ends with
// "/<compatible>.yaml#" (or ".json#") and returns it as a NodeType whose
// AdditionalCheck hook runs full schema validation against the node's
// properties.
func (l *SchemaLoader) LoadByCompatible(compatible string) (*NodeType, bool) {
	c, err := l.ensureCompiler()
	if err != nil {
		return nil, false
	}
	for _, dir := range l.SearchPaths {
		var found string
		_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".json") {
				return nil
			}
			if fileDeclaresCompatible(path, compatible) {
				found = path
			}
			return nil
		})
		if found == "" {
			continue
		}
		schema, err := c.Compile(found)
		if err != nil {
			continue
		}
		l.byID[compatible] = schema
		return schemaToNodeType(compatible, found, schema), true
	}
	return nil, false
}

func fileDeclaresCompatible(path, compatible string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc struct {
		ID string `yaml:"$id"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false
	}
	return strings.HasSuffix(doc.ID, "/"+compatible+".yaml#") || strings.HasSuffix(doc.ID, "/"+compatible+".json#")
}

func schemaToNodeType(compatible, source string, schema *jsonschema.Schema) *NodeType {
	return &NodeType{
		Compatible: compatible,
		Source:     source,
		Properties: []PropertyDef{
			{
				Name:        "",
				Matcher:     true,
				Requirement: Optional,
				AdditionalCheck: func(ctx *CheckContext) []Diagnostic {
					return validateAgainstSchema(ctx, schema)
				},
			},
		},
	}
}

// validateAgainstSchema builds a plain JSON-ish document from the node's
// evaluated properties and runs it through the compiled schema, translating
// each jsonschema validation error into a Diagnostic anchored on the
// matching property's declaration site when one can be found.
func validateAgainstSchema(c *CheckContext, schema *jsonschema.Schema) []Diagnostic {
	doc := map[string]any{}
	for _, name := range c.Node.PropertyOrder() {
		p := c.Node.Properties[name]
		doc[name] = propertyToJSONValue(p)
	}
	if err := schema.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []Diagnostic{{Kind: KindSchemaValidationFailure, Severity: SevError, Range: nodeDeclSite(c.Node),
				Message: err.Error()}}
		}
		return flattenSchemaErrors(c, ve)
	}
	return nil
}

// nodeDeclSite returns a node's first definition site, for diagnostics that
// apply to the node as a whole rather than one of its properties.
func nodeDeclSite(n *runtime.Node) token.Range {
	if len(n.Definitions) == 0 {
		return token.Range{}
	}
	return n.Definitions[0].Stmt.Range()
}

func flattenSchemaErrors(c *CheckContext, ve *jsonschema.ValidationError) []Diagnostic {
	var out []Diagnostic
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		rng := nodeDeclSite(c.Node)
		if len(e.InstanceLocation) > 0 {
			if p, ok := c.Node.Properties[e.InstanceLocation[0]]; ok {
				rng = p.DeclSite
			}
		}
		out = append(out, Diagnostic{Kind: KindSchemaValidationFailure, Severity: SevError, Range: rng,
			Message: fmt.Sprintf("%s: %s", strings.Join(e.InstanceLocation, "/"), e.Error())})
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

// propertyToJSONValue approximates a runtime.Property as a JSON-ish value
// for schema validation purposes: booleans as true, single cells as
// numbers, string lists as string arrays or bare strings, multi-cell arrays
// as number arrays, and anything else (e.g. an array holding references) as
// nil.
func propertyToJSONValue(p *runtime.Property) any {
	if p.Values == nil {
		return true // present with no value list: a devicetree boolean property
	}
	if vals, ok := stringListValues(p); ok {
		if len(vals) == 1 {
			return vals[0]
		}
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = v
		}
		return out
	}
	if cells, ok := arrayCells(p); ok {
		if len(cells) == 1 {
			return float64(cells[0])
		}
		out := make([]any, len(cells))
		for i, v := range cells {
			out[i] = float64(v)
		}
		return out
	}
	return nil
}
