package binding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// zephyrFile is the on-disk shape of a Zephyr-style tree binding YAML file:
// https://docs.zephyrproject.org/latest/build/dts/bindings.html. Property
// type strings are the Zephyr vocabulary ("string", "array", "phandle-array",
// ...), mapped to PropertyType in toPropertyDef.
type zephyrFile struct {
	Description string `yaml:"description"`
	Compatible  string `yaml:"compatible"`
	Include     any    `yaml:"include"` // string, []string, or []zephyrInclude
	Bus         any    `yaml:"bus"`     // string or []string
	OnBus       string `yaml:"on-bus"`

	Properties map[string]zephyrProperty `yaml:"properties"`

	ChildBinding *zephyrFile `yaml:"child-binding"`

	CellsString []string `yaml:"#cells"` // legacy form; not generated, but tolerated
}

type zephyrInclude struct {
	Name             string   `yaml:"name"`
	PropertyAllowlist []string `yaml:"property-allowlist"`
	PropertyBlocklist []string `yaml:"property-blocklist"`
}

type zephyrProperty struct {
	Type         string `yaml:"type"`
	Required     bool   `yaml:"required"`
	Description  string `yaml:"description"`
	Enum         []any  `yaml:"enum"`
	Const        any    `yaml:"const"`
	Default      any    `yaml:"default"`
	SpecifierCellNames []string `yaml:"specifier-cell-names"`
}

// ZephyrLoader resolves Zephyr-style bindings from a search path list, the
// way west/zephyr's gen_defines.py walks a `dts/bindings` tree: a binding is
// looked up by its file's basename (without extension) from `include:`
// entries, not by directory structure.
type ZephyrLoader struct {
	SearchPaths []string

	cache map[string]*zephyrFile
}

func NewZephyrLoader(searchPaths []string) *ZephyrLoader {
	return &ZephyrLoader{SearchPaths: searchPaths, cache: map[string]*zephyrFile{}}
}

// LoadByCompatible finds the binding file whose top-level `compatible:`
// matches compatible, optionally restricted to a bus, and returns it as a
// resolved NodeType with its include chain flattened in.
func (l *ZephyrLoader) LoadByCompatible(compatible, bus string) (*NodeType, bool) {
	for _, dir := range l.SearchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			zf, err := l.load(path)
			if err != nil || zf.Compatible != compatible {
				continue
			}
			if bus != "" && zf.OnBus != "" && zf.OnBus != bus {
				continue
			}
			resolved, err := l.resolveIncludes(zf, path)
			if err != nil {
				continue
			}
			return zephyrToNodeType(resolved, path), true
		}
	}
	return nil, false
}

func (l *ZephyrLoader) load(path string) (*zephyrFile, error) {
	if zf, ok := l.cache[path]; ok {
		return zf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var zf zephyrFile
	if err := yaml.Unmarshal(data, &zf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.cache[path] = &zf
	return &zf, nil
}

// resolveIncludes merges a binding's include chain into a single flattened
// zephyrFile: each included file's properties are copied in first (so the
// including file's own properties take precedence on name collision), honoring
// an include entry's property-allowlist/property-blocklist.
func (l *ZephyrLoader) resolveIncludes(zf *zephyrFile, fromPath string) (*zephyrFile, error) {
	merged := &zephyrFile{
		Description:  zf.Description,
		Compatible:   zf.Compatible,
		Bus:          zf.Bus,
		OnBus:        zf.OnBus,
		Properties:   map[string]zephyrProperty{},
		ChildBinding: zf.ChildBinding,
	}
	for _, inc := range normalizeIncludes(zf.Include) {
		incPath := l.findByBasename(inc.Name)
		if incPath == "" {
			continue
		}
		incFile, err := l.load(incPath)
		if err != nil {
			return nil, err
		}
		resolved, err := l.resolveIncludes(incFile, incPath)
		if err != nil {
			return nil, err
		}
		for name, pd := range resolved.Properties {
			if !includeAllows(inc, name) {
				continue
			}
			merged.Properties[name] = pd
		}
		if merged.Bus == nil {
			merged.Bus = resolved.Bus
		}
	}
	for name, pd := range zf.Properties {
		merged.Properties[name] = pd
	}
	return merged, nil
}

func includeAllows(inc zephyrInclude, name string) bool {
	if len(inc.PropertyAllowlist) > 0 {
		for _, n := range inc.PropertyAllowlist {
			if n == name {
				return true
			}
		}
		return false
	}
	for _, n := range inc.PropertyBlocklist {
		if n == name {
			return false
		}
	}
	return true
}

func normalizeIncludes(raw any) []zephyrInclude {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []zephyrInclude{{Name: v}}
	case []any:
		var out []zephyrInclude
		for _, item := range v {
			switch iv := item.(type) {
			case string:
				out = append(out, zephyrInclude{Name: iv})
			case map[string]any:
				inc := zephyrInclude{}
				if n, ok := iv["name"].(string); ok {
					inc.Name = n
				}
				inc.PropertyAllowlist = toStringSlice(iv["property-allowlist"])
				inc.PropertyBlocklist = toStringSlice(iv["property-blocklist"])
				out = append(out, inc)
			}
		}
		return out
	default:
		return nil
	}
}

func toStringSlice(raw any) []string {
	v, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (l *ZephyrLoader) findByBasename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, dir := range l.SearchPaths {
		for _, ext := range []string{".yaml", ".yml"} {
			candidate := filepath.Join(dir, base+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

func zephyrToNodeType(zf *zephyrFile, source string) *NodeType {
	nt := &NodeType{
		Compatible:     zf.Compatible,
		Source:         source,
		OnBus:          zf.OnBus,
		CellSpecifiers: map[string]int{},
	}
	switch b := zf.Bus.(type) {
	case string:
		nt.Bus = b
	case []any:
		if len(b) > 0 {
			if s, ok := b[0].(string); ok {
				nt.Bus = s
			}
		}
	}
	for name, zp := range zf.Properties {
		nt.Properties = append(nt.Properties, zephyrPropertyToDef(name, zp))
	}
	if zf.ChildBinding != nil {
		nt.Child = zephyrToNodeType(zf.ChildBinding, source)
	}
	return nt
}

func zephyrPropertyToDef(name string, zp zephyrProperty) PropertyDef {
	pd := PropertyDef{
		Name:        name,
		Description: zp.Description,
		Default:     zp.Default,
		Const:       zp.Const,
	}
	if zp.Required {
		pd.Requirement = Required
	}
	for _, e := range zp.Enum {
		if s, ok := e.(string); ok {
			pd.Enum = append(pd.Enum, s)
		}
	}
	pd.Types = []PropertyType{zephyrTypeToPropertyType(zp.Type)}
	if zp.Type == "phandle-array" {
		if len(zp.SpecifierCellNames) > 0 {
			pd.SpecifierCells = zp.SpecifierCellNames[0]
		} else {
			pd.SpecifierCells = defaultSpecifierName(name)
		}
	}
	return pd
}

func zephyrTypeToPropertyType(t string) PropertyType {
	switch t {
	case "boolean":
		return TypeBoolean
	case "int":
		return TypeU32
	case "array":
		return TypeArray
	case "uint8-array":
		return TypeUint8Array
	case "string":
		return TypeString
	case "string-array":
		return TypeStringList
	case "phandle":
		return TypePhandle
	case "phandles", "phandle-array":
		return TypePhandleArray
	case "compound":
		return TypeCompound
	default:
		return TypeCompound
	}
}
