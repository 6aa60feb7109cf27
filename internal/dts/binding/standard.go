package binding

// standardByName holds the built-in NodeType used when no compatible
// string matches a loaded binding, keyed by node base name, per spec.md
// §4.6's list: "/", "aliases", "memory", "reserved-memory", "chosen",
// "cpus", "cpu".
var standardByName = map[string]*NodeType{
	"": {
		Compatible: "/",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "#address-cells", Types: []PropertyType{TypeU32}, Requirement: Optional},
			{Name: "#size-cells", Types: []PropertyType{TypeU32}, Requirement: Optional},
			{Name: "model", Types: []PropertyType{TypeString}, Requirement: Optional},
			{Name: "compatible", Types: []PropertyType{TypeStringList}, Requirement: Optional},
		},
	},
	"aliases": {
		Compatible: "aliases",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "", Matcher: true, Types: []PropertyType{TypeString}, Requirement: Optional},
		},
	},
	"chosen": {
		Compatible: "chosen",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "", Matcher: true, Types: []PropertyType{TypeString, TypeU32, TypeU64}, Requirement: Optional},
		},
	},
	"memory": {
		Compatible: "memory",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "device_type", Types: []PropertyType{TypeString}, Requirement: Required, Const: "memory"},
			{Name: "reg", Types: []PropertyType{TypeArray}, Requirement: Required},
		},
	},
	"reserved-memory": {
		Compatible: "reserved-memory",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "#address-cells", Types: []PropertyType{TypeU32}, Requirement: Required},
			{Name: "#size-cells", Types: []PropertyType{TypeU32}, Requirement: Required},
			{Name: "ranges", Types: []PropertyType{TypeBoolean, TypeArray}, Requirement: Optional},
		},
	},
	"cpus": {
		Compatible: "cpus",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "#address-cells", Types: []PropertyType{TypeU32}, Requirement: Required},
			{Name: "#size-cells", Types: []PropertyType{TypeU32}, Requirement: Required, Const: int64(0)},
		},
	},
	"cpu": {
		Compatible: "cpu",
		Source:     "<standard>",
		Properties: []PropertyDef{
			{Name: "device_type", Types: []PropertyType{TypeString}, Requirement: Required, Const: "cpu"},
			{Name: "reg", Types: []PropertyType{TypeArray}, Requirement: Required},
			{Name: "compatible", Types: []PropertyType{TypeStringList}, Requirement: Optional},
		},
	},
}

// standardDefault returns the built-in type for a node's base name, if
// any.
func standardDefault(baseName string) (*NodeType, bool) {
	nt, ok := standardByName[baseName]
	return nt, ok
}
