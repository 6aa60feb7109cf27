// Package settings defines the client-configurable Settings object (spec.md
// §6's "Settings object") governing include search paths, binding dialect,
// binding file roots, and formatter behavior, following the same
// FillDefaults/Validate shape as server/config.go's Config.
package settings

import "fmt"

// BindingType selects the binding dialect a context loads bindings from;
// only the selected dialect's loader is built.
type BindingType string

const (
	BindingNone      BindingType = "none"
	BindingZephyr    BindingType = "zephyr"
	BindingDeviceOrg BindingType = "devicetree-org"
)

// Settings is a configuration for one context manager instance.
type Settings struct {
	// DefaultIncludePaths is the preprocessor search path used for
	// `#include`/`/include/` resolution when a context doesn't override it.
	DefaultIncludePaths []string

	// DefaultBindingType selects which binding dialect new contexts use.
	DefaultBindingType BindingType

	// ZephyrBindings and DeviceOrgTreeBindings are ordered lists of binding
	// directory roots. Zephyr bindings are matched among the "*.yaml"/"*.yml"
	// files directly in each root; subdirectories are not searched. The
	// devicetree.org roots are walked recursively for "*.yaml"/"*.json"
	// files, with no directory excluded. Only the first
	// DeviceOrgBindingsMetaSchema entry is used, as the schema loader's
	// meta-schema path.
	ZephyrBindings              []string
	DeviceOrgTreeBindings       []string
	DeviceOrgBindingsMetaSchema []string

	// DefaultLockRenameEdits is stored with the settings; nothing in this
	// module reads it, and the formatter's output does not depend on it.
	DefaultLockRenameEdits bool

	// Cwd is stored with the settings; nothing in this module reads it.
	Cwd string
}

// FillDefaults returns a copy of s with unset fields set to their defaults.
func (s Settings) FillDefaults() Settings {
	out := s
	if out.DefaultBindingType == "" {
		out.DefaultBindingType = BindingNone
	}
	if out.DefaultIncludePaths == nil {
		out.DefaultIncludePaths = []string{}
	}
	if out.ZephyrBindings == nil {
		out.ZephyrBindings = []string{}
	}
	if out.DeviceOrgTreeBindings == nil {
		out.DeviceOrgTreeBindings = []string{}
	}
	if out.DeviceOrgBindingsMetaSchema == nil {
		out.DeviceOrgBindingsMetaSchema = []string{}
	}
	return out
}

// Validate returns an error if s has invalid field values. Call it on the
// return value of FillDefaults so unset-but-valid fields aren't flagged.
func (s Settings) Validate() error {
	switch s.DefaultBindingType {
	case BindingNone, BindingZephyr, BindingDeviceOrg:
	default:
		return fmt.Errorf("defaultBindingType: must be one of %q, %q, %q, got %q",
			BindingNone, BindingZephyr, BindingDeviceOrg, s.DefaultBindingType)
	}
	if s.DefaultBindingType == BindingZephyr && len(s.ZephyrBindings) == 0 {
		return fmt.Errorf("defaultBindingType is %q but zephyrBindings has no roots", BindingZephyr)
	}
	if s.DefaultBindingType == BindingDeviceOrg && len(s.DeviceOrgTreeBindings) == 0 {
		return fmt.Errorf("defaultBindingType is %q but deviceOrgTreeBindings has no roots", BindingDeviceOrg)
	}
	return nil
}
