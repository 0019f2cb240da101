// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"slices"

	"github.com/pubcheck/pubcheck/pkg/types"
)

// ActiveAttribute is the publish attribute toggling an optional plug-in.
const ActiveAttribute = "active"

type (
	// Instance is the unit of work of a pass: a named set node whose members
	// are published as one product.
	Instance struct {
		Name        string
		ProductName string
		ProductType string
		Families    []string
		FolderPath  string
		FolderID    string
		Task        string
		// Active is false for instances switched off for publishing. Other
		// plug-ins may still inspect them.
		Active bool
		// Node is the set node holding the instance members.
		Node types.NodePath

		// SetMembers are the direct members of Node, filled by collection.
		SetMembers []types.NodePath
		// Members are SetMembers plus their DAG descendants in scene order.
		Members []types.NodePath

		// PublishAttributes holds per-plug-in values keyed by plug-in name.
		PublishAttributes map[string]map[string]any
		Data              map[string]any
		// Representations maps representation names to extracted files.
		Representations map[string]string
	}

	// Container is a loaded product in the scene, the input of inventory
	// actions.
	Container struct {
		Name           string         `json:"name" yaml:"name"`
		Loader         string         `json:"loader" yaml:"loader"`
		ObjectName     types.NodePath `json:"object_name" yaml:"object_name"`
		Namespace      string         `json:"namespace,omitempty" yaml:"namespace,omitempty"`
		Representation string         `json:"representation,omitempty" yaml:"representation,omitempty"`
	}
)

// AllFamilies returns the product type followed by the extra families.
func (i *Instance) AllFamilies() []string {
	out := make([]string, 0, len(i.Families)+1)
	if i.ProductType != "" {
		out = append(out, i.ProductType)
	}
	for _, f := range i.Families {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// HasFamily reports whether the instance carries any of families. An empty
// list or AllFamilies matches everything.
func (i *Instance) HasFamily(families ...string) bool {
	if len(families) == 0 || slices.Contains(families, AllFamilies) {
		return true
	}
	for _, f := range i.AllFamilies() {
		if slices.Contains(families, f) {
			return true
		}
	}
	return false
}

// PluginAttr returns a publish attribute set for plugin.
func (i *Instance) PluginAttr(plugin, attr string) (any, bool) {
	return lookupAttr(i.PublishAttributes, plugin, attr)
}

// PluginActive reports whether plugin is switched on for the instance.
// Plug-ins without an explicit toggle are active.
func (i *Instance) PluginActive(plugin string) bool {
	return attrActive(i.PublishAttributes, plugin)
}

// Contains reports whether node is among the collected members.
func (i *Instance) Contains(node types.NodePath) bool {
	return slices.Contains(i.Members, node)
}

// Paths reads a node list from Data. It accepts the typed form collectors
// store as well as the plain lists a scene description decodes to.
func (i *Instance) Paths(key string) ([]types.NodePath, bool) {
	switch v := i.Data[key].(type) {
	case []types.NodePath:
		return v, true
	case []string:
		out := make([]types.NodePath, len(v))
		for n, s := range v {
			out[n] = types.NodePath(s)
		}
		return out, true
	case []any:
		out := make([]types.NodePath, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, types.NodePath(s))
		}
		return out, true
	default:
		return nil, false
	}
}

// SetData stores a value in Data, allocating the map on first use.
func (i *Instance) SetData(key string, value any) {
	if i.Data == nil {
		i.Data = make(map[string]any)
	}
	i.Data[key] = value
}

// String returns the data value stored under key, or "".
func (i *Instance) String(key string) string {
	s, _ := i.Data[key].(string)
	return s
}

func lookupAttr(attrs map[string]map[string]any, plugin, attr string) (any, bool) {
	values, ok := attrs[plugin]
	if !ok {
		return nil, false
	}
	v, ok := values[attr]
	return v, ok
}

func attrActive(attrs map[string]map[string]any, plugin string) bool {
	v, ok := lookupAttr(attrs, plugin, ActiveAttribute)
	if !ok {
		return true
	}
	b, isBool := v.(bool)
	return !isBool || b
}
