// SPDX-License-Identifier: MPL-2.0

package plugins

import (
	"context"

	"github.com/pubcheck/pubcheck/internal/namespace"
	"github.com/pubcheck/pubcheck/internal/publish"
)

const stripNamespacesDescription = "### Clashing node names found\n\n" +
	"Sibling nodes were found that clash by node name when the namespace\n" +
	"is stripped off. Choose to either **not** strip the namespaces or\n" +
	"correct the hierarchy so siblings have unique node names.\n\n" +
	"For example this is a conflict:\n" +
	"```\n- /grp/namespace:bar\n- /grp/other:bar\n```\n" +
	"Because each of the entries, when namespaces are stripped, results\n" +
	"in the same destination path: `/grp/bar`."

// stripNamespacesToggles are the extractor attributes that decide whether an
// export strips namespaces. The first plug-in with values wins.
var stripNamespacesToggles = []struct{ plugin, attr string }{
	{"ExtractAnimation", "stripNamespaces"},
	{"ExtractAlembic", "stripNamespaces"},
	{"ExtractMayaUsdAnim", "stripNamespaces"},
	{"ExtractMayaUsdModel", "stripNamespaces"},
	{"ExtractMayaUsdPointcache", "stripNamespaces"},
	{"ExtractMayaUsd", "stripNamespaces"},
}

// ValidateStripNamespacesUniqueness ensures no two nodes end up on the same
// path when the export strips namespaces.
type ValidateStripNamespacesUniqueness struct{ base }

// NewValidateStripNamespacesUniqueness returns the namespace stripping check.
func NewValidateStripNamespacesUniqueness() *ValidateStripNamespacesUniqueness {
	return &ValidateStripNamespacesUniqueness{base{
		name:     "ValidateStripNamespacesUniqueness",
		label:    "Strip Namespaces Uniqueness",
		order:    publish.ValidateContentsOrder,
		families: []string{"animation", "pointcache", "usd"},
		optional: true,
	}}
}

// Validate reports members that collide once their namespaces are removed.
func (v *ValidateStripNamespacesUniqueness) Validate(_ context.Context, pass *publish.Pass, inst *publish.Instance) error {
	logger := pass.Logger()
	if !stripsNamespaces(pass, inst) {
		logger.Debug("Namespaces are kept on export", "instance", inst.Name)
		return nil
	}

	collisions := namespace.Collisions(inst.Members)
	if len(collisions) == 0 {
		return nil
	}
	for _, c := range collisions {
		if c.Reported {
			logger.Warn("Clashing nodes at path", "path", c.Stripped)
		}
		for _, p := range c.Paths {
			logger.Debug("Clashing node", "node", p)
		}
	}
	return publish.Fail(
		"Clashing sibling node names",
		"Clashing sibling node names found.",
		namespace.Invalid(collisions)...,
	).WithDescription(stripNamespacesDescription)
}

func stripsNamespaces(pass *publish.Pass, inst *publish.Instance) bool {
	for _, toggle := range stripNamespacesToggles {
		if _, ok := inst.PublishAttributes[toggle.plugin]; !ok {
			continue
		}
		value, _ := inst.PluginAttr(toggle.plugin, toggle.attr)
		state, set := value.(bool)
		if !set {
			state = true
		}
		pass.Logger().Debug("Found plug-in attribute values",
			"plugin", toggle.plugin, "attr", toggle.attr, "value", state)
		return state
	}
	return false
}
