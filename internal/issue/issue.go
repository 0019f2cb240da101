// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies a page of the issue catalog.
type Id int

const (
	FileNotFoundId Id = iota + 1
	SceneNotFoundId
	SceneParseErrorId
	ConfigLoadFailedId
	AssetDBUnavailableId
	PluginNotFoundId
	ValidationFailedId
	RepairFailedId
	PluginOrderCycleId
)

// Issue is a Markdown page explaining a failure and how to recover from it.
type Issue struct {
	id      Id
	body    string
	seeAlso []string
}

func (i *Issue) Id() Id { return i.id }

func (i *Issue) Markdown() string { return i.body }

// SeeAlso returns the external references of the page.
func (i *Issue) SeeAlso() []string { return slices.Clone(i.seeAlso) }

// Render renders the page with a glamour style ("dark", "light", "notty").
func (i *Issue) Render(style string) (string, error) {
	var md strings.Builder
	md.WriteString(i.body)
	if len(i.seeAlso) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.seeAlso {
			md.WriteString("\n- <" + link + ">")
		}
	}
	return render(md.String(), style)
}

// RenderMarkdown renders free-form Markdown, such as a validation
// description.
func RenderMarkdown(md, style string) (string, error) {
	return render(md, style)
}

var (
	render  = glamour.Render
	catalog = make(map[Id]*Issue)
)

func define(id Id, body string, seeAlso ...string) {
	catalog[id] = &Issue{id: id, body: body, seeAlso: seeAlso}
}

// Values returns the catalog ordered by id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(catalog))
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the page for id, or nil.
func Get(id Id) *Issue {
	return catalog[id]
}

func init() {
	define(FileNotFoundId, `
# File not found!

One of the files this command needs does not exist.

## Things you can try:
- Check the path for typos
- Paths are resolved relative to the current directory`)

	define(SceneNotFoundId, `
# Scene description not found!

The scene description you passed could not be read.

## Things you can try:
- Export the scene description from your workfile again
- Check the path passed to the command:
~~~
$ pubcheck validate ./shots/sh010/anim.cue
~~~`)

	define(SceneParseErrorId, `
# Failed to parse scene description!

Your scene description contains syntax errors or does not match the schema.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown node types or edit kinds
- Instances referencing a set node that is not in the scene

## Things you can try:
- Check the error message above for the failing path
- Run with verbose mode for more details:
~~~
$ pubcheck --verbose validate scene.cue
~~~

## Example of a valid scene description:
~~~cue
context: {project: "demo", task: "animation"}
scene: {
	nodes: [{path: "|char_GRP", type: "transform", id: "f1:a"}]
	sets: [{name: "animationMain_SET", entries: ["|char_GRP"]}]
}
instances: [{
	name: "animationMain"
	product_type: "animation"
	node: "animationMain_SET"
}]
~~~`,
		"https://cuelang.org/docs/")

	define(ConfigLoadFailedId, `
# Failed to load configuration!

The configuration file could not be loaded or contains invalid values.

## Things you can try:
- Show the path pubcheck reads its configuration from:
~~~
$ pubcheck config path
~~~

- Print the effective configuration with defaults:
~~~
$ pubcheck config dump
~~~`,
		"https://cuelang.org/docs/")

	define(AssetDBUnavailableId, `
# Asset database unavailable!

The asset database could not be opened.

## Things you can try:
- Check the `+"`asset_db`"+` path in your configuration
- Pass a database explicitly:
~~~
$ pubcheck --asset-db ./assets.db validate scene.cue
~~~`)

	define(PluginNotFoundId, `
# Plug-in not found!

No registered plug-in has the name you asked for.

## Things you can try:
- List the registered plug-ins:
~~~
$ pubcheck plugins
~~~`)

	define(ValidationFailedId, `
# Validation failed!

One or more validators reported problems with the scene.

## Things you can try:
- Read the description printed for each failed validator
- Run the repair of a validator that offers one:
~~~
$ pubcheck repair scene.cue --plugin ValidateAnimationContent --write fixed.cue
~~~`)

	define(RepairFailedId, `
# Repair incomplete!

The repair ran but some scene operations failed. Each failure was logged and
skipped; the remaining items were still repaired.

## Things you can try:
- Run validation again to see what is still invalid
- Fix the remaining nodes by hand in the workfile`)

	define(PluginOrderCycleId, `
# Plug-in order cycle!

Two or more plug-ins require to run after each other.

## Things you can try:
- Remove one of the ordering constraints
- Disable one of the plug-ins with `+"`disabled_plugins`")
}
