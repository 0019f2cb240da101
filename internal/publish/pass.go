// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/pubcheck/pubcheck/internal/assetdb"
	"github.com/pubcheck/pubcheck/internal/idgen"
	"github.com/pubcheck/pubcheck/internal/scene"
)

// DefaultIDAttribute is the attribute node ids are stored under.
const DefaultIDAttribute = "cbId"

type (
	// Assets is the asset-database surface plug-ins use. *assetdb.Store
	// implements it.
	Assets interface {
		Root() string
		LastVersionByProductName(ctx context.Context, project, product, folderID string) (*assetdb.Version, error)
		RepresentationByName(ctx context.Context, project, name, versionID string) (*assetdb.Representation, error)
		RepresentationPath(r *assetdb.Representation) string
		Products(ctx context.Context, project string, namesByFolder map[string][]string) ([]assetdb.Product, error)
		LastVersions(ctx context.Context, project string, productIDs []string) (map[string]assetdb.Version, error)
		RegisterVersion(ctx context.Context, p assetdb.Publish) (*assetdb.Version, error)
	}

	// Settings are the project settings plug-ins consult.
	Settings struct {
		IDAttribute           string
		UseCbidWorkflow       bool
		LogChangedHierarchies bool
		DisabledPlugins       []string
		UnknownPluginsIgnore  []string
		// CameraEditAttributes overrides the camera attributes whose
		// reference edits are removed. Empty means the built-in list.
		CameraEditAttributes []string
	}

	// Pass is the shared context of one publish pass.
	Pass struct {
		Project    string
		Task       string
		FolderPath string
		FolderID   string
		// Workfile is the path of the scene file being published.
		Workfile string

		Host      scene.Host
		Instances []*Instance
		// PublishAttributes are context-level plug-in toggles.
		PublishAttributes map[string]map[string]any

		Assets   Assets
		Settings Settings
		Log      *log.Logger
		// StagingDir receives extracted files.
		StagingDir string
		NewID      idgen.Generator

		cache map[string]any
	}
)

var _ Assets = (*assetdb.Store)(nil)

// DefaultSettings returns the settings used when no project config exists.
func DefaultSettings() Settings {
	return Settings{
		IDAttribute:           DefaultIDAttribute,
		UseCbidWorkflow:       true,
		LogChangedHierarchies: true,
		UnknownPluginsIgnore:  []string{"stereoCamera"},
	}
}

// NewPass returns a pass over host with default settings and a silent logger.
func NewPass(host scene.Host) *Pass {
	return &Pass{
		Host:     host,
		Settings: DefaultSettings(),
		Log:      log.New(io.Discard),
		NewID:    idgen.UUIDv4(),
	}
}

// Logger returns the pass logger, never nil.
func (p *Pass) Logger() *log.Logger {
	if p.Log == nil {
		p.Log = log.New(io.Discard)
	}
	return p.Log
}

// ActiveInstances returns the instances switched on for publishing.
func (p *Pass) ActiveInstances() []*Instance {
	var out []*Instance
	for _, inst := range p.Instances {
		if inst.Active {
			out = append(out, inst)
		}
	}
	return out
}

// Instance returns the instance with the given name.
func (p *Pass) Instance(name string) (*Instance, bool) {
	for _, inst := range p.Instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

// PluginActive reports whether a context plug-in is switched on.
func (p *Pass) PluginActive(plugin string) bool {
	return attrActive(p.PublishAttributes, plugin)
}

// Memo returns the cached value for key, computing it with fn on first use.
// Errors are not cached.
func Memo[T any](p *Pass, key string, fn func() (T, error)) (T, error) {
	if v, ok := p.cache[key]; ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	if p.cache == nil {
		p.cache = make(map[string]any)
	}
	p.cache[key] = v
	return v, nil
}

// ResetCache drops every memoized value.
func (p *Pass) ResetCache() {
	clear(p.cache)
}
