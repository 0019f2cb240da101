// SPDX-License-Identifier: MPL-2.0

// Package workfile reads and writes workfiles: CUE documents describing a
// scene together with the publish instances and loaded containers authored
// in it.
package workfile

import (
	"cmp"
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/pubcheck/pubcheck/internal/cueutil"
	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/publish"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/pkg/types"
)

// Extension is the file extension of workfiles.
const Extension = ".cue"

//go:embed workfile_schema.cue
var schema []byte

var (
	// ErrInstanceNode is returned when an instance does not point at a set.
	ErrInstanceNode = errors.New("instance node must be an existing object set")
	// ErrDuplicateInstance is returned when two instances share a name.
	ErrDuplicateInstance = errors.New("duplicate instance name")
)

type (
	// Workfile is the decoded form of a workfile.
	Workfile struct {
		Context    Context             `json:"context"`
		Scene      scene.Description   `json:"scene"`
		Instances  []Instance          `json:"instances,omitempty"`
		Containers []publish.Container `json:"containers,omitempty"`

		// path is the absolute location Load read the workfile from.
		path string
	}

	// Context names what the workfile is authored for.
	Context struct {
		Project           string                    `json:"project,omitempty"`
		Task              string                    `json:"task,omitempty"`
		FolderPath        string                    `json:"folder_path,omitempty"`
		FolderID          string                    `json:"folder_id,omitempty"`
		Workfile          string                    `json:"workfile,omitempty"`
		PublishAttributes map[string]map[string]any `json:"publish_attributes,omitempty"`
	}

	// Instance is an authored publish instance. Empty product name, folder
	// and task fall back to the context.
	Instance struct {
		Name              string                    `json:"name"`
		ProductName       string                    `json:"product_name,omitempty"`
		ProductType       string                    `json:"product_type"`
		Families          []string                  `json:"families,omitempty"`
		FolderPath        string                    `json:"folder_path,omitempty"`
		FolderID          string                    `json:"folder_id,omitempty"`
		Task              string                    `json:"task,omitempty"`
		Active            bool                      `json:"active"`
		Node              types.NodePath            `json:"node"`
		PublishAttributes map[string]map[string]any `json:"publish_attributes,omitempty"`
		Data              map[string]any            `json:"data,omitempty"`
	}
)

// Load reads and validates the workfile at path.
func Load(path string) (*Workfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, issue.Wrap(err, "load workfile",
				issue.On(path),
				issue.Hint("Check the workfile path"),
				issue.See(issue.SceneNotFoundId))
		}
		return nil, fmt.Errorf("failed to read workfile: %w", err)
	}

	wf, err := Parse(data, path)
	if err != nil {
		return nil, issue.Wrap(err, "parse workfile", issue.On(path), issue.See(issue.SceneParseErrorId))
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	wf.path = filepath.ToSlash(path)
	return wf, nil
}

// Path returns the workfile source named in the context or, when none is
// authored, the absolute path the workfile was loaded from.
func (w *Workfile) Path() string {
	return cmp.Or(w.Context.Workfile, w.path)
}

// Parse decodes workfile source and checks it against the scene it
// describes. filename is only used in error messages.
func Parse(data []byte, filename string) (*Workfile, error) {
	result, err := cueutil.ParseAndDecode[Workfile](schema, data, "#Workfile", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	wf := result.Value

	host, err := wf.Open()
	if err != nil {
		return nil, err
	}
	if err := wf.check(host); err != nil {
		return nil, err
	}
	return wf, nil
}

func (w *Workfile) check(host scene.Host) error {
	var errs []error
	seen := make(map[string]bool, len(w.Instances))
	for _, inst := range w.Instances {
		if seen[inst.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateInstance, inst.Name))
		}
		seen[inst.Name] = true
		if t, err := host.NodeType(inst.Node); err != nil || t != scene.TypeObjectSet {
			errs = append(errs, fmt.Errorf("instance %s: %w: %s", inst.Name, ErrInstanceNode, inst.Node))
		}
	}
	for _, c := range w.Containers {
		if !host.Exists(c.ObjectName) {
			errs = append(errs, fmt.Errorf("container %s: %w: %s", c.Name, scene.ErrNodeNotFound, c.ObjectName))
		}
	}
	return errors.Join(errs...)
}

// Open builds the in-memory scene the workfile describes.
func (w *Workfile) Open() (*scene.Memory, error) {
	m, err := scene.NewMemory(w.Scene)
	if err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return m, nil
}

// Sync stores the current state of m as the workfile scene.
func (w *Workfile) Sync(m *scene.Memory) {
	w.Scene = m.Describe()
}

// PublishInstances converts the authored instances, filling gaps from the
// context.
func (w *Workfile) PublishInstances() []*publish.Instance {
	out := make([]*publish.Instance, 0, len(w.Instances))
	for _, inst := range w.Instances {
		pi := &publish.Instance{
			Name:              inst.Name,
			ProductName:       cmp.Or(inst.ProductName, inst.Name),
			ProductType:       inst.ProductType,
			Families:          slices.Clone(inst.Families),
			FolderPath:        cmp.Or(inst.FolderPath, w.Context.FolderPath),
			FolderID:          cmp.Or(inst.FolderID, w.Context.FolderID),
			Task:              cmp.Or(inst.Task, w.Context.Task),
			Active:            inst.Active,
			Node:              inst.Node,
			PublishAttributes: cloneAttrs(inst.PublishAttributes),
			Data:              maps.Clone(inst.Data),
		}
		out = append(out, pi)
	}
	return out
}

// NewPass returns a pass over host carrying the workfile context and
// instances.
func (w *Workfile) NewPass(host scene.Host) *publish.Pass {
	pass := publish.NewPass(host)
	pass.Project = w.Context.Project
	pass.Task = w.Context.Task
	pass.FolderPath = w.Context.FolderPath
	pass.FolderID = w.Context.FolderID
	pass.Workfile = w.Path()
	pass.PublishAttributes = cloneAttrs(w.Context.PublishAttributes)
	pass.Instances = w.PublishInstances()
	return pass
}

// Encode renders the workfile as CUE source.
func Encode(w *Workfile) ([]byte, error) {
	out := *w
	if out.Scene.Nodes == nil {
		out.Scene.Nodes = []scene.NodeSpec{}
	}
	return cueutil.Encode(out)
}

// Save writes the workfile to path, replacing it atomically.
func Save(path string, w *Workfile) error {
	data, err := Encode(w)
	if err != nil {
		return fmt.Errorf("failed to encode workfile: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".workfile-*")
	if err != nil {
		return fmt.Errorf("failed to save workfile: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save workfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save workfile: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func cloneAttrs(attrs map[string]map[string]any) map[string]map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]map[string]any, len(attrs))
	for plugin, values := range attrs {
		out[plugin] = maps.Clone(values)
	}
	return out
}
