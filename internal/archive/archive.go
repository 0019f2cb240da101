// SPDX-License-Identifier: MPL-2.0

// Package archive reads and writes the hierarchical point-cache archives that
// model publishes produce. An archive is a YAML tree of objects; each object
// may carry custom geometry properties, one of which holds the node id.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/pubcheck/pubcheck/internal/idsnap"
	"github.com/pubcheck/pubcheck/pkg/types"
)

// DefaultIDAttribute is the custom property holding node ids.
const DefaultIDAttribute = "cbId"

// ErrNotAnArchive is returned by Read when the file cannot be decoded.
var ErrNotAnArchive = errors.New("not an archive file")

type (
	// Archive is the decoded form of an archive file.
	Archive struct {
		Objects []Object `yaml:"objects"`
	}

	// Object is one node of the archive hierarchy.
	Object struct {
		Name       string      `yaml:"name"`
		Properties *Properties `yaml:"properties,omitempty"`
		Children   []Object    `yaml:"children,omitempty"`
	}

	// Properties holds the custom geometry parameters of an object.
	Properties struct {
		ArbGeomParams map[string]Property `yaml:"arbGeomParams,omitempty"`
	}

	// Property is a sampled custom property. Value is the first sample when
	// Samples is empty.
	Property struct {
		Value    string   `yaml:"value,omitempty"`
		Samples  []string `yaml:"samples,omitempty"`
		Constant *bool    `yaml:"constant,omitempty"`
	}

	readOptions struct {
		logger  *log.Logger
		verbose bool
	}

	// Option configures PathsByProperty.
	Option func(*readOptions)
)

// WithLogger sets the logger used for warnings. Default: the package logger.
func WithLogger(l *log.Logger) Option {
	return func(o *readOptions) { o.logger = l }
}

// WithVerbose logs objects missing the attribute at debug level.
func WithVerbose(verbose bool) Option {
	return func(o *readOptions) { o.verbose = verbose }
}

// Read decodes an archive file.
func Read(filename string) (*Archive, error) {
	data, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return nil, err
	}
	var a Archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAnArchive, filename, err)
	}
	return &a, nil
}

// Write encodes an archive to w.
func Write(w io.Writer, a *Archive) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return err
	}
	return enc.Close()
}

// WriteFile encodes an archive to filename, creating parent directories.
func WriteFile(filename string, a *Archive) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(f, a); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// IsConstant reports whether the property has a single value over time.
func (p Property) IsConstant() bool {
	if p.Constant != nil {
		return *p.Constant
	}
	return len(p.Samples) <= 1
}

// First returns the first sample of the property.
func (p Property) First() string {
	if len(p.Samples) > 0 {
		return p.Samples[0]
	}
	return p.Value
}

// PathsByProperty reads the value of attr on every object of the archive,
// keyed by the object's full "/" path. Objects are visited breadth-first;
// objects without properties or without attr are skipped. A file that is not
// an archive yields an empty snapshot and a warning, not an error.
func PathsByProperty(filename, attr string, opts ...Option) idsnap.Snapshot {
	o := readOptions{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a, err := Read(filename)
	if err != nil {
		o.logger.Warn("Not an archive file", "file", filename, "err", err)
		return idsnap.Snapshot{}
	}

	type entry struct {
		path string
		obj  *Object
	}
	queue := make([]entry, 0, len(a.Objects))
	for i := range a.Objects {
		queue = append(queue, entry{path: types.ArchivePathSeparator + a.Objects[i].Name, obj: &a.Objects[i]})
	}

	ids := make(map[types.NodePath]types.NodeID)
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for i := range e.obj.Children {
			child := &e.obj.Children[i]
			queue = append(queue, entry{path: e.path + types.ArchivePathSeparator + child.Name, obj: child})
		}

		if e.obj.Properties == nil || len(e.obj.Properties.ArbGeomParams) == 0 {
			continue
		}
		prop, ok := e.obj.Properties.ArbGeomParams[attr]
		if !ok {
			if o.verbose {
				o.logger.Debug("Missing attr", "attr", attr, "path", e.path)
			}
			continue
		}
		if !prop.IsConstant() {
			o.logger.Warn("Id not constant", "path", e.path)
		}
		ids[types.NodePath(e.path)] = types.NodeID(prop.First())
	}
	return idsnap.New(ids)
}

// FromSnapshot builds an archive holding the ids of a snapshot keyed by
// archive path. Intermediate objects without an id are created as needed.
func FromSnapshot(s idsnap.Snapshot, attr string) *Archive {
	root := &treeNode{}
	for _, r := range s.Records() {
		n := root
		for _, name := range strings.Split(strings.TrimPrefix(string(r.Path), types.ArchivePathSeparator), types.ArchivePathSeparator) {
			n = n.child(name)
		}
		n.id = r.ID
	}
	return &Archive{Objects: root.objects(attr)}
}

type treeNode struct {
	name     string
	id       types.NodeID
	children []*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &treeNode{name: name}
	n.children = append(n.children, c)
	return c
}

func (n *treeNode) objects(attr string) []Object {
	out := make([]Object, 0, len(n.children))
	for _, c := range n.children {
		obj := Object{Name: c.name, Children: c.objects(attr)}
		if !c.id.IsZero() {
			constant := true
			obj.Properties = &Properties{ArbGeomParams: map[string]Property{
				attr: {Value: string(c.id), Constant: &constant},
			}}
		}
		out = append(out, obj)
	}
	return out
}
