// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pubcheck/pubcheck/internal/archive"
	"github.com/pubcheck/pubcheck/internal/idsnap"
	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/scene"
	"github.com/pubcheck/pubcheck/internal/workfile"
)

// sceneSnapshot captures the ids of every DAG node of the workfile scene,
// keyed by archive path.
func sceneSnapshot(host scene.Host) idsnap.Snapshot {
	nodes := host.List(scene.Query{Types: []scene.NodeType{scene.TypeDAGNode}, NoIntermediate: true})
	return idsnap.Capture(host, nodes).ToArchive()
}

// loadSnapshot reads ids from a workfile or, for any other extension, from
// an archive file. A missing archive is an error; an unreadable one yields
// an empty snapshot.
func (s *session) loadSnapshot(path string) (idsnap.Snapshot, error) {
	if filepath.Ext(path) != workfile.Extension {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return idsnap.Snapshot{}, usageError(issue.Wrap(err, "read archive",
				issue.On(path),
				issue.Hint("Check the archive path"),
				issue.See(issue.FileNotFoundId)))
		}
		return archive.PathsByProperty(path, s.cfg.IDAttribute,
			archive.WithLogger(s.log), archive.WithVerbose(s.verbose)), nil
	}
	opened, err := s.openWorkfile(path)
	if err != nil {
		return idsnap.Snapshot{}, err
	}
	return sceneSnapshot(opened.host), nil
}
