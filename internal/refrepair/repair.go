// SPDX-License-Identifier: MPL-2.0

package refrepair

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/pubcheck/pubcheck/pkg/types"
)

var placeholderPattern = regexp.MustCompile(`\.placeHolderList\[\d+\]$`)

type (
	// Repairer is the part of the host the repair needs.
	Repairer interface {
		Scene
		ReferenceLoaded(ref types.NodePath) (bool, error)
		LoadReference(ref types.NodePath) error
		SetEntries(set types.NodePath) ([]string, error)
		AddToSet(set types.NodePath, entries ...string) error
		RemoveFromSet(set types.NodePath, entries ...string) error
	}

	// Report describes what a repair did.
	Report struct {
		References          []types.NodePath `json:"references" yaml:"references"`
		Loaded              []types.NodePath `json:"loaded,omitempty" yaml:"loaded,omitempty"`
		Result              Result           `json:"result" yaml:"result"`
		RemovedPlaceholders []string         `json:"removed_placeholders,omitempty" yaml:"removed_placeholders,omitempty"`
		Trail               []string         `json:"trail" yaml:"trail"`
	}
)

// Repair restores the required sets of root. Unloaded candidate references
// are loaded first since that is the usual cause of missing sets. When the
// sets are still missing the candidates are searched and, if found, both sets
// are added to root. Dangling placeHolderList entries are removed from root
// regardless of the outcome.
//
// Per-item host failures are logged and skipped; they are returned joined.
func Repair(s Repairer, root types.NodePath, logger *log.Logger) (Report, error) {
	var errs []error

	refs, trail, err := FindReferences(s, root)
	if err != nil {
		return Report{}, fmt.Errorf("find references for %s: %w", root, err)
	}
	report := Report{References: refs, Trail: trail}

	unique := slices.Clone(refs)
	slices.Sort(unique)
	if len(unique) > 1 {
		logger.Warn("Found more than one reference node", "references", unique)
	}

	for _, ref := range unique {
		loaded, err := s.ReferenceLoaded(ref)
		if err != nil {
			logger.Error("Cannot query reference", "reference", ref, "err", err)
			errs = append(errs, err)
			continue
		}
		if loaded {
			continue
		}
		logger.Info("Loading reference node", "reference", ref)
		if err := s.LoadReference(ref); err != nil {
			logger.Error("Cannot load reference", "reference", ref, "err", err)
			errs = append(errs, err)
			continue
		}
		report.Loaded = append(report.Loaded, ref)
	}

	members, err := s.SetMembers(root)
	if err != nil {
		return report, errors.Join(append(errs, err)...)
	}
	if out, controls := FindSets(s, members); out != "" && controls != "" {
		report.Result = Found{OutSet: out, ControlsSet: controls}
		report.Trail = append(report.Trail, "members: "+report.Result.String())
	} else {
		if len(report.Loaded) > 0 {
			logger.Debug("Still no out_SET and controls_SET in instance after loading references")
		}
		logger.Debug("Searching for sets in the reference nodes", "references", unique)

		result, searchTrail := Search(s, refs)
		report.Result = result
		report.Trail = append(report.Trail, searchTrail...)

		if f, ok := result.(Found); ok {
			logger.Info("Found and adding sets", "out", f.OutSet, "controls", f.ControlsSet)
			if err := s.AddToSet(root, string(f.OutSet), string(f.ControlsSet)); err != nil {
				errs = append(errs, fmt.Errorf("add sets to %s: %w", root, err))
			}
		}
	}

	removed, err := removePlaceholders(s, root)
	if err != nil {
		errs = append(errs, err)
	}
	if len(removed) > 0 {
		logger.Debug("Removed placeHolderList entries", "entries", removed)
		report.RemovedPlaceholders = removed
	}

	return report, errors.Join(errs...)
}

func removePlaceholders(s Repairer, root types.NodePath) ([]string, error) {
	entries, err := s.SetEntries(root)
	if err != nil {
		return nil, err
	}
	var remove []string
	for _, e := range entries {
		if placeholderPattern.MatchString(e) {
			remove = append(remove, e)
		}
	}
	if len(remove) == 0 {
		return nil, nil
	}
	if err := s.RemoveFromSet(root, remove...); err != nil {
		return nil, fmt.Errorf("remove placeholder entries from %s: %w", root, err)
	}
	return remove, nil
}
