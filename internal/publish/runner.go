// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/pubcheck/pubcheck/internal/dag"
)

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

type (
	// Status is the outcome of one plug-in evaluation.
	Status string

	// Result records one plug-in evaluation, against an instance or the
	// whole context.
	Result struct {
		Plugin      string   `json:"plugin" yaml:"plugin" toml:"plugin"`
		Label       string   `json:"label" yaml:"label" toml:"label"`
		Kind        Kind     `json:"kind" yaml:"kind" toml:"kind"`
		Order       float64  `json:"order" yaml:"order" toml:"order"`
		Instance    string   `json:"instance,omitempty" yaml:"instance,omitempty" toml:"instance,omitempty"`
		Status      Status   `json:"status" yaml:"status" toml:"status"`
		Title       string   `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
		Message     string   `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
		Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
		Invalid     []string `json:"invalid,omitempty" yaml:"invalid,omitempty" toml:"invalid,omitempty"`
		Repairable  bool     `json:"repairable,omitempty" yaml:"repairable,omitempty" toml:"repairable,omitempty"`
	}

	// Report is the outcome of a pass.
	Report struct {
		Results []Result `json:"results" yaml:"results" toml:"results"`
		// Stopped is set when writing plug-ins were skipped because
		// validation failed.
		Stopped bool `json:"stopped" yaml:"stopped" toml:"stopped"`
	}

	// RunOptions bound a pass.
	RunOptions struct {
		// Until excludes plug-ins ordered at or after it. Zero runs everything.
		Until float64
		// Only restricts instance plug-ins to the named instance.
		Only string
	}

	// Runner evaluates an ordered plug-in set.
	Runner struct {
		plugins []Plugin
	}
)

// ValidateOnly runs collection and validation but nothing that writes.
var ValidateOnly = RunOptions{Until: ValidationCutoff}

// NewRunner orders plugins by order value and After constraints, dropping
// the ones disabled by settings.
func NewRunner(plugins []Plugin, settings Settings) (*Runner, error) {
	byName := make(map[string]Plugin, len(plugins))
	g := dag.New()
	for _, p := range plugins {
		if _, dup := byName[p.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
		}
		if slices.Contains(settings.DisabledPlugins, p.Name()) {
			continue
		}
		if c, ok := p.(Configurable); ok && !c.Enabled(settings) {
			continue
		}
		byName[p.Name()] = p
		g.Add(p.Name(), p.Order())
	}
	for _, p := range plugins {
		s, ok := p.(Sequenced)
		if !ok || byName[p.Name()] == nil {
			continue
		}
		for _, dep := range s.After() {
			if _, known := byName[dep]; known {
				g.Require(dep, p.Name())
			}
		}
	}

	names, err := g.Order()
	if err != nil {
		return nil, err
	}
	r := &Runner{plugins: make([]Plugin, 0, len(names))}
	for _, name := range names {
		r.plugins = append(r.plugins, byName[name])
	}
	return r, nil
}

// Plugins returns the enabled plug-ins in run order.
func (r *Runner) Plugins() []Plugin {
	return slices.Clone(r.plugins)
}

// Lookup returns the enabled plug-in with the given name.
func (r *Runner) Lookup(name string) (Plugin, bool) {
	for _, p := range r.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Run evaluates every plug-in against the pass. Plug-in failures end up in
// the report; the returned error is only set when ctx is done.
func (r *Runner) Run(ctx context.Context, pass *Pass, opts RunOptions) (*Report, error) {
	until := opts.Until
	if until == 0 {
		until = math.Inf(1)
	}

	report := &Report{}
	for _, p := range r.plugins {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if p.Order() >= until {
			continue
		}
		if p.Order() >= ValidationCutoff && report.HasFailures() {
			report.Stopped = true
			pass.Logger().Warn("validation failed, skipping extraction and integration")
			break
		}
		report.Results = append(report.Results, r.runPlugin(ctx, pass, p, opts.Only)...)
	}
	return report, nil
}

func (r *Runner) runPlugin(ctx context.Context, pass *Pass, p Plugin, only string) []Result {
	logger := pass.Logger().With("plugin", p.Name())

	switch plugin := p.(type) {
	case Collector:
		logger.Debug("collecting")
		return []Result{newResult(p, "", plugin.Collect(ctx, pass))}

	case ContextValidator:
		if !slices.ContainsFunc(pass.ActiveInstances(), func(inst *Instance) bool { return inst.HasFamily(p.Families()...) }) {
			return nil
		}
		if IsOptional(p) && !pass.PluginActive(p.Name()) {
			return []Result{skipped(p, "")}
		}
		logger.Debug("validating context")
		return []Result{newResult(p, "", plugin.ValidateContext(ctx, pass))}
	}

	var results []Result
	for _, inst := range r.targets(pass, p, only) {
		if IsOptional(p) && !inst.PluginActive(p.Name()) {
			results = append(results, skipped(p, inst.Name))
			continue
		}
		logger.Debug("processing", "instance", inst.Name)
		var err error
		switch plugin := p.(type) {
		case InstanceValidator:
			err = plugin.Validate(ctx, pass, inst)
		case Extractor:
			err = plugin.Extract(ctx, pass, inst)
		case Integrator:
			err = plugin.Integrate(ctx, pass, inst)
		default:
			continue
		}
		res := newResult(p, inst.Name, err)
		if res.Status != StatusPassed {
			logger.Warn(res.Message, "instance", inst.Name, "status", res.Status)
		}
		results = append(results, res)
	}
	return results
}

// targets returns the active instances p applies to.
func (r *Runner) targets(pass *Pass, p Plugin, only string) []*Instance {
	var out []*Instance
	for _, inst := range pass.ActiveInstances() {
		if only != "" && inst.Name != only {
			continue
		}
		if inst.HasFamily(p.Families()...) {
			out = append(out, inst)
		}
	}
	return out
}

// Collect runs only the collectors, preparing a pass for targeted plug-ins.
func (r *Runner) Collect(ctx context.Context, pass *Pass) error {
	var errs []error
	for _, p := range r.plugins {
		c, ok := p.(Collector)
		if !ok {
			continue
		}
		if err := c.Collect(ctx, pass); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func newResult(p Plugin, instance string, err error) Result {
	res := Result{
		Plugin:     p.Name(),
		Label:      p.Label(),
		Kind:       KindOf(p),
		Order:      p.Order(),
		Instance:   instance,
		Status:     StatusPassed,
		Repairable: IsRepairable(p),
	}
	if err == nil {
		return res
	}
	if ve, ok := AsValidation(err); ok {
		res.Status = StatusFailed
		res.Title = ve.Title
		res.Message = ve.Message
		res.Description = ve.Description
		res.Invalid = ve.Invalid
		return res
	}
	res.Status = StatusErrored
	res.Message = err.Error()
	return res
}

func skipped(p Plugin, instance string) Result {
	res := newResult(p, instance, nil)
	res.Status = StatusSkipped
	return res
}

// HasFailures reports whether any plug-in failed or errored.
func (r *Report) HasFailures() bool {
	return slices.ContainsFunc(r.Results, func(res Result) bool { return res.Status.Bad() })
}

// Failures returns the failed and errored results.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status.Bad() {
			out = append(out, res)
		}
	}
	return out
}

// Errored reports whether any plug-in raised an unexpected error.
func (r *Report) Errored() bool {
	return slices.ContainsFunc(r.Results, func(res Result) bool { return res.Status == StatusErrored })
}

// Bad reports whether the status blocks publishing.
func (s Status) Bad() bool {
	return s == StatusFailed || s == StatusErrored
}
