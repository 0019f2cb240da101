// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"fmt"
)

type (
	// RepairResult records one repair attempt.
	RepairResult struct {
		Plugin   string `json:"plugin" yaml:"plugin" toml:"plugin"`
		Instance string `json:"instance,omitempty" yaml:"instance,omitempty" toml:"instance,omitempty"`
		// Before is the validation status that triggered the repair.
		Before Status `json:"before" yaml:"before" toml:"before"`
		// Repaired is false when validation already passed.
		Repaired bool   `json:"repaired" yaml:"repaired" toml:"repaired"`
		After    Status `json:"after" yaml:"after" toml:"after"`
		Error    string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	}

	// RepairReport collects the repairs of one request.
	RepairReport struct {
		Repairs []RepairResult `json:"repairs" yaml:"repairs" toml:"repairs"`
	}
)

// Repair collects, then repairs what the named plug-in fails on and
// validates again. An empty instance repairs every failing instance.
func (r *Runner) Repair(ctx context.Context, pass *Pass, plugin, instance string) (*RepairReport, error) {
	p, ok := r.Lookup(plugin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, plugin)
	}
	if !IsRepairable(p) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepairable, plugin)
	}
	if instance != "" {
		if _, ok := pass.Instance(instance); !ok {
			return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instance)
		}
	}
	if err := r.Collect(ctx, pass); err != nil {
		return nil, err
	}

	report := &RepairReport{}
	if cr, ok := p.(ContextRepairer); ok {
		cv, isValidator := p.(ContextValidator)
		validate := func() error {
			if !isValidator {
				return nil
			}
			return cv.ValidateContext(ctx, pass)
		}
		report.Repairs = append(report.Repairs, r.repairOne(pass, p, "", validate, func() error {
			return cr.RepairContext(ctx, pass)
		}))
		return report, nil
	}

	ir := p.(InstanceRepairer)
	iv, isValidator := p.(InstanceValidator)
	for _, inst := range r.targets(pass, p, instance) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		validate := func() error {
			if !isValidator {
				return nil
			}
			return iv.Validate(ctx, pass, inst)
		}
		report.Repairs = append(report.Repairs, r.repairOne(pass, p, inst.Name, validate, func() error {
			return ir.Repair(ctx, pass, inst)
		}))
	}
	return report, nil
}

func (r *Runner) repairOne(pass *Pass, p Plugin, instance string, validate, repair func() error) RepairResult {
	logger := pass.Logger().With("plugin", p.Name())
	res := RepairResult{Plugin: p.Name(), Instance: instance}

	res.Before = newResult(p, instance, validate()).Status
	if res.Before == StatusPassed {
		res.After = StatusPassed
		return res
	}

	logger.Info("repairing", "instance", instance)
	if err := repair(); err != nil {
		res.Error = err.Error()
		res.After = StatusErrored
		logger.Error("repair failed", "instance", instance, "err", err)
		return res
	}
	res.Repaired = true
	// Validators memoize lookups; repairs change what they would see.
	pass.ResetCache()
	res.After = newResult(p, instance, validate()).Status
	return res
}

// OK reports whether every repaired target now validates.
func (r *RepairReport) OK() bool {
	for _, res := range r.Repairs {
		if res.After.Bad() {
			return false
		}
	}
	return true
}
