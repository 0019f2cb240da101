// SPDX-License-Identifier: MPL-2.0

package publish

import "context"

// Order bands. A plug-in may sit between bands, e.g. ValidatorOrder - 0.1
// runs before the regular validators.
const (
	CollectorOrder        = 0.0
	ValidatorOrder        = 1.0
	ValidateContentsOrder = ValidatorOrder + 0.1
	ExtractorOrder        = 2.0
	IntegratorOrder       = 3.0

	// ValidationCutoff separates checking from writing. Plug-ins ordered at
	// or after it only run when validation passed.
	ValidationCutoff = 1.5
)

// AllFamilies matches every instance.
const AllFamilies = "*"

type (
	// Plugin is the common surface of every publish plug-in.
	Plugin interface {
		Name() string
		Label() string
		Order() float64
		// Families lists the product types the plug-in applies to.
		Families() []string
	}

	// Optional plug-ins can be switched off per instance through the
	// "active" publish attribute.
	Optional interface {
		Optional() bool
	}

	// Configurable plug-ins can be disabled by project settings.
	Configurable interface {
		Enabled(s Settings) bool
	}

	// Sequenced plug-ins must run after the named plug-ins regardless of
	// order values.
	Sequenced interface {
		After() []string
	}

	// Collector gathers data onto the pass and its instances.
	Collector interface {
		Plugin
		Collect(ctx context.Context, pass *Pass) error
	}

	// InstanceValidator checks one instance. Failures are *ValidationError.
	InstanceValidator interface {
		Plugin
		Validate(ctx context.Context, pass *Pass, inst *Instance) error
	}

	// ContextValidator checks the whole scene once per pass.
	ContextValidator interface {
		Plugin
		ValidateContext(ctx context.Context, pass *Pass) error
	}

	// Extractor writes the output files of one instance.
	Extractor interface {
		Plugin
		Extract(ctx context.Context, pass *Pass, inst *Instance) error
	}

	// Integrator registers extracted output with the asset database.
	Integrator interface {
		Plugin
		Integrate(ctx context.Context, pass *Pass, inst *Instance) error
	}

	// InstanceRepairer fixes what an InstanceValidator reported. It is only
	// ever invoked explicitly and must be safe to run twice.
	InstanceRepairer interface {
		Repair(ctx context.Context, pass *Pass, inst *Instance) error
	}

	// ContextRepairer is the ContextValidator counterpart of InstanceRepairer.
	ContextRepairer interface {
		RepairContext(ctx context.Context, pass *Pass) error
	}

	// InventoryAction is a maintenance operation on loaded containers.
	InventoryAction interface {
		Name() string
		Label() string
		Compatible(c Container) bool
		Process(ctx context.Context, pass *Pass, containers []Container) error
	}

	// Kind names the role of a plug-in in reports.
	Kind string
)

const (
	KindCollector  Kind = "collector"
	KindValidator  Kind = "validator"
	KindExtractor  Kind = "extractor"
	KindIntegrator Kind = "integrator"
	KindUnknown    Kind = "unknown"
)

// KindOf returns the role of p.
func KindOf(p Plugin) Kind {
	switch p.(type) {
	case Collector:
		return KindCollector
	case InstanceValidator, ContextValidator:
		return KindValidator
	case Extractor:
		return KindExtractor
	case Integrator:
		return KindIntegrator
	default:
		return KindUnknown
	}
}

// IsOptional reports whether p can be toggled off per instance.
func IsOptional(p Plugin) bool {
	o, ok := p.(Optional)
	return ok && o.Optional()
}

// IsRepairable reports whether p offers a repair.
func IsRepairable(p Plugin) bool {
	switch p.(type) {
	case InstanceRepairer, ContextRepairer:
		return true
	default:
		return false
	}
}
