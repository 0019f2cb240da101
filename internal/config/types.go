// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	ReportText ReportFormat = "text"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
	ReportTOML ReportFormat = "toml"

	// DefaultAssetDB is the asset database used when none is configured.
	DefaultAssetDB = "assets.db"
	// DefaultIDAttribute is the node id attribute.
	DefaultIDAttribute = "cbId"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidReportFormat is returned when a ReportFormat value is not recognized.
	ErrInvalidReportFormat = errors.New("invalid report format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ReportFormat selects how command results are printed.
	ReportFormat string

	// InvalidReportFormatError wraps ErrInvalidReportFormat.
	InvalidReportFormatError struct {
		Value ReportFormat
	}

	// InvalidConfigError collects every field error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the pubcheck configuration.
	Config struct {
		ProjectName           string       `json:"project_name" mapstructure:"project_name"`
		AssetDB               string       `json:"asset_db" mapstructure:"asset_db"`
		RepresentationRoot    string       `json:"representation_root" mapstructure:"representation_root"`
		IDAttribute           string       `json:"id_attribute" mapstructure:"id_attribute"`
		UseCbidWorkflow       bool         `json:"use_cbid_workflow" mapstructure:"use_cbid_workflow"`
		LogChangedHierarchies bool         `json:"log_changed_hierarchies" mapstructure:"log_changed_hierarchies"`
		DisabledPlugins       []string     `json:"disabled_plugins" mapstructure:"disabled_plugins"`
		UnknownPluginsIgnore  []string     `json:"unknown_plugins_ignore" mapstructure:"unknown_plugins_ignore"`
		CameraEditAttributes  []string     `json:"camera_edit_attributes" mapstructure:"camera_edit_attributes"`
		ReportFormat          ReportFormat `json:"report_format" mapstructure:"report_format"`
		UI                    UIConfig     `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (f ReportFormat) String() string { return string(f) }

// IsValid returns whether the ReportFormat is one of the defined formats.
func (f ReportFormat) IsValid() (bool, []error) {
	switch f {
	case ReportText, ReportJSON, ReportYAML, ReportTOML:
		return true, nil
	default:
		return false, []error{&InvalidReportFormatError{Value: f}}
	}
}

func (e *InvalidReportFormatError) Error() string {
	return fmt.Sprintf("invalid report format %q (valid: text, json, yaml, toml)", e.Value)
}

func (e *InvalidReportFormatError) Unwrap() error { return ErrInvalidReportFormat }

// IsValid checks the fields CUE cannot fully express once environment
// overrides have been merged in.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.ReportFormat.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.IDAttribute) == "" {
		errs = append(errs, errors.New("id_attribute must not be empty"))
	}
	if strings.TrimSpace(c.AssetDB) == "" {
		errs = append(errs, errors.New("asset_db must not be empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AssetDB:               DefaultAssetDB,
		IDAttribute:           DefaultIDAttribute,
		UseCbidWorkflow:       true,
		LogChangedHierarchies: true,
		DisabledPlugins:       []string{},
		UnknownPluginsIgnore:  []string{"stereoCamera"},
		CameraEditAttributes:  []string{},
		ReportFormat:          ReportText,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
