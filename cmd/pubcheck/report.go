// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pubcheck/pubcheck/internal/config"
	"github.com/pubcheck/pubcheck/internal/issue"
	"github.com/pubcheck/pubcheck/internal/publish"
)

// writeReport prints v in the session report format. Text output is
// delegated to text.
func (s *session) writeReport(w io.Writer, v any, text func(io.Writer) error) error {
	switch s.cfg.ReportFormat {
	case config.ReportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.ReportTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return text(w)
	}
}

// markdownStyle maps the configured color scheme onto a glamour style.
func (s *session) markdownStyle() string {
	switch s.cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

func statusStyle(st publish.Status) lipgloss.Style {
	switch st {
	case publish.StatusPassed:
		return SuccessStyle
	case publish.StatusFailed:
		return ErrorStyle
	case publish.StatusErrored:
		return WarningStyle
	default:
		return SubtitleStyle
	}
}

func statusLabel(st publish.Status) string {
	icon := "-"
	switch st {
	case publish.StatusPassed:
		icon = "✓"
	case publish.StatusFailed:
		icon = "✗"
	case publish.StatusErrored:
		icon = "!"
	}
	return statusStyle(st).Width(10).Render(icon + " " + string(st))
}

// renderRunReport prints one line per plug-in evaluation and the details of
// every failure. Passing collectors are only listed in verbose mode.
func (s *session) renderRunReport(w io.Writer, title string, report *publish.Report) error {
	fmt.Fprintln(w, TitleStyle.Render(title))
	fmt.Fprintln(w)

	counts := make(map[publish.Status]int)
	for _, res := range report.Results {
		counts[res.Status]++
		if res.Kind == publish.KindCollector && res.Status == publish.StatusPassed && !s.verbose {
			continue
		}

		line := statusLabel(res.Status) + " " + CmdStyle.Render(res.Plugin)
		if res.Instance != "" {
			line += " " + instanceStyle.Render(res.Instance)
		}
		fmt.Fprintln(w, line)
		if res.Status.Bad() {
			s.renderFailure(w, res)
		}
	}

	fmt.Fprintln(w)
	if report.Stopped {
		fmt.Fprintln(w, WarningStyle.Render("Extraction and integration skipped: validation failed"))
	}
	fmt.Fprintf(w, "%s, %s, %s, %s\n",
		SuccessStyle.Render(fmt.Sprintf("%d passed", counts[publish.StatusPassed])),
		ErrorStyle.Render(fmt.Sprintf("%d failed", counts[publish.StatusFailed])),
		WarningStyle.Render(fmt.Sprintf("%d errored", counts[publish.StatusErrored])),
		SubtitleStyle.Render(fmt.Sprintf("%d skipped", counts[publish.StatusSkipped])))
	return nil
}

func (s *session) renderFailure(w io.Writer, res publish.Result) {
	msg := res.Message
	if res.Title != "" {
		msg = res.Title + ": " + msg
	}
	fmt.Fprintln(w, messageStyle.Render(msg))
	for _, node := range res.Invalid {
		fmt.Fprintln(w, invalidStyle.Render("- "+node))
	}
	if res.Repairable {
		fmt.Fprintln(w, messageStyle.Render(SubtitleStyle.Render("repair: pubcheck repair <workfile> --plugin "+res.Plugin)))
	}
	if res.Description == "" {
		return
	}
	rendered, err := issue.RenderMarkdown(res.Description, s.markdownStyle())
	if err != nil {
		s.log.Debug("failed to render description", "plugin", res.Plugin, "err", err)
		rendered = res.Description + "\n"
	}
	fmt.Fprint(w, rendered)
}

func (s *session) renderRepairReport(w io.Writer, report *publish.RepairReport) error {
	fmt.Fprintln(w, TitleStyle.Render("Repair"))
	fmt.Fprintln(w)
	if len(report.Repairs) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("nothing to repair"))
		return nil
	}
	for _, r := range report.Repairs {
		line := statusLabel(r.After) + " " + CmdStyle.Render(r.Plugin)
		if r.Instance != "" {
			line += " " + instanceStyle.Render(r.Instance)
		}
		switch {
		case r.Error != "":
			line += " " + ErrorStyle.Render(r.Error)
		case r.Repaired:
			line += " " + SubtitleStyle.Render(string(r.Before)+" -> "+string(r.After))
		default:
			line += " " + SubtitleStyle.Render("already valid")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// runExit maps a pass report onto the process exit code.
func runExit(report *publish.Report) error {
	switch {
	case report.Errored():
		return pluginError(ErrPluginErrored)
	case report.HasFailures():
		err := fmt.Errorf("%w: %s", ErrValidationFailed, failedNames(report))
		return validationError(issue.Wrap(err, "validate workfile", issue.See(issue.ValidationFailedId)))
	default:
		return nil
	}
}

func failedNames(report *publish.Report) string {
	var names []string
	for _, res := range report.Failures() {
		name := res.Plugin
		if res.Instance != "" {
			name += " (" + res.Instance + ")"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
