// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func plainRender(t *testing.T) {
	t.Helper()

	orig := render
	render = func(in, _ string) (string, error) { return in, nil }
	t.Cleanup(func() { render = orig })
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	titles := map[Id]string{
		FileNotFoundId:       "# File not found!",
		SceneNotFoundId:      "# Scene description not found!",
		SceneParseErrorId:    "# Failed to parse scene description!",
		ConfigLoadFailedId:   "# Failed to load configuration!",
		AssetDBUnavailableId: "# Asset database unavailable!",
		PluginNotFoundId:     "# Plug-in not found!",
		ValidationFailedId:   "# Validation failed!",
		RepairFailedId:       "# Repair incomplete!",
		PluginOrderCycleId:   "# Plug-in order cycle!",
	}

	all := Values()
	if len(all) != len(titles) {
		t.Fatalf("catalog has %d pages, want %d", len(all), len(titles))
	}
	for i, page := range all {
		if page.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want ascending ids", i, page.Id())
		}
		if !strings.Contains(page.Markdown(), titles[page.Id()]) {
			t.Errorf("page %d lacks title %q", page.Id(), titles[page.Id()])
		}
		if Get(page.Id()) != page {
			t.Errorf("Get(%d) disagrees with Values()", page.Id())
		}
	}
	if Get(Id(9999)) != nil {
		t.Error("Get() of an unknown id should be nil")
	}
}

func TestIssue_Render(t *testing.T) {
	// Not parallel: swaps the package renderer.
	plainRender(t)

	tests := []struct {
		id          Id
		wantSeeAlso bool
	}{
		{SceneParseErrorId, true},
		{ValidationFailedId, false},
	}

	for _, tt := range tests {
		out, err := Get(tt.id).Render("notty")
		if err != nil {
			t.Fatalf("Render(%d) error: %v", tt.id, err)
		}
		if got := strings.Contains(out, "## See also"); got != tt.wantSeeAlso {
			t.Errorf("Render(%d) see-also section = %v, want %v", tt.id, got, tt.wantSeeAlso)
		}
	}

	page := Get(SceneParseErrorId)
	links := page.SeeAlso()
	links[0] = "modified"
	if page.SeeAlso()[0] != "https://cuelang.org/docs/" {
		t.Error("SeeAlso() should return a copy")
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	out, err := RenderMarkdown("## Model ids have changed\nRepair sets the previous `cbId`.", "notty")
	if err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(out, "Model ids have changed") {
		t.Errorf("RenderMarkdown() = %q", out)
	}
}
