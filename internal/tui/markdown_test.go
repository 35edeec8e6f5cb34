package tui

import (
	"strings"
	"testing"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

func fullResponse() *core.Response {
	return &core.Response{
		RequestID: "req_20250314_120000",
		Analysis: &core.Analysis{
			RootCause: "the cache map is written without a lock",
			Recommendations: []core.Recommendation{
				{Title: "Add a mutex", Priority: "high", Description: "guard the cache map"},
			},
			ImplementationSteps: []core.ImplementationStep{
				{Description: "wrap writes in cache.mu.Lock()"},
			},
			CodeFiles: []core.CodeFile{
				{Path: "internal/cache/cache.go", Content: "package cache"},
			},
		},
	}
}

func TestAnalysisMarkdownIncludesAllSections(t *testing.T) {
	md := AnalysisMarkdown(fullResponse())

	for _, want := range []string{
		"# Analysis for req_20250314_120000",
		"## Root cause",
		"the cache map is written without a lock",
		"## Recommendations",
		"**Add a mutex** (high)",
		"## Implementation steps",
		"1. wrap writes in cache.mu.Lock()",
		"## Proposed files",
		"`internal/cache/cache.go`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalysisMarkdownOmitsEmptySections(t *testing.T) {
	md := AnalysisMarkdown(&core.Response{RequestID: "req_20250314_120000"})

	if !strings.Contains(md, "# Analysis for req_20250314_120000") {
		t.Fatalf("header missing:\n%s", md)
	}
	for _, absent := range []string{"## Root cause", "## Recommendations", "## Implementation steps", "## Proposed files"} {
		if strings.Contains(md, absent) {
			t.Errorf("unexpected section %q", absent)
		}
	}
}

func TestRenderMarkdownProducesOutput(t *testing.T) {
	out := RenderMarkdown(AnalysisMarkdown(fullResponse()), 80)

	if out == "" {
		t.Fatalf("empty output")
	}
	if !strings.Contains(out, "req_20250314_120000") {
		t.Errorf("request id missing from rendered output")
	}
}

func TestRenderMarkdownClampsWidth(t *testing.T) {
	if out := RenderMarkdown("plain text", 0); out == "" {
		t.Fatalf("empty output at zero width")
	}
}
