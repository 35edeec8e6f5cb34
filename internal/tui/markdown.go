package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
)

// RenderMarkdown renders markdown for terminal display. When the renderer
// cannot be built the raw text is returned so output never disappears.
func RenderMarkdown(text string, width int) string {
	if width < 40 {
		width = 40
	}
	if width > 120 {
		width = 120
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.DraculaStyleConfig),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// AnalysisMarkdown builds a markdown document from a response so it can be
// rendered with RenderMarkdown or written to a file as-is.
func AnalysisMarkdown(resp *core.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis for %s\n\n", resp.RequestID)

	if cause := resp.RootCause(); cause != "" {
		b.WriteString("## Root cause\n\n")
		b.WriteString(cause)
		b.WriteString("\n\n")
	}

	if recs := resp.Recommendations(); len(recs) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range recs {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", rec.DisplayTitle(), rec.DisplayPriority(), rec.DisplayDescription())
		}
		b.WriteString("\n")
	}

	if steps := resp.ImplementationSteps(); len(steps) > 0 {
		b.WriteString("## Implementation steps\n\n")
		for i, step := range steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step.DisplayDescription())
		}
		b.WriteString("\n")
	}

	if files := resp.CodeFiles(); len(files) > 0 {
		b.WriteString("## Proposed files\n\n")
		for _, file := range files {
			fmt.Fprintf(&b, "- `%s`\n", file.Path)
		}
		b.WriteString("\n")
	}

	return b.String()
}
