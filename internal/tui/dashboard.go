package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kazumasakawahara/claude-bridge/internal/adapters/state"
	"github.com/kazumasakawahara/claude-bridge/internal/config"
	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/diagnostics"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

const (
	defaultRespondedLimit = 5
	defaultErrorWindow    = 24 * time.Hour
	minRenderWidth        = 60
	maxRenderWidth        = 120
)

// Data is one loaded snapshot of everything the dashboard shows.
type Data struct {
	Pending     []core.HelpRequest
	Responded   []core.Response
	Errors      []state.ErrorRecord
	ErrorCounts map[string]int
	Stats       state.Stats
	Automation  *config.Automation
	Checks      []diagnostics.CheckResult
	Host        diagnostics.HostSnapshot
	LoadedAt    time.Time
}

// DataSource gathers dashboard sections from the workspace. Doctor may be
// nil, in which case the health section is omitted.
type DataSource struct {
	store  *state.Store
	errors *state.ErrorLog
	doctor *diagnostics.Doctor
	cfg    *config.Automation
	paths  workspace.Paths

	respondedLimit int
	errorWindow    time.Duration
	now            func() time.Time
}

// NewDataSource builds a data source over the given workspace collaborators.
func NewDataSource(store *state.Store, errors *state.ErrorLog, doctor *diagnostics.Doctor, cfg *config.Automation, paths workspace.Paths) *DataSource {
	return &DataSource{
		store:          store,
		errors:         errors,
		doctor:         doctor,
		cfg:            cfg,
		paths:          paths,
		respondedLimit: defaultRespondedLimit,
		errorWindow:    defaultErrorWindow,
		now:            time.Now,
	}
}

// Load gathers all sections concurrently. Sections write to distinct fields,
// so no locking is needed; the first error cancels the remaining sections.
func (d *DataSource) Load(ctx context.Context) (*Data, error) {
	data := &Data{Automation: d.cfg}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pending, err := d.store.ListPending()
		if err != nil {
			return fmt.Errorf("list pending: %w", err)
		}
		data.Pending = pending
		return nil
	})
	g.Go(func() error {
		responded, err := d.store.ListResponded(d.respondedLimit)
		if err != nil {
			return fmt.Errorf("list responded: %w", err)
		}
		data.Responded = responded
		return nil
	})
	g.Go(func() error {
		recent, err := d.errors.Recent(d.errorWindow)
		if err != nil {
			return fmt.Errorf("read error log: %w", err)
		}
		counts := make(map[string]int, 4)
		for _, rec := range recent {
			counts[rec.Severity]++
		}
		data.Errors = recent
		data.ErrorCounts = counts
		return nil
	})
	g.Go(func() error {
		data.Stats = d.store.Stats()
		return nil
	})
	g.Go(func() error {
		if gctx.Err() != nil {
			return gctx.Err()
		}
		data.Host = diagnostics.Collect(d.paths)
		return nil
	})
	if d.doctor != nil {
		g.Go(func() error {
			data.Checks = d.doctor.Run()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.LoadedAt = d.now()
	return data, nil
}

// SectionNames lists the dashboard sections in display order, for section
// selection flags.
var SectionNames = []string{"stats", "pending", "responses", "errors", "automation", "health", "host"}

// Render builds the dashboard for the given terminal width. With no section
// names every section renders; otherwise only the named ones do. The health
// section needs doctor checks in the data either way.
func Render(data *Data, width int, sections ...string) string {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	if width > maxRenderWidth {
		width = maxRenderWidth
	}
	inner := width - 4 // section border and padding

	selected := func(name string) bool {
		if len(sections) == 0 {
			return true
		}
		for _, s := range sections {
			if s == name {
				return true
			}
		}
		return false
	}

	parts := []string{renderHeader(data)}
	if selected("stats") {
		parts = append(parts, renderStats(data, inner))
	}
	if selected("pending") {
		parts = append(parts, renderPending(data, inner))
	}
	if selected("responses") {
		parts = append(parts, renderResponded(data, inner))
	}
	if selected("errors") {
		parts = append(parts, renderErrors(data, inner))
	}
	if selected("automation") {
		parts = append(parts, renderAutomation(data, inner))
	}
	if selected("health") && data.Checks != nil {
		parts = append(parts, renderHealth(data, inner))
	}
	if selected("host") {
		parts = append(parts, renderHost(data, inner))
	}

	var b strings.Builder
	for _, s := range parts {
		if s == "" {
			continue
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

func renderHeader(data *Data) string {
	return TitleStyle.Render("Claude Bridge Dashboard") + "\n" +
		SubtleStyle.Render("updated "+data.LoadedAt.Format("2006-01-02 15:04:05"))
}

func renderStats(data *Data, width int) string {
	st := data.Stats
	line := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s   %s %s",
		LabelStyle.Render("pending"), ValueStyle.Render(fmt.Sprintf("%d", st.Pending)),
		LabelStyle.Render("responses"), ValueStyle.Render(fmt.Sprintf("%d", st.TotalResponses)),
		LabelStyle.Render("archived"), ValueStyle.Render(fmt.Sprintf("%d", st.Archived)),
		LabelStyle.Render("checkpoints"), ValueStyle.Render(fmt.Sprintf("%d", st.Checkpoints)),
		LabelStyle.Render("backups"), ValueStyle.Render(fmt.Sprintf("%d", st.Backups)),
	)
	return section("Workspace", line, width)
}

func renderPending(data *Data, width int) string {
	if len(data.Pending) == 0 {
		return section("Pending requests", SubtleStyle.Render("none"), width)
	}
	lines := make([]string, 0, len(data.Pending))
	for _, req := range data.Pending {
		id := PendingStyle.Render(req.RequestID)
		title := truncate(req.Title, width-len(req.RequestID)-14)
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			id, SubtleStyle.Render(age(req.Timestamp, data.LoadedAt)), ValueStyle.Render(title)))
	}
	return section(fmt.Sprintf("Pending requests (%d)", len(data.Pending)), strings.Join(lines, "\n"), width)
}

func renderResponded(data *Data, width int) string {
	if len(data.Responded) == 0 {
		return section("Recent responses", SubtleStyle.Render("none"), width)
	}
	lines := make([]string, 0, len(data.Responded))
	for i := range data.Responded {
		resp := &data.Responded[i]
		cause := truncate(resp.RootCause(), width-len(resp.RequestID)-6)
		if cause == "" {
			cause = SubtleStyle.Render("(no analysis)")
		}
		lines = append(lines, fmt.Sprintf("%s  %s", RespondedStyle.Render(resp.RequestID), cause))
	}
	return section("Recent responses", strings.Join(lines, "\n"), width)
}

func renderErrors(data *Data, width int) string {
	if len(data.Errors) == 0 {
		return section("Errors (24h)", OKStyle.Render("none"), width)
	}
	var counts []string
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		if n := data.ErrorCounts[sev]; n > 0 {
			counts = append(counts, SeverityStyle(sev).Render(fmt.Sprintf("%d %s", n, sev)))
		}
	}
	lines := []string{strings.Join(counts, "  ")}

	// Newest records come last in the log; show the tail.
	recent := data.Errors
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		rec := recent[i]
		lines = append(lines, fmt.Sprintf("%s %s",
			SeverityStyle(rec.Severity).Render("•"),
			truncate(fmt.Sprintf("[%s] %s", rec.Context, rec.Message), width-4)))
	}
	return section("Errors (24h)", strings.Join(lines, "\n"), width)
}

func renderAutomation(data *Data, width int) string {
	cfg := data.Automation
	if cfg == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("%s %s   %s %s   %s %s",
			LabelStyle.Render("enabled"), onOff(cfg.Enabled),
			LabelStyle.Render("auto-launch"), onOff(cfg.AutoLaunchDesktop),
			LabelStyle.Render("auto-execute"), onOff(cfg.AutoExecuteProposals)),
		fmt.Sprintf("%s %s   %s %s   %s %s",
			LabelStyle.Render("launch timeout"), ValueStyle.Render(fmt.Sprintf("%ds", cfg.LaunchTimeout)),
			LabelStyle.Render("response timeout"), ValueStyle.Render(fmt.Sprintf("%ds", cfg.ResponseTimeout)),
			LabelStyle.Render("poll every"), ValueStyle.Render(fmt.Sprintf("%.1fs", cfg.PollingInterval))),
	}
	return section("Automation", strings.Join(lines, "\n"), width)
}

func renderHealth(data *Data, width int) string {
	lines := make([]string, 0, len(data.Checks))
	for _, check := range data.Checks {
		mark := OKStyle.Render("✓")
		if !check.OK {
			mark = BadStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s", mark, ValueStyle.Render(check.Name))
		if check.Detail != "" {
			line += "  " + SubtleStyle.Render(truncate(check.Detail, width-len(check.Name)-8))
		}
		lines = append(lines, line)
	}
	return section("Health", strings.Join(lines, "\n"), width)
}

func renderHost(data *Data, width int) string {
	h := data.Host
	lines := []string{
		fmt.Sprintf("%s %s   %s %s",
			LabelStyle.Render("cpu"), ValueStyle.Render(fmt.Sprintf("%.0f%% of %d cores", h.CPUPercent, h.CPUCores)),
			LabelStyle.Render("load"), ValueStyle.Render(fmt.Sprintf("%.2f %.2f %.2f", h.LoadAvg1, h.LoadAvg5, h.LoadAvg15))),
		fmt.Sprintf("%s %s   %s %s   %s %s",
			LabelStyle.Render("mem"), ValueStyle.Render(fmt.Sprintf("%.0f/%.0f MB", h.MemUsedMB, h.MemTotalMB)),
			LabelStyle.Render("disk"), ValueStyle.Render(fmt.Sprintf("%.1f/%.1f GB", h.DiskUsedGB, h.DiskTotalGB)),
			LabelStyle.Render("workspace"), ValueStyle.Render(fmt.Sprintf("%.1f MB", h.WorkspaceMB))),
	}
	return section("Host", strings.Join(lines, "\n"), width)
}

func section(title, body string, width int) string {
	content := SectionTitleStyle.Render(title) + "\n" + body
	return SectionStyle.Width(width).Render(content)
}

// truncate shortens s to max runes, appending an ellipsis when it cuts.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// age renders how long ago a timestamp was, or the raw string when it does
// not parse. Request documents use the compact layout, responses RFC3339.
func age(timestamp string, now time.Time) string {
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		ts, err = time.ParseInLocation("20060102_150405", timestamp, time.Local)
		if err != nil {
			return timestamp
		}
	}
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func onOff(v bool) string {
	if v {
		return OKStyle.Render("on")
	}
	return SubtleStyle.Render("off")
}
