package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

const (
	refreshInterval = 30 * time.Second
	loadTimeout     = 10 * time.Second
	eventSettle     = 100 * time.Millisecond
)

// Messages
type dataMsg struct{ data *Data }

type loadErrMsg struct{ err error }

type workspaceChangedMsg struct{}

type refreshTickMsg time.Time

// WatchModel is the live dashboard. It reloads when workspace files change
// and falls back to a periodic refresh when the file watcher is unavailable.
type WatchModel struct {
	source  *DataSource
	watcher *fsnotify.Watcher
	spinner spinner.Model

	data    *Data
	err     error
	width   int
	height  int
	ready   bool
	loading bool
}

// NewWatchModel builds the live dashboard over the given data source. The
// file watcher is optional; when it cannot be created the model still works
// on the refresh ticker alone.
func NewWatchModel(source *DataSource) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	m := WatchModel{
		source:  source,
		spinner: sp,
		loading: true,
	}
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		for _, dir := range []string{source.paths.Requests, source.paths.Responses, source.paths.Logs} {
			_ = watcher.Add(dir)
		}
		m.watcher = watcher
	}
	return m
}

// Init starts the spinner, the first load, and the change listeners.
func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		loadCmd(m.source),
		refreshTick(),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case dataMsg:
		m.data = msg.data
		m.err = nil
		m.loading = false
		return m, nil

	case loadErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case workspaceChangedMsg:
		m.loading = true
		return m, tea.Batch(loadCmd(m.source), waitForChange(m.watcher))

	case refreshTickMsg:
		return m, tea.Batch(loadCmd(m.source), refreshTick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WatchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.close()
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, loadCmd(m.source)
	}
	return m, nil
}

// View renders the dashboard.
func (m WatchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return ErrorStyle.Render("dashboard load failed: "+m.err.Error()) + "\n" + m.footer()
	}
	if m.data == nil {
		return m.spinner.View() + " Loading workspace..." + "\n" + m.footer()
	}
	return Render(m.data, m.width) + m.footer()
}

func (m WatchModel) footer() string {
	status := ""
	if m.loading {
		status = m.spinner.View() + " "
	}
	return HelpStyle.Render(status + "q quit · r refresh")
}

func (m WatchModel) close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func loadCmd(source *DataSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		data, err := source.Load(ctx)
		if err != nil {
			return loadErrMsg{err: err}
		}
		return dataMsg{data: data}
	}
}

// waitForChange blocks on the watcher until a relevant event arrives, then
// lets the burst settle so one save produces one reload.
func waitForChange(watcher *fsnotify.Watcher) tea.Cmd {
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				settle := time.NewTimer(eventSettle)
				for {
					select {
					case <-watcher.Events:
					case <-settle.C:
						return workspaceChangedMsg{}
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
