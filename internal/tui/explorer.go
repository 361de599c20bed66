package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tormodhaugland/stencil/internal/explorer"
	"github.com/tormodhaugland/stencil/internal/pipeline"
	"github.com/tormodhaugland/stencil/internal/template"
	"github.com/tormodhaugland/stencil/internal/tree"
	"github.com/tormodhaugland/stencil/internal/worker"
)

type pane int

const (
	treePane pane = iota
	previewPane
)

// Options wires an ExplorerModel to a project.
type Options struct {
	Handle *explorer.Handle
	Holder *template.Holder
	// Vars is the render context used for previews.
	Vars map[string]any
	// RenderOptions are passed to every preview render.
	RenderOptions []pipeline.Option
	// Changes delivers batches of changed paths; each batch triggers a
	// rescan and a template reload.
	Changes <-chan []string
}

type explorerKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Rescan   key.Binding
	Filter   key.Binding
	Tab      key.Binding
	Esc      key.Binding
	Quit     key.Binding
}

var explorerKeys = explorerKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open/select")),
	Expand:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "expand")),
	Collapse: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "collapse")),
	Rescan:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
	Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Esc:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type rescannedMsg struct {
	err error
}

type previewMsg struct {
	name     string
	body     string
	warnings []pipeline.Warning
	err      error
}

type changesMsg struct {
	paths []string
}

// ExplorerModel browses a project tree and previews the rendered output of
// the selected template.
type ExplorerModel struct {
	opts Options

	rows   []explorer.Entry
	cursor int
	offset int
	focus  pane

	filtering bool
	filter    textinput.Model
	matches   []string

	preview     viewport.Model
	previewName string

	width  int
	height int

	message        string
	messageIsError bool
	quitting       bool
}

// NewExplorerModel returns a model over an already opened Handle.
func NewExplorerModel(opts Options) ExplorerModel {
	ti := textinput.New()
	ti.Placeholder = "file name"
	ti.Prompt = "/ "
	ti.CharLimit = 256

	m := ExplorerModel{
		opts:    opts,
		filter:  ti,
		preview: viewport.New(60, 20),
		width:   100,
		height:  30,
	}
	m.refresh()
	return m
}

func (m ExplorerModel) Init() tea.Cmd {
	return m.waitForChanges()
}

// Rows returns the rows currently drawn.
func (m ExplorerModel) Rows() []explorer.Entry { return m.rows }

// Cursor returns the index of the highlighted row.
func (m ExplorerModel) Cursor() int { return m.cursor }

// PreviewName returns the template whose output the preview shows.
func (m ExplorerModel) PreviewName() string { return m.previewName }

// PreviewContent returns the preview text.
func (m ExplorerModel) PreviewContent() string { return m.preview.View() }

// Message returns the status line and whether it reports an error.
func (m ExplorerModel) Message() (string, bool) { return m.message, m.messageIsError }

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview.Width = max(msg.Width/2-4, 10)
		m.preview.Height = max(msg.Height-8, 3)
		return m, nil

	case rescannedMsg:
		m.refresh()
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.message = fmt.Sprintf("Rescanned %s", m.opts.Handle.Path())
		m.messageIsError = false
		if m.previewName != "" {
			return m, m.renderPreview(m.previewName)
		}
		return m, nil

	case previewMsg:
		m.previewName = msg.name
		if msg.err != nil {
			m.preview.SetContent(errorStyle.Render(msg.err.Error()))
			m.setError(msg.err)
			return m, nil
		}
		m.preview.SetContent(msg.body)
		m.preview.GotoTop()
		if len(msg.warnings) > 0 {
			m.setError(msg.warnings[0])
		} else {
			m.message = fmt.Sprintf("Rendered %s", msg.name)
			m.messageIsError = false
		}
		return m, nil

	case changesMsg:
		m.message = fmt.Sprintf("%d file(s) changed", len(msg.paths))
		m.messageIsError = false
		return m, tea.Batch(m.rescan(), m.waitForChanges())

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		if m.focus == previewPane {
			return m.updatePreview(msg)
		}
		return m.updateTree(msg)
	}
	return m, nil
}

func (m ExplorerModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, explorerKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, explorerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, explorerKeys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, explorerKeys.Top):
		m.cursor = 0
	case key.Matches(msg, explorerKeys.Bottom):
		m.cursor = max(len(m.rows)-1, 0)

	case key.Matches(msg, explorerKeys.Toggle):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		if row.Node.IsDir() {
			_ = m.update(func(e *explorer.Explorer) error {
				e.ToggleExpand(row.Path)
				return nil
			})
			return m, nil
		}
		if err := m.update(func(e *explorer.Explorer) error { return e.Select(row.Path) }); err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.renderPreview(row.Path.Key())

	case key.Matches(msg, explorerKeys.Expand):
		if row, ok := m.current(); ok && row.Node.IsDir() {
			_ = m.update(func(e *explorer.Explorer) error {
				e.SetExpanded(row.Path, true)
				return nil
			})
		}

	case key.Matches(msg, explorerKeys.Collapse):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		var collapsed bool
		if row.Node.IsDir() {
			_ = m.update(func(e *explorer.Explorer) error {
				if e.IsExpanded(row.Path) {
					collapsed = e.SetExpanded(row.Path, false)
				}
				return nil
			})
		}
		if !collapsed && !row.Path.IsRoot() {
			m.moveTo(row.Path.Parent())
		}

	case key.Matches(msg, explorerKeys.Rescan):
		m.message = "Rescanning..."
		m.messageIsError = false
		return m, m.rescan()

	case key.Matches(msg, explorerKeys.Filter):
		m.filtering = true
		m.filter.SetValue("")
		m.matches = nil
		return m, m.filter.Focus()

	case key.Matches(msg, explorerKeys.Tab):
		m.focus = previewPane
	}
	m.clampOffset()
	return m, nil
}

func (m ExplorerModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, explorerKeys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, explorerKeys.Tab), key.Matches(msg, explorerKeys.Esc):
		m.focus = treePane
		return m, nil
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m ExplorerModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.matches = nil
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		if len(m.matches) == 0 {
			m.setError(fmt.Errorf("no file matches %q", m.filter.Value()))
			return m, nil
		}
		target := tree.ParsePath(m.matches[0])
		m.matches = nil
		if err := m.reveal(target); err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.renderPreview(target.Key())
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.matches = m.match(m.filter.Value())
	return m, cmd
}

// reveal expands every ancestor of p, selects it and moves the cursor to it.
func (m *ExplorerModel) reveal(p tree.Path) error {
	err := m.update(func(e *explorer.Explorer) error {
		for i := 0; i < len(p); i++ {
			e.SetExpanded(p[:i], true)
		}
		return e.Select(p)
	})
	if err != nil {
		return err
	}
	m.moveTo(p)
	return nil
}

// match returns the file keys matching pattern, best match first.
func (m ExplorerModel) match(pattern string) []string {
	if pattern == "" {
		return nil
	}
	var files []string
	_ = m.opts.Handle.View(func(e *explorer.Explorer) {
		e.Root().Walk(func(p tree.Path, n *tree.Node, _ int) bool {
			if n.IsFile() {
				files = append(files, p.Key())
			}
			return true
		})
	})
	found := fuzzy.Find(pattern, files)
	out := make([]string, 0, min(len(found), 10))
	for _, f := range found {
		if len(out) == cap(out) {
			break
		}
		out = append(out, f.Str)
	}
	return out
}

func (m *ExplorerModel) update(fn func(*explorer.Explorer) error) error {
	err := m.opts.Handle.Update(fn)
	m.refresh()
	return err
}

// refresh copies the visible rows out of the handle and keeps the cursor on
// the same path when it is still visible.
func (m *ExplorerModel) refresh() {
	var prev tree.Path
	hadPrev := false
	if row, ok := m.current(); ok {
		prev, hadPrev = row.Path, true
	}
	var rows []explorer.Entry
	_ = m.opts.Handle.View(func(e *explorer.Explorer) {
		rows = e.VisibleSlice()
	})
	m.rows = rows
	if hadPrev {
		for i, r := range rows {
			if r.Path.Equal(prev) {
				m.cursor = i
				m.clampOffset()
				return
			}
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.clampOffset()
}

func (m *ExplorerModel) moveTo(p tree.Path) {
	for i, r := range m.rows {
		if r.Path.Equal(p) {
			m.cursor = i
			break
		}
	}
	m.clampOffset()
}

func (m ExplorerModel) current() (explorer.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return explorer.Entry{}, false
	}
	return m.rows[m.cursor], true
}

func (m *ExplorerModel) treeHeight() int {
	return max(m.height-6, 3)
}

func (m *ExplorerModel) clampOffset() {
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *ExplorerModel) setError(err error) {
	m.message = err.Error()
	m.messageIsError = true
}

func (m ExplorerModel) rescan() tea.Cmd {
	handle, holder := m.opts.Handle, m.opts.Holder
	return func() tea.Msg {
		ctx := context.Background()
		treeCh := handle.Rescan(ctx)
		var setCh <-chan worker.Outcome[*template.Set]
		if holder != nil {
			setCh = holder.Reload(ctx)
		}
		err := (<-treeCh).Err
		if setCh != nil {
			if out, ok := <-setCh; ok {
				err = errors.Join(err, out.Err)
			}
		}
		return rescannedMsg{err: err}
	}
}

func (m ExplorerModel) renderPreview(name string) tea.Cmd {
	holder := m.opts.Holder
	vars := m.opts.Vars
	opts := m.opts.RenderOptions
	return func() tea.Msg {
		if holder == nil || holder.Current() == nil {
			return previewMsg{name: name, err: errors.New("no templates loaded")}
		}
		set := holder.Current()
		if data, ok := set.Static(name); ok {
			return previewMsg{name: name, body: string(data)}
		}
		if !set.Has(name) {
			return previewMsg{name: name, err: &template.TemplateNotFoundError{Name: name}}
		}
		res, err := pipeline.RenderOne(context.Background(), set, name, vars, opts...)
		if err != nil {
			return previewMsg{name: name, err: err}
		}
		return previewMsg{
			name:     name,
			body:     string(res.Outputs[set.OutputPath(name)]),
			warnings: res.Warnings,
		}
	}
}

func (m ExplorerModel) waitForChanges() tea.Cmd {
	ch := m.opts.Changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		paths, ok := <-ch
		if !ok {
			return nil
		}
		return changesMsg{paths: paths}
	}
}

func (m ExplorerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("stencil • " + m.opts.Handle.Path()))
	b.WriteString("\n")

	treeView := m.renderTree()
	previewView := m.renderPreviewPane()

	left, right := inactiveBorder, inactiveBorder
	if m.focus == treePane {
		left = activeBorder
	} else {
		right = activeBorder
	}
	half := max(m.width/2-2, 20)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		left.Width(half).Render(treeView),
		right.Width(half).Render(previewView),
	))
	b.WriteString("\n")

	if m.filtering {
		b.WriteString(m.filter.View())
		if len(m.matches) > 0 {
			b.WriteString(dimStyle.Render("  → " + m.matches[0]))
		}
		b.WriteString("\n")
	}

	if m.message != "" {
		if m.messageIsError {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(okStyle.Render(m.message))
		}
		b.WriteString("\n")
	}

	help := []string{"j/k: navigate", "enter: open/select", "h/l: collapse/expand", "/: find", "r: rescan", "tab: switch pane", "q: quit"}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

func (m ExplorerModel) renderTree() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("(no tree)")
	}
	var selected tree.Path
	var hasSel bool
	_ = m.opts.Handle.View(func(e *explorer.Explorer) {
		selected, hasSel = e.Selected()
	})

	var b strings.Builder
	end := min(m.offset+m.treeHeight(), len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		icon := "📄"
		if row.Node.IsDir() {
			icon = "📁"
			if m.isExpanded(row.Path) {
				icon = "📂"
			}
		}
		line := strings.Repeat("  ", row.Depth) + icon + " " + row.Node.Name
		if hasSel && row.Path.Equal(selected) {
			line += selectedMarkStyle.Render(" ●")
		}
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ExplorerModel) isExpanded(p tree.Path) bool {
	var ok bool
	_ = m.opts.Handle.View(func(e *explorer.Explorer) {
		ok = e.IsExpanded(p)
	})
	return ok
}

func (m ExplorerModel) renderPreviewPane() string {
	if m.previewName == "" {
		return dimStyle.Render("Select a file to preview its output")
	}
	return titleStyle.Render(m.previewName) + "\n" + m.preview.View()
}
