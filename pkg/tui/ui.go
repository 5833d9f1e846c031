package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/irfansharif/simplepedia/pkg/app"
	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/client"
)

// Options tunes the TUI.
type Options struct {
	// TimeFormat is the Go layout for edit times. Defaults to
	// DefaultTimeFormat.
	TimeFormat string
	// Editor is the program ctrl+e opens on the extract. Defaults to
	// $VISUAL, then $EDITOR, then vi.
	Editor string
	Log    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the main TUI model.
type Model struct {
	machine *app.Machine
	remote  client.Remote
	log     zerolog.Logger
	keys    KeyMap
	styles  Styles
	width   int
	height  int

	// Index state
	cursor int

	// Components
	editor   EditorModel
	term     *TerminalModel
	termPath string
	spinner  spinner.Model
	help     help.Model

	timeFormat string
	editorProg string
	now        func() time.Time

	// Status
	err       error
	statusMsg string
}

// opResultMsg carries a finished remote call back to the update loop.
type opResultMsg struct{ res app.Result }

// New creates a new TUI model talking to remote.
func New(remote client.Remote, opts Options) Model {
	styles := DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Model{
		machine:    app.New(opts.Log),
		remote:     remote,
		log:        opts.Log,
		keys:       DefaultKeyMap(),
		styles:     styles,
		spinner:    s,
		help:       help.New(),
		timeFormat: opts.TimeFormat,
		editorProg: opts.Editor,
		now:        opts.Now,
	}
}

// Init issues the startup load.
func (m Model) Init() tea.Cmd {
	op, err := m.machine.Start()
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.run(op))
}

// run performs op off the update loop.
func (m Model) run(op app.Op) tea.Cmd {
	remote, log := m.remote, m.log
	return func() tea.Msg {
		log.Debug().Stringer("op", op.Kind).Msg("Running request")
		return opResultMsg{res: op.Run(context.Background(), remote)}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.machine.Mode() == app.Editing {
			m.editor = m.editor.SetSize(msg.Width, msg.Height)
		}
		if m.term != nil {
			m.term.Resize(paneSize(msg.Width, msg.Height))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if _, ok := m.machine.Pending(); ok {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case opResultMsg:
		return m.handleResult(msg.res), nil

	case terminalTickMsg:
		if m.term != nil {
			return m, m.term.Update(msg)
		}
		return m, nil

	case terminalExitMsg:
		return m.handleTerminalExit(msg), nil
	}

	// Cursor blinks and the like.
	var cmd tea.Cmd
	if m.machine.Mode() == app.Editing && m.term == nil {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m Model) handleResult(res app.Result) Model {
	before := len(m.machine.Errors())
	m.machine.Apply(res)
	if len(m.machine.Errors()) > before {
		m.err = m.machine.LastError()
		m.statusMsg = ""
		return m
	}

	m.err = nil
	switch res.Op.Kind {
	case app.OpList:
		m.statusMsg = fmt.Sprintf("Loaded %d articles", len(res.Articles))
	case app.OpCreate:
		m.statusMsg = fmt.Sprintf("Created: %s", res.Article.Title)
	case app.OpUpdate:
		m.statusMsg = fmt.Sprintf("Saved: %s", res.Article.Title)
	case app.OpRemove:
		m.statusMsg = "Article deleted"
	}
	m.syncCursor()
	return m
}

// syncCursor moves the cursor onto the current article, or keeps it in
// range when nothing is selected.
func (m *Model) syncCursor() {
	articles := m.machine.Articles()
	if cur, ok := m.machine.Current(); ok {
		for i, a := range articles {
			if a.ID == cur.ID {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(articles) {
		m.cursor = max(0, len(articles)-1)
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The embedded editor gets every key until it exits.
	if m.term != nil {
		return m, m.term.Update(msg)
	}
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.machine.Mode() == app.Editing {
		return m.handleEditorKeys(msg)
	}
	return m.handleIndexKeys(msg)
}

func (m Model) handleIndexKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	articles := m.machine.Articles()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(articles)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		if len(articles) > 0 {
			m.cursor = len(articles) - 1
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(articles) {
			if err := m.machine.Select(articles[m.cursor].ID); err != nil {
				m.err = err
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Deselect):
		m.machine.Deselect()
		return m, nil

	case key.Matches(msg, m.keys.New):
		if err := m.machine.New(); err != nil {
			m.err = err
			return m, nil
		}
		return m.openEditor()

	case key.Matches(msg, m.keys.Edit):
		if err := m.machine.Edit(); err != nil {
			m.err = err
			return m, nil
		}
		return m.openEditor()

	case key.Matches(msg, m.keys.Delete):
		op, err := m.machine.Delete()
		return m.issue(op, err)

	case key.Matches(msg, m.keys.Reload):
		op, err := m.machine.Reload()
		return m.issue(op, err)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

// issue starts op, or shows why it could not be issued.
func (m Model) issue(op app.Op, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.statusMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.run(op))
}

func (m Model) openEditor() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.editor, cmd = NewEditor(m.machine.EditorSource(), m.width, m.height, m.styles)
	m.err = nil
	m.statusMsg = ""
	return m, cmd
}

func (m Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Fields are frozen while a save is in flight.
	if _, saving := m.machine.Pending(); saving {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if _, _, err := m.machine.Complete(m.editor.Form().Cancel()); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.syncCursor()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		c, ok := m.editor.Form().Save(m.now())
		if !ok {
			m.err = article.ErrTitleRequired
			return m, nil
		}
		op, issued, err := m.machine.Complete(c)
		if !issued {
			m.err = err
			return m, nil
		}
		return m.issue(op, nil)

	case key.Matches(msg, m.keys.NextField):
		var cmd tea.Cmd
		m.editor, cmd = m.editor.NextField()
		return m, cmd

	case key.Matches(msg, m.keys.External):
		return m.openExternalEditor()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// openExternalEditor hands the extract to $EDITOR in an embedded terminal.
func (m Model) openExternalEditor() (tea.Model, tea.Cmd) {
	path, err := writeExtractFile(m.editor.Extract())
	if err != nil {
		m.err = err
		return m, nil
	}
	prog := resolveEditor(m.editorProg)
	m.log.Debug().Str("editor", prog).Str("path", path).Msg("Editing extract externally")

	w, h := paneSize(m.width, m.height)
	var cmd tea.Cmd
	m.term, cmd = NewTerminal(w, h, editorCommand(prog, path))
	m.termPath = path
	return m, cmd
}

func (m Model) handleTerminalExit(msg terminalExitMsg) Model {
	if m.term == nil {
		return m
	}
	m.term.Close()
	m.term = nil

	extract, err := readExtractFile(m.termPath)
	m.termPath = ""
	switch {
	case msg.err != nil:
		m.err = fmt.Errorf("editor: %w", msg.err)
	case err != nil:
		m.err = err
	default:
		m.editor = m.editor.SetExtract(extract)
	}
	return m
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder
	articles := m.machine.Articles()
	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("Simplepedia (%d)", len(articles))))
	sb.WriteString("\n")

	pending, busy := m.machine.Pending()
	switch {
	case m.machine.Mode() == app.Editing:
		var ext string
		if m.term != nil {
			ext = m.term.View()
		}
		sb.WriteString(m.editor.View(busy, ext))
	case busy && pending.Kind == app.OpList && !m.machine.Loaded():
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Loading articles...")
	default:
		sb.WriteString(m.renderBrowse(articles))
	}

	// Status/error message, placed just above the footer help text.
	var statusLine string
	switch {
	case busy:
		statusLine = m.spinner.View() + " " + m.styles.Muted.Render(pendingLabel(pending.Kind))
	case m.err != nil:
		statusLine = m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
	case m.statusMsg != "":
		statusLine = m.styles.Success.Render(m.statusMsg)
	}

	// Push the footer to the bottom by filling remaining vertical space.
	content := sb.String()
	contentHeight := strings.Count(content, "\n") + 1
	appPaddingV := 2 // Top + bottom padding from App style
	footerLines := 1 // Help text
	if statusLine != "" {
		footerLines += 2 // Status line + blank line separating it from help
	}
	if remaining := m.height - contentHeight - appPaddingV - footerLines; remaining > 0 {
		sb.WriteString(strings.Repeat("\n", remaining))
	}

	if statusLine != "" {
		sb.WriteString(statusLine)
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Footer.Render(m.renderHelp()))

	return m.styles.App.Render(sb.String())
}

// renderBrowse lays out the index and the detail pane side by side.
func (m Model) renderBrowse(articles []article.Article) string {
	if len(articles) == 0 {
		return renderEmptyState(m.styles)
	}

	indexWidth := min(max(m.width/3, 20), 40)
	detailWidth := max(m.width-indexWidth-10, 20)
	rows := max(m.height-10, 5) // Header, status and help

	var current int64
	detail := renderNoSelection(m.styles)
	if cur, ok := m.machine.Current(); ok {
		current = cur.ID
		detail = renderDetail(cur, m.now(), m.timeFormat, detailWidth, m.styles)
	}

	index := renderIndex(m.machine.Sections(), m.cursor, current, indexWidth, rows, m.styles)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.IndexPane.Width(indexWidth).Render(index),
		m.styles.DetailPane.Width(detailWidth).Render(detail),
	)
}

func (m Model) renderHelp() string {
	if m.machine.Mode() == app.Editing {
		return m.help.View(editorKeys{m.keys})
	}
	return m.help.View(m.keys)
}

func pendingLabel(k app.OpKind) string {
	switch k {
	case app.OpList:
		return "Loading articles..."
	case app.OpRemove:
		return "Deleting..."
	default:
		return "Saving..."
	}
}
