package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/editor"
)

type field int

const (
	fieldTitle field = iota
	fieldExtract
)

// EditorModel is the editor pane: a title input and an extract textarea
// backed by an editor.Form.
type EditorModel struct {
	title   textinput.Model
	extract textarea.Model
	focus   field
	seed    editor.Form
	styles  Styles
}

// NewEditor creates an editor pane seeded from src, or blank when src is
// nil. The returned command focuses the title field.
func NewEditor(src *article.Article, width, height int, styles Styles) (EditorModel, tea.Cmd) {
	form := editor.New(src)

	ti := textinput.New()
	ti.Placeholder = "Title must be set"
	ti.CharLimit = 0
	ti.SetValue(form.Title())

	ta := textarea.New()
	ta.Placeholder = "Extract"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetValue(form.Extract())

	e := EditorModel{
		title:   ti,
		extract: ta,
		seed:    form,
		styles:  styles,
	}
	e = e.SetSize(width, height)
	cmd := e.title.Focus()
	return e, cmd
}

// Update handles messages for the focused field.
func (e EditorModel) Update(msg tea.Msg) (EditorModel, tea.Cmd) {
	var cmd tea.Cmd
	switch e.focus {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldExtract:
		e.extract, cmd = e.extract.Update(msg)
	}
	return e, cmd
}

// NextField moves focus to the other field.
func (e EditorModel) NextField() (EditorModel, tea.Cmd) {
	var cmd tea.Cmd
	if e.focus == fieldTitle {
		e.focus = fieldExtract
		e.title.Blur()
		cmd = e.extract.Focus()
	} else {
		e.focus = fieldTitle
		e.extract.Blur()
		cmd = e.title.Focus()
	}
	return e, cmd
}

// Form returns the editor form with the fields' current values.
func (e EditorModel) Form() editor.Form {
	f := e.seed
	f.SetTitle(e.title.Value())
	f.SetExtract(e.extract.Value())
	return f
}

// Extract returns the extract field's value.
func (e EditorModel) Extract() string {
	return e.extract.Value()
}

// SetExtract replaces the extract field's value.
func (e EditorModel) SetExtract(s string) EditorModel {
	e.extract.SetValue(s)
	return e
}

// SetSize fits both fields to the pane.
func (e EditorModel) SetSize(width, height int) EditorModel {
	w, h := paneSize(width, height)
	e.title.Width = w
	e.extract.SetWidth(w)
	e.extract.SetHeight(h)
	return e
}

// paneSize is the room left for the extract inside the editor box.
func paneSize(width, height int) (int, int) {
	return max(width-10, 20), max(height-18, 3) // Box chrome, header, title and help
}

// View renders the editor pane. extract, when non-empty, replaces the
// textarea (the embedded $EDITOR pane renders there).
func (e EditorModel) View(saving bool, extract string) string {
	heading := "New article"
	if e.seed.Editing() {
		heading = "Edit article"
	}
	if extract == "" {
		extract = e.extract.View()
	}

	form := e.Form()
	save := e.styles.Muted.Render("[ctrl+s] save")
	switch {
	case saving:
		save = e.styles.Muted.Render("Saving...")
	case !form.CanSave():
		save = e.styles.Disabled.Render("[ctrl+s] save")
	}

	var sb strings.Builder
	sb.WriteString(e.styles.InputLabel.Render(heading))
	sb.WriteString("\n\n")
	sb.WriteString(e.styles.Muted.Render("Title"))
	sb.WriteString("\n")
	sb.WriteString(e.title.View())
	sb.WriteString("\n\n")
	sb.WriteString(e.styles.Muted.Render("Extract"))
	sb.WriteString("\n")
	sb.WriteString(extract)
	sb.WriteString("\n\n")
	sb.WriteString(save + "  " + e.styles.Muted.Render("[esc] cancel"))
	return e.styles.InputBox.Render(sb.String())
}
