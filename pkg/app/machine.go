// Package app owns the authoritative article collection, the current
// selection and the view/edit mode, and reconciles them with the remote
// collection.
//
// Machine is not safe for concurrent use. One goroutine (the UI loop) drives
// it; remote calls run elsewhere as Ops and come back through Apply.
package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/editor"
)

// Mode is which view is showing.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

var (
	// ErrBusy is returned when a transition would issue a remote call while
	// another is still in flight.
	ErrBusy        = errors.New("another request is in flight")
	ErrNoSelection = errors.New("no article selected")
	ErrWrongMode   = errors.New("not allowed in this mode")
)

// Machine is the application state machine.
type Machine struct {
	collection article.Collection
	current    int64 // 0 when nothing is selected; server ids are positive
	mode       Mode
	pending    *Op
	loaded     bool
	errs       []error
	log        zerolog.Logger
}

// New returns a Machine in Viewing mode with an empty collection.
func New(log zerolog.Logger) *Machine {
	return &Machine{log: log}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// Loaded reports whether a list has ever succeeded.
func (m *Machine) Loaded() bool { return m.loaded }

// Pending returns the op in flight, if any.
func (m *Machine) Pending() (Op, bool) {
	if m.pending == nil {
		return Op{}, false
	}
	return *m.pending, true
}

// Collection returns a copy of the authoritative collection.
func (m *Machine) Collection() article.Collection { return m.collection.Clone() }

// Articles returns the collection sorted by title.
func (m *Machine) Articles() []article.Article { return m.collection.Sorted() }

// Sections returns the collection grouped for the index.
func (m *Machine) Sections() []article.Section { return m.collection.Sections() }

// Current returns the selected article, looked up by id.
func (m *Machine) Current() (article.Article, bool) {
	if m.current == 0 {
		return article.Article{}, false
	}
	return m.collection.Get(m.current)
}

// Errors returns every error recorded so far, oldest first.
func (m *Machine) Errors() []error {
	return append([]error(nil), m.errs...)
}

// LastError returns the most recent recorded error, or nil.
func (m *Machine) LastError() error {
	if len(m.errs) == 0 {
		return nil
	}
	return m.errs[len(m.errs)-1]
}

// Start issues the startup list.
func (m *Machine) Start() (Op, error) {
	return m.issue(Op{Kind: OpList})
}

// Reload re-lists the collection from the server. Only allowed while
// viewing.
func (m *Machine) Reload() (Op, error) {
	if m.mode != Viewing {
		return Op{}, ErrWrongMode
	}
	return m.issue(Op{Kind: OpList})
}

// Select makes the article with id current. No network call.
func (m *Machine) Select(id int64) error {
	if m.mode != Viewing {
		return ErrWrongMode
	}
	if _, ok := m.collection.Get(id); !ok {
		return fmt.Errorf("selecting %d: %w", id, article.ErrNotFound)
	}
	m.current = id
	return nil
}

// Deselect clears the current selection.
func (m *Machine) Deselect() {
	if m.mode == Viewing {
		m.current = 0
	}
}

// New opens the editor for a new article, clearing the selection.
func (m *Machine) New() error {
	if m.mode != Viewing {
		return ErrWrongMode
	}
	m.current = 0
	m.mode = Editing
	return nil
}

// Edit opens the editor on the current article.
func (m *Machine) Edit() error {
	if m.mode != Viewing {
		return ErrWrongMode
	}
	if _, ok := m.Current(); !ok {
		return ErrNoSelection
	}
	m.mode = Editing
	return nil
}

// EditorSource returns the article the editor should be seeded from, or nil
// when creating.
func (m *Machine) EditorSource() *article.Article {
	if m.mode != Editing {
		return nil
	}
	if a, ok := m.Current(); ok {
		return &a
	}
	return nil
}

// Complete handles the editor's completion. A cancel returns to Viewing and
// issues nothing. A draft issues a create (no selection) or an update
// (draft merged onto a copy of the selection); the machine stays in Editing
// until the result is applied, so a failed write leaves the editor open.
func (m *Machine) Complete(c editor.Completion) (Op, bool, error) {
	if m.mode != Editing {
		return Op{}, false, ErrWrongMode
	}
	if m.pending != nil {
		return Op{}, false, ErrBusy
	}
	if c.Cancelled() {
		m.mode = Viewing
		return Op{}, false, nil
	}
	if err := c.Draft.Validate(); err != nil {
		m.record("save", err)
		return Op{}, false, err
	}

	op := Op{Kind: OpCreate, Article: c.Draft.Article()}
	if cur, ok := m.Current(); ok {
		op = Op{Kind: OpUpdate, Article: c.Draft.Apply(cur)}
	}
	op, err := m.issue(op)
	if err != nil {
		return Op{}, false, err
	}
	return op, true, nil
}

// Delete issues a remove for the current article.
func (m *Machine) Delete() (Op, error) {
	if m.mode != Viewing {
		return Op{}, ErrWrongMode
	}
	cur, ok := m.Current()
	if !ok {
		return Op{}, ErrNoSelection
	}
	return m.issue(Op{Kind: OpRemove, ID: cur.ID})
}

func (m *Machine) issue(op Op) (Op, error) {
	if m.pending != nil {
		return Op{}, ErrBusy
	}
	m.pending = &op
	return op, nil
}

// Apply reconciles a finished op. On any failure the collection and
// selection are left exactly as they were and one error is recorded.
func (m *Machine) Apply(res Result) {
	m.pending = nil

	if res.Err != nil {
		m.record(res.Op.Kind.String(), res.Err)
		return
	}

	switch res.Op.Kind {
	case OpList:
		m.collection = article.NewCollection(res.Articles)
		m.loaded = true
		if _, ok := m.collection.Get(m.current); !ok {
			m.current = 0
		}
		if n := len(res.Articles); n != m.collection.Len() {
			m.log.Warn().Int("listed", n).Int("kept", m.collection.Len()).Msg("List contained repeated ids")
		}
		m.log.Info().Int("articles", m.collection.Len()).Msg("Collection loaded")

	case OpCreate:
		next := m.collection.Clone()
		if err := next.Add(res.Article); err != nil {
			m.record("create", fmt.Errorf("reconciling create: %w", err))
			return
		}
		m.collection = next
		m.current = res.Article.ID
		m.mode = Viewing
		m.log.Info().Int64("id", res.Article.ID).Str("title", res.Article.Title).Msg("Article created")

	case OpUpdate:
		next := m.collection.Clone()
		if err := next.Replace(res.Article); err != nil {
			m.record("update", fmt.Errorf("reconciling update: %w", err))
			return
		}
		m.collection = next
		m.current = res.Article.ID
		m.mode = Viewing
		m.log.Info().Int64("id", res.Article.ID).Str("title", res.Article.Title).Msg("Article updated")

	case OpRemove:
		// Already gone locally is fine; the server agrees it no longer exists.
		_ = m.collection.Remove(res.Op.ID)
		if m.current == res.Op.ID {
			m.current = 0
		}
		m.log.Info().Int64("id", res.Op.ID).Msg("Article removed")
	}
}

func (m *Machine) record(op string, err error) {
	m.errs = append(m.errs, err)
	m.log.Error().Err(err).Str("op", op).Msg("Request failed")
}
