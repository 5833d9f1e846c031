// Package editor holds the local draft while an article is being created or
// edited. It never talks to the network; finishing a session yields a
// single Completion for the application to act on.
package editor

import (
	"time"

	"github.com/irfansharif/simplepedia/pkg/article"
)

// Completion is the single-shot result of an editor session. A nil Draft
// means the session was cancelled.
type Completion struct {
	Draft *article.Draft
}

// Cancelled reports whether the session ended without a draft.
func (c Completion) Cancelled() bool {
	return c.Draft == nil
}

// Form is the editor's draft state.
type Form struct {
	title   string
	extract string

	sourceID int64
	original [2]string
}

// New seeds a form from src, or starts empty when src is nil.
func New(src *article.Article) Form {
	var f Form
	if src != nil {
		f.title = src.Title
		f.extract = src.Extract
		f.sourceID = src.ID
	}
	f.original = [2]string{f.title, f.extract}
	return f
}

func (f Form) Title() string   { return f.title }
func (f Form) Extract() string { return f.extract }

func (f *Form) SetTitle(s string)   { f.title = s }
func (f *Form) SetExtract(s string) { f.extract = s }

// Editing reports whether the form was seeded from an existing article.
func (f Form) Editing() bool {
	return f.sourceID != 0
}

// Dirty reports whether either field differs from its seeded value.
func (f Form) Dirty() bool {
	return f.original != [2]string{f.title, f.extract}
}

// CanSave reports whether the save action is enabled.
func (f Form) CanSave() bool {
	return f.title != ""
}

// Save packages the fields and the given time into a draft. It returns false,
// and no completion, while saving is disabled.
func (f Form) Save(now time.Time) (Completion, bool) {
	if !f.CanSave() {
		return Completion{}, false
	}
	return Completion{Draft: &article.Draft{
		Title:   f.title,
		Extract: f.extract,
		Edited:  now.UTC(),
	}}, true
}

// Cancel ends the session without a draft.
func (f Form) Cancel() Completion {
	return Completion{}
}
