// Package article defines the article record, the editor draft and the
// id-keyed collection that keeps titles unique.
package article

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrTitleRequired  = errors.New("title must be defined")
	ErrDuplicateTitle = errors.New("article has duplicate title")
	ErrIDMismatch     = errors.New("id mismatch between request and body")
	ErrNotFound       = errors.New("original item not found")
)

var validate = validator.New()

// Article is a single encyclopedia entry. ID is zero until the server
// assigns one.
type Article struct {
	ID      int64     `json:"id,omitempty"`
	Title   string    `json:"title" validate:"required"`
	Extract string    `json:"extract"`
	Edited  time.Time `json:"edited"`
}

// Persisted reports whether the server has assigned an id.
func (a Article) Persisted() bool {
	return a.ID != 0
}

// Validate checks the article is fit to send to the server.
func (a Article) Validate() error {
	return check(a)
}

// Draft is an uncommitted title/extract pair produced by the editor.
type Draft struct {
	Title   string    `validate:"required"`
	Extract string
	Edited  time.Time
}

// Validate checks the draft can be saved.
func (d Draft) Validate() error {
	return check(d)
}

// Article returns the draft as a new, not yet persisted article.
func (d Draft) Article() Article {
	return Article{Title: d.Title, Extract: d.Extract, Edited: d.Edited}
}

// Apply merges the draft onto a copy of base, keeping base's id.
func (d Draft) Apply(base Article) Article {
	base.Title = d.Title
	base.Extract = d.Extract
	base.Edited = d.Edited
	return base
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Title" {
					return ErrTitleRequired
				}
			}
		}
		return err
	}
	return nil
}
