package article

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Collection is a set of articles keyed by id. Titles are unique within it.
// The zero value is an empty collection.
type Collection struct {
	byID map[int64]Article
}

// Section is a group of articles sharing the first letter of their title.
type Section struct {
	Letter   string
	Articles []Article
}

// NewCollection builds a collection from articles as listed by the server.
// Later entries with a repeated id replace earlier ones.
func NewCollection(articles []Article) Collection {
	c := Collection{byID: make(map[int64]Article, len(articles))}
	for _, a := range articles {
		c.byID[a.ID] = a
	}
	return c
}

// Len returns the number of articles.
func (c Collection) Len() int {
	return len(c.byID)
}

// Get looks up an article by id.
func (c Collection) Get(id int64) (Article, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// TitleOwner returns the id of the article holding title, if any.
func (c Collection) TitleOwner(title string) (int64, bool) {
	for id, a := range c.byID {
		if a.Title == title {
			return id, true
		}
	}
	return 0, false
}

// Add inserts a persisted article. It fails if the id is already present
// or another article holds the same title.
func (c *Collection) Add(a Article) error {
	if !a.Persisted() {
		return fmt.Errorf("adding %q: article has no id", a.Title)
	}
	if _, ok := c.byID[a.ID]; ok {
		return fmt.Errorf("adding %q: id %d already present", a.Title, a.ID)
	}
	if _, ok := c.TitleOwner(a.Title); ok {
		return fmt.Errorf("adding %q: %w", a.Title, ErrDuplicateTitle)
	}
	if c.byID == nil {
		c.byID = make(map[int64]Article)
	}
	c.byID[a.ID] = a
	return nil
}

// Replace swaps the entry with a's id for a.
func (c *Collection) Replace(a Article) error {
	if _, ok := c.byID[a.ID]; !ok {
		return fmt.Errorf("replacing %d: %w", a.ID, ErrNotFound)
	}
	if owner, ok := c.TitleOwner(a.Title); ok && owner != a.ID {
		return fmt.Errorf("replacing %d: %w", a.ID, ErrDuplicateTitle)
	}
	c.byID[a.ID] = a
	return nil
}

// Remove deletes the article with the given id.
func (c *Collection) Remove(id int64) error {
	if _, ok := c.byID[id]; !ok {
		return fmt.Errorf("removing %d: %w", id, ErrNotFound)
	}
	delete(c.byID, id)
	return nil
}

// Sorted returns a copy of the articles ordered by title, case-insensitively,
// with id as the tie-breaker.
func (c Collection) Sorted() []Article {
	result := make([]Article, 0, len(c.byID))
	for _, a := range c.byID {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := SortKey(result[i].Title), SortKey(result[j].Title)
		if ti != tj {
			return ti < tj
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Sections groups the sorted articles by the upper-cased first letter of
// their title.
func (c Collection) Sections() []Section {
	var sections []Section
	for _, a := range c.Sorted() {
		letter := SectionLetter(a.Title)
		if n := len(sections); n > 0 && sections[n-1].Letter == letter {
			sections[n-1].Articles = append(sections[n-1].Articles, a)
			continue
		}
		sections = append(sections, Section{Letter: letter, Articles: []Article{a}})
	}
	return sections
}

// SortKey is the key titles are ordered by. It agrees with SectionLetter,
// so a section's articles are always adjacent.
func SortKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SectionLetter returns the index heading a title is filed under.
func SectionLetter(title string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(title))
	if r == utf8.RuneError {
		return "#"
	}
	return string(unicode.ToUpper(r))
}

// Equal reports whether both collections hold the same articles by value.
func (c Collection) Equal(other Collection) bool {
	if len(c.byID) != len(other.byID) {
		return false
	}
	for id, a := range c.byID {
		b, ok := other.byID[id]
		if !ok || a.Title != b.Title || a.Extract != b.Extract || !a.Edited.Equal(b.Edited) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c Collection) Clone() Collection {
	out := Collection{byID: make(map[int64]Article, len(c.byID))}
	for id, a := range c.byID {
		out.byID[id] = a
	}
	return out
}
