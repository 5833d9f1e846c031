// Package storage is the reference server's system of record: articles kept
// in a JSON index on disk, or only in memory when no directory is given.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/irfansharif/simplepedia/pkg/article"
)

// Index is the on-disk layout of the store.
type Index struct {
	NextID   int64             `json:"next_id"`
	Articles []article.Article `json:"articles"`
}

// Store manages article storage. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	indexPath string // empty for a memory-only store
	index     *Index
	now       func() time.Time
}

// New creates a Store persisting to basePath/index.json. An empty basePath
// keeps everything in memory.
func New(basePath string) (*Store, error) {
	s := &Store{now: time.Now}
	if basePath == "" {
		s.index = &Index{NextID: 1, Articles: []article.Article{}}
		return s, nil
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	s.indexPath = filepath.Join(basePath, "index.json")

	if err := s.loadIndex(); err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	return s, nil
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		s.index = &Index{NextID: 1, Articles: []article.Article{}}
		return nil
	}
	if err != nil {
		return err
	}

	s.index = &Index{}
	if err := json.Unmarshal(data, s.index); err != nil {
		return err
	}
	if s.index.Articles == nil {
		s.index.Articles = []article.Article{}
	}
	s.index.NextID = max(s.index.NextID, 1)
	for _, a := range s.index.Articles {
		if a.ID >= s.index.NextID {
			s.index.NextID = a.ID + 1
		}
	}
	return nil
}

func (s *Store) saveIndex() error {
	if s.indexPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.indexPath)
}

// List returns every article, sorted by title.
func (s *Store) List() []article.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]article.Article, len(s.index.Articles))
	copy(result, s.index.Articles)
	sort.Slice(result, func(i, j int) bool {
		return article.SortKey(result[i].Title) < article.SortKey(result[j].Title)
	})
	return result
}

// Get retrieves an article by id.
func (s *Store) Get(id int64) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.find(id)
	if idx == -1 {
		return article.Article{}, fmt.Errorf("article %d: %w", id, article.ErrNotFound)
	}
	return s.index.Articles[idx], nil
}

// Create assigns the next id to a and stores it. Any id on a is ignored.
func (s *Store) Create(a article.Article) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := a.Validate(); err != nil {
		return article.Article{}, err
	}
	if s.titleTaken(a.Title, 0) {
		return article.Article{}, fmt.Errorf("%q: %w", a.Title, article.ErrDuplicateTitle)
	}
	if a.Edited.IsZero() {
		a.Edited = s.now().UTC()
	}

	a.ID = s.index.NextID
	s.index.NextID++
	s.index.Articles = append(s.index.Articles, a)
	if err := s.saveIndex(); err != nil {
		s.index.Articles = s.index.Articles[:len(s.index.Articles)-1]
		s.index.NextID--
		return article.Article{}, fmt.Errorf("saving index: %w", err)
	}
	return a, nil
}

// Replace overwrites the stored record with a's id.
func (s *Store) Replace(a article.Article) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := a.Validate(); err != nil {
		return article.Article{}, err
	}
	if s.titleTaken(a.Title, a.ID) {
		return article.Article{}, fmt.Errorf("%q: %w", a.Title, article.ErrDuplicateTitle)
	}
	idx := s.find(a.ID)
	if idx == -1 {
		return article.Article{}, fmt.Errorf("article %d: %w", a.ID, article.ErrNotFound)
	}
	if a.Edited.IsZero() {
		a.Edited = s.now().UTC()
	}

	prev := s.index.Articles[idx]
	s.index.Articles[idx] = a
	if err := s.saveIndex(); err != nil {
		s.index.Articles[idx] = prev
		return article.Article{}, fmt.Errorf("saving index: %w", err)
	}
	return a, nil
}

// Delete removes an article by id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.find(id)
	if idx == -1 {
		return fmt.Errorf("article %d: %w", id, article.ErrNotFound)
	}

	prev := append([]article.Article(nil), s.index.Articles...)
	s.index.Articles = append(s.index.Articles[:idx], s.index.Articles[idx+1:]...)
	if err := s.saveIndex(); err != nil {
		s.index.Articles = prev
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// Seed loads articles into an empty store, keeping their ids when set.
// It does nothing if the store already holds articles.
func (s *Store) Seed(articles []article.Article) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.index.Articles) > 0 {
		return 0, nil
	}

	prev := *s.index
	titles := make(map[string]bool, len(articles))
	ids := make(map[int64]bool, len(articles))
	for _, a := range articles {
		if a.ID != 0 {
			ids[a.ID] = true
			if a.ID >= s.index.NextID {
				s.index.NextID = a.ID + 1
			}
		}
	}
	for _, a := range articles {
		if err := a.Validate(); err != nil {
			*s.index = prev
			return 0, fmt.Errorf("seeding %q: %w", a.Title, err)
		}
		if titles[a.Title] {
			*s.index = prev
			return 0, fmt.Errorf("seeding %q: %w", a.Title, article.ErrDuplicateTitle)
		}
		titles[a.Title] = true
		if a.ID == 0 {
			a.ID = s.index.NextID
			s.index.NextID++
		}
		s.index.Articles = append(s.index.Articles, a)
	}
	if len(ids) != len(articles)-countUnset(articles) {
		*s.index = prev
		return 0, fmt.Errorf("seeding: repeated article id")
	}
	if err := s.saveIndex(); err != nil {
		*s.index = prev
		return 0, fmt.Errorf("saving index: %w", err)
	}
	return len(articles), nil
}

// Count returns the total number of articles.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index.Articles)
}

func (s *Store) find(id int64) int {
	for i := range s.index.Articles {
		if s.index.Articles[i].ID == id {
			return i
		}
	}
	return -1
}

func countUnset(articles []article.Article) int {
	n := 0
	for _, a := range articles {
		if a.ID == 0 {
			n++
		}
	}
	return n
}

// titleTaken reports whether an article other than except holds title.
func (s *Store) titleTaken(title string, except int64) bool {
	for _, a := range s.index.Articles {
		if a.Title == title && a.ID != except {
			return true
		}
	}
	return false
}
