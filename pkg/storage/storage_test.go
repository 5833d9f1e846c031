package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/simplepedia/pkg/article"
)

func TestCreateAssignsIDs(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)

	a, err := s.Create(article.Article{Title: "Daleks", Extract: "Evil little pepperpots"})
	require.NoError(t, err)
	b, err := s.Create(article.Article{ID: 77, Title: "Autons"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID, "client supplied ids are ignored")
	assert.False(t, a.Edited.IsZero(), "missing edited stamp is filled in")
	assert.Equal(t, 2, s.Count())
}

func TestCreateRejects(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	_, err = s.Create(article.Article{Title: "Daleks"})
	require.NoError(t, err)

	_, err = s.Create(article.Article{Extract: "no title"})
	assert.ErrorIs(t, err, article.ErrTitleRequired)
	_, err = s.Create(article.Article{Title: "Daleks"})
	assert.ErrorIs(t, err, article.ErrDuplicateTitle)
	assert.Equal(t, 1, s.Count())
}

func TestReplace(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	a, _ := s.Create(article.Article{Title: "Daleks"})
	b, _ := s.Create(article.Article{Title: "Autons"})

	_, err = s.Replace(article.Article{ID: b.ID, Title: "Daleks"})
	assert.ErrorIs(t, err, article.ErrDuplicateTitle)
	_, err = s.Replace(article.Article{ID: 99, Title: "Cybermen"})
	assert.ErrorIs(t, err, article.ErrNotFound)

	edited := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.Replace(article.Article{ID: a.ID, Title: "Daleks", Extract: "Exterminate", Edited: edited})
	require.NoError(t, err)
	assert.True(t, got.Edited.Equal(edited))

	stored, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exterminate", stored.Extract)
}

func TestDelete(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	a, _ := s.Create(article.Article{Title: "Daleks"})

	require.NoError(t, s.Delete(a.ID))
	assert.ErrorIs(t, s.Delete(a.ID), article.ErrNotFound)
	assert.Empty(t, s.List())
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.Create(article.Article{Title: "Daleks"})
	require.NoError(t, err)
	_, err = s.Create(article.Article{Title: "Autons"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "index.json"))
	require.NoError(t, err)

	reopened, err := New(dir)
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Autons", list[0].Title)

	c, err := reopened.Create(article.Article{Title: "Cybermen"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
}

func TestSeed(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)

	n, err := s.Seed([]article.Article{
		{ID: 5, Title: "Daleks"},
		{Title: "Autons"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	autons, err := s.Get(6)
	require.NoError(t, err)
	assert.Equal(t, "Autons", autons.Title)

	// A second seed is a no-op once the store holds data.
	n, err = s.Seed([]article.Article{{Title: "Cybermen"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, s.Count())
}

func TestSeedRejectsDuplicateTitles(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)

	_, err = s.Seed([]article.Article{{Title: "Daleks"}, {Title: "Daleks"}})
	assert.ErrorIs(t, err, article.ErrDuplicateTitle)
	assert.Zero(t, s.Count())
}

func TestLoadIndexWithoutNextID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(`{"articles": []}`), 0644))

	s, err := New(dir)
	require.NoError(t, err)
	a, err := s.Create(article.Article{Title: "Daleks"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
}

func TestFailedCreateDoesNotSkipIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	// A directory in the way of the temp file makes the write fail.
	tmp := filepath.Join(dir, "index.json.tmp")
	require.NoError(t, os.Mkdir(tmp, 0755))
	_, err = s.Create(article.Article{Title: "Daleks"})
	require.Error(t, err)
	assert.Zero(t, s.Count())

	require.NoError(t, os.Remove(tmp))
	a, err := s.Create(article.Article{Title: "Daleks"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
}
