package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/client"
	"github.com/irfansharif/simplepedia/pkg/server"
	"github.com/irfansharif/simplepedia/pkg/storage"
)

func newTestClient(t *testing.T) (*client.Client, *storage.Store) {
	t.Helper()
	store, err := storage.New("")
	require.NoError(t, err)
	_, err = store.Seed([]article.Article{
		{ID: 1, Title: "Alpha Centauri", Extract: "An alien diplomat", Edited: time.Date(1972, 1, 29, 18, 0, 40, 0, time.UTC)},
		{ID: 2, Title: "Dominators", Extract: "Galactic bullies", Edited: time.Date(1968, 8, 10, 18, 0, 40, 0, time.UTC)},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(server.NewRouter(store, zerolog.Nop()))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL + server.BasePath)
	require.NoError(t, err)
	return c, store
}

func TestNewRejectsBadEndpoint(t *testing.T) {
	_, err := client.New("localhost:8080")
	assert.Error(t, err)
	_, err = client.New("://nope")
	assert.Error(t, err)

	c, err := client.New("http://example.com/api/articles")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/articles/", c.Endpoint())
}

func TestList(t *testing.T) {
	c, _ := newTestClient(t)
	articles, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Alpha Centauri", articles[0].Title)
	assert.True(t, articles[0].Edited.Equal(time.Date(1972, 1, 29, 18, 0, 40, 0, time.UTC)))
}

func TestCreate(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	created, err := c.Create(ctx, article.Article{ID: 1, Title: "1234", Extract: "5678"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
	assert.Equal(t, "1234", created.Title)
	assert.Equal(t, 3, store.Count())

	_, err = c.Create(ctx, article.Article{Title: "Dominators"})
	var verr *client.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, http.StatusConflict, verr.Status)
	assert.ErrorIs(t, err, article.ErrDuplicateTitle)

	_, err = c.Create(ctx, article.Article{})
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, article.ErrTitleRequired)
	assert.Equal(t, 3, store.Count())
}

func TestUpdate(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	updated, err := c.Update(ctx, article.Article{ID: 1, Title: "Alpha", Extract: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", updated.Title)

	_, err = c.Update(ctx, article.Article{ID: 1, Title: "Dominators"})
	assert.ErrorIs(t, err, article.ErrDuplicateTitle)
	assert.False(t, errors.Is(err, article.ErrNotFound))

	_, err = c.Update(ctx, article.Article{ID: 12, Title: "Ghost"})
	var nferr *client.NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, int64(12), nferr.ID)
	assert.ErrorIs(t, err, article.ErrNotFound)

	_, err = c.Update(ctx, article.Article{Title: "No id"})
	assert.ErrorIs(t, err, article.ErrIDMismatch)

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Extract)
}

func TestRemove(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Remove(ctx, 2))
	assert.Equal(t, 1, store.Count())

	err := c.Remove(ctx, 2)
	var nferr *client.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL + "/api/articles/")
	require.NoError(t, err)

	_, err = c.List(context.Background())
	var terr *client.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.Status)
	assert.Contains(t, err.Error(), "upstream on fire")

	srv.Close()
	_, err = c.List(context.Background())
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, terr.Status)
}

func TestListFailuresAreTransportErrors(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadRequest, http.StatusConflict} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"nope","code":"duplicate_title"}`))
		}))

		c, err := client.New(srv.URL + "/api/articles/")
		require.NoError(t, err)
		_, err = c.List(context.Background())
		srv.Close()

		var terr *client.TransportError
		require.ErrorAs(t, err, &terr, "status %d", status)
		assert.Equal(t, status, terr.Status)
		assert.False(t, errors.Is(err, article.ErrDuplicateTitle))
		assert.False(t, errors.Is(err, article.ErrNotFound))
	}
}

func TestCreateNotFoundIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL + "/api/articles/")
	require.NoError(t, err)
	_, err = c.Create(context.Background(), article.Article{Title: "Zygons"})
	var terr *client.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.Status)

	// Update keeps the semantic kind.
	_, err = c.Update(context.Background(), article.Article{ID: 9, Title: "Zygons"})
	var nferr *client.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestTimeoutLeavesCallerClientAlone(t *testing.T) {
	hc := &http.Client{}
	_, err := client.New("http://localhost:8080/api/articles/",
		client.WithHTTPClient(hc), client.WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Zero(t, hc.Timeout)
}

func TestKnownCodeWinsOverStatus(t *testing.T) {
	// Some servers report every rejection as a 500; the code still decides.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Article has duplicate title","code":"duplicate_title"}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL + "/api/articles/")
	require.NoError(t, err)

	_, err = c.Update(context.Background(), article.Article{ID: 1, Title: "Daleks"})
	var verr *client.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Article has duplicate title", verr.Message)
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "one"`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL + "/api/articles/")
	require.NoError(t, err)
	_, err = c.List(context.Background())
	var terr *client.TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestRequestID(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL+"/api/articles/", client.WithTimeout(time.Second))
	require.NoError(t, err)
	articles, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Len(t, seen, 36)
}
