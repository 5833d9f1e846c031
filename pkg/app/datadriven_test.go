package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/datadriven"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/simplepedia/pkg/app"
	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/client"
	"github.com/irfansharif/simplepedia/pkg/editor"
	"github.com/irfansharif/simplepedia/pkg/server"
	"github.com/irfansharif/simplepedia/pkg/storage"
)

func sampleArticles() []article.Article {
	return []article.Article{
		{ID: 1, Title: "Alpha Centauri", Extract: "An alien diplomat with an enormous egg shaped head", Edited: time.Date(1972, 1, 29, 18, 0, 40, 0, time.UTC)},
		{ID: 2, Title: "Dominators", Extract: "Galactic bullies with funny robot pals.", Edited: time.Date(1968, 8, 10, 18, 0, 40, 0, time.UTC)},
		{ID: 3, Title: "Cybermen", Extract: "Once like us, they have now replaced all of their body parts with cybernetics", Edited: time.Date(1966, 10, 8, 18, 0, 40, 0, time.UTC)},
		{ID: 4, Title: "Autons", Extract: "Plastic baddies driven by the Nestine consciousness", Edited: time.Date(1970, 1, 3, 18, 0, 40, 0, time.UTC)},
		{ID: 5, Title: "Daleks", Extract: "Evil little pepperpots of death", Edited: time.Date(1963, 12, 21, 18, 0, 40, 0, time.UTC)},
	}
}

// env is one script's world: a reference server seeded with the sample
// articles, a client pointed at it, the machine, and the open editor form.
type env struct {
	store   *storage.Store
	down    atomic.Bool
	remote  *client.Client
	machine *app.Machine
	form    editor.Form
	ticks   int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := storage.New("")
	require.NoError(t, err)
	_, err = store.Seed(sampleArticles())
	require.NoError(t, err)

	e := &env{store: store, machine: app.New(zerolog.Nop())}
	router := server.NewRouter(store, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.down.Load() {
			http.Error(w, "server unavailable", http.StatusServiceUnavailable)
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	e.remote, err = client.New(srv.URL + server.BasePath)
	require.NoError(t, err)
	return e
}

// now returns 2026-10-17T12:00:00Z, then one minute later on every call.
func (e *env) now() time.Time {
	ts := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC).Add(time.Duration(e.ticks) * time.Minute)
	e.ticks++
	return ts
}

func (e *env) run(op app.Op) {
	e.machine.Apply(op.Run(context.Background(), e.remote))
}

func (e *env) status() string {
	current := "none"
	if a, ok := e.machine.Current(); ok {
		current = fmt.Sprint(a.ID)
	}
	return fmt.Sprintf("mode=%s current=%s errors=%d\n",
		e.machine.Mode(), current, len(e.machine.Errors()))
}

func (e *env) formState() string {
	return fmt.Sprintf("title=%q extract=%q can-save=%t\n",
		e.form.Title(), e.form.Extract(), e.form.CanSave())
}

func formatArticles(articles []article.Article) string {
	if len(articles) == 0 {
		return "(empty)\n"
	}
	var sb strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&sb, "%d %s (%s): %s\n", a.ID, a.Title, a.Edited.UTC().Format(time.RFC3339), a.Extract)
	}
	return sb.String()
}

func TestMachine(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		e := newEnv(t)
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			return e.cmd(t, d)
		})
	})
}

func (e *env) cmd(t *testing.T, d *datadriven.TestData) string {
	t.Helper()
	switch d.Cmd {
	case "start", "reload":
		start := e.machine.Start
		if d.Cmd == "reload" {
			start = e.machine.Reload
		}
		op, err := start()
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		e.run(op)
		return e.status()

	case "select":
		var id int
		d.ScanArgs(t, "id", &id)
		if err := e.machine.Select(int64(id)); err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		return e.status()

	case "new":
		if err := e.machine.New(); err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		e.form = editor.New(e.machine.EditorSource())
		return e.status()

	case "edit":
		if err := e.machine.Edit(); err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		e.form = editor.New(e.machine.EditorSource())
		return e.status()

	case "type":
		for _, line := range strings.Split(d.Input, "\n") {
			field, value, ok := strings.Cut(line, ":")
			if !ok {
				d.Fatalf(t, "expected <field>: <value>, got %q", line)
			}
			value = strings.TrimSpace(value)
			switch strings.TrimSpace(field) {
			case "title":
				e.form.SetTitle(value)
			case "extract":
				e.form.SetExtract(value)
			default:
				d.Fatalf(t, "unknown field %q", field)
			}
		}
		return e.formState()

	case "form":
		return e.formState()

	case "save", "cancel":
		completion := e.form.Cancel()
		if d.Cmd == "save" {
			var ok bool
			if completion, ok = e.form.Save(e.now()); !ok {
				return "save disabled\n"
			}
		}
		op, issued, err := e.machine.Complete(completion)
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		if !issued {
			return e.status()
		}
		e.run(op)
		return fmt.Sprintf("op: %s\n%s", op.Kind, e.status())

	case "delete":
		op, err := e.machine.Delete()
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		e.run(op)
		return fmt.Sprintf("op: %s\n%s", op.Kind, e.status())

	case "server":
		if len(d.CmdArgs) != 1 {
			d.Fatalf(t, "server requires up or down")
		}
		e.down.Store(d.CmdArgs[0].Key == "down")
		return "ok\n"

	case "show":
		return formatArticles(e.machine.Articles())

	case "remote":
		return formatArticles(e.store.List())

	case "errors":
		var sb strings.Builder
		for _, err := range e.machine.Errors() {
			fmt.Fprintf(&sb, "%v\n", err)
		}
		if sb.Len() == 0 {
			return "(none)\n"
		}
		return sb.String()

	default:
		d.Fatalf(t, "unknown command %q", d.Cmd)
		return ""
	}
}
