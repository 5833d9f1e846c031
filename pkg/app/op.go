package app

import (
	"context"
	"fmt"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/client"
)

// OpKind identifies a remote call.
type OpKind int

const (
	OpList OpKind = iota
	OpCreate
	OpUpdate
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is a remote call issued by a transition. Running it touches only the
// op and the remote, so it can run off the goroutine that owns the Machine.
type Op struct {
	Kind    OpKind
	Article article.Article // create draft or merged update record
	ID      int64           // remove target
}

// Result is a finished Op, fed back to Machine.Apply.
type Result struct {
	Op       Op
	Articles []article.Article // list
	Article  article.Article   // create, update
	Err      error
}

// Run performs the call against r.
func (o Op) Run(ctx context.Context, r client.Remote) Result {
	res := Result{Op: o}
	switch o.Kind {
	case OpList:
		res.Articles, res.Err = r.List(ctx)
	case OpCreate:
		res.Article, res.Err = r.Create(ctx, o.Article)
	case OpUpdate:
		res.Article, res.Err = r.Update(ctx, o.Article)
	case OpRemove:
		res.Err = r.Remove(ctx, o.ID)
	default:
		res.Err = fmt.Errorf("unknown op %v", o.Kind)
	}
	return res
}
