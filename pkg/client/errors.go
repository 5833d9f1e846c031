package client

import (
	"fmt"
	"net/http"

	"github.com/irfansharif/simplepedia/pkg/article"
)

// TransportError is a network failure, an unreadable response, or a non-2xx
// status the server gave no semantic reason for.
type TransportError struct {
	Op     string
	Status int // zero when no response arrived
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a semantic rejection by the server: a missing title, a
// duplicate title, or an id that does not match the path.
type ValidationError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the matching article sentinel, so callers can tell causes
// apart with errors.Is.
func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case codeTitleRequired:
		return article.ErrTitleRequired
	case codeDuplicateTitle:
		return article.ErrDuplicateTitle
	case codeIDMismatch:
		return article.ErrIDMismatch
	}
	return nil
}

// NotFoundError reports that the target of an update or delete does not
// exist on the server.
type NotFoundError struct {
	Op      string
	ID      int64
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: article %d: %s", e.Op, e.ID, e.Message)
}

func (e *NotFoundError) Unwrap() error { return article.ErrNotFound }

// Codes carried in the server's error bodies.
const (
	codeTitleRequired  = "title_required"
	codeDuplicateTitle = "duplicate_title"
	codeIDMismatch     = "id_mismatch"
	codeNotFound       = "not_found"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify turns a non-2xx response into one of the error kinds. Only
// writes can be rejected semantically, and only update and remove have a
// target that can be missing; anything else is a transport failure. A known
// code in the body wins over the status.
func classify(op string, id int64, status int, body errorBody, raw string) error {
	msg := body.Error
	if msg == "" {
		msg = raw
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	transport := &TransportError{Op: op, Status: status, Err: fmt.Errorf("%s", msg)}
	if op == "list" {
		return transport
	}
	targeted := op == "update" || op == "remove"

	switch body.Code {
	case codeTitleRequired, codeDuplicateTitle, codeIDMismatch:
		return &ValidationError{Op: op, Status: status, Code: body.Code, Message: msg}
	case codeNotFound:
		if targeted {
			return &NotFoundError{Op: op, ID: id, Message: msg}
		}
		return transport
	}

	switch status {
	case http.StatusNotFound:
		if targeted {
			return &NotFoundError{Op: op, ID: id, Message: msg}
		}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{Op: op, Status: status, Code: body.Code, Message: msg}
	}
	return transport
}
