// Package seed reads article fixtures and loads them into a collection,
// either directly into a store or through the remote API.
package seed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/client"
)

// Read decodes articles from r: either a JSON array or newline-delimited
// JSON objects. Blank lines in NDJSON input are ignored.
func Read(r io.Reader) ([]article.Article, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}

	if first == '[' {
		var articles []article.Article
		if err := json.NewDecoder(br).Decode(&articles); err != nil {
			return nil, fmt.Errorf("decoding articles: %w", err)
		}
		return articles, nil
	}

	scanner := bufio.NewScanner(br)
	// Extracts can be long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var articles []article.Article
	for line := 1; scanner.Scan(); line++ {
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var a article.Article
		if err := json.Unmarshal(b, &a); err != nil {
			return nil, fmt.Errorf("line %d: decoding article: %w", line, err)
		}
		articles = append(articles, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	return articles, nil
}

// ReadFile reads articles from the file at path.
func ReadFile(path string) ([]article.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !strings.ContainsRune(" \t\r\n", rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

// Summary reports the outcome of an Import.
type Summary struct {
	Saved   int
	Skipped int // titles the collection already had
	Failed  []error
}

// String returns a human-readable summary of the import.
func (s Summary) String() string {
	parts := []string{fmt.Sprintf("Import complete: %d saved", s.Saved)}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if len(s.Failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(s.Failed)))
	}
	return strings.Join(parts, ", ")
}

// Import creates each article through r, one at a time. Ids in the input
// are ignored; the server assigns them. Articles whose title is already
// taken are skipped. A cancelled context stops the import and is recorded
// as a failure.
func Import(ctx context.Context, r client.Remote, articles []article.Article, log zerolog.Logger) Summary {
	var s Summary
	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			s.Failed = append(s.Failed, fmt.Errorf("import stopped after %d of %d: %w", i, len(articles), err))
			break
		}
		if err := a.Validate(); err != nil {
			s.Failed = append(s.Failed, fmt.Errorf("article %d: %w", i+1, err))
			continue
		}

		created, err := r.Create(ctx, a)
		switch {
		case errors.Is(err, article.ErrDuplicateTitle):
			s.Skipped++
			log.Debug().Str("title", a.Title).Msg("Skipping existing title")
		case err != nil:
			s.Failed = append(s.Failed, fmt.Errorf("%q: %w", a.Title, err))
			log.Warn().Err(err).Str("title", a.Title).Msg("Import failed")
		default:
			s.Saved++
			log.Debug().Int64("id", created.ID).Str("title", created.Title).Msg("Imported article")
		}
	}

	log.Info().
		Int("total", len(articles)).
		Int("saved", s.Saved).
		Int("skipped", s.Skipped).
		Int("failed", len(s.Failed)).
		Msg("Import completed")
	return s
}
