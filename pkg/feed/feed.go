// Package feed loads a Gmail filter export into a navigable XML tree.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	defaultHTTPTimeout = 20 * time.Second

	// Stdin is the location that selects standard input.
	Stdin = "-"
)

// Well-formedness errors wrapped in ParseError.
var (
	ErrNoRoot          = errors.New("document has no root element")
	ErrMultipleRoots   = errors.New("document has more than one root element")
	ErrTextOutsideRoot = errors.New("text outside the root element")
	ErrDuplicateAttr   = errors.New("duplicate attribute")
)

// ParseError reports an input that could not be read or is not well-formed XML.
type ParseError struct {
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Location, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the document at location, which is a file path or an http(s) URL.
func Load(ctx context.Context, location string) (*etree.Document, error) {
	if isURL(location) {
		return download(ctx, location)
	}

	// #nosec G304 -- input path supplied by the user.
	file, err := os.Open(location)
	if err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Default().Warn("failed to close input file", "input", location, "error", err)
		}
	}()

	return Read(file, location)
}

// Read parses a document from r. name is only used in errors.
func Read(r io.Reader, name string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &ParseError{Location: name, Err: err}
	}
	if doc.Root() == nil {
		return nil, &ParseError{Location: name, Err: ErrNoRoot}
	}
	if err := checkWellFormed(doc); err != nil {
		return nil, &ParseError{Location: name, Err: err}
	}
	return doc, nil
}

// checkWellFormed rejects what the tree reader lets through: more than one
// root element, text outside the root and repeated attributes.
func checkWellFormed(doc *etree.Document) error {
	if n := len(doc.ChildElements()); n != 1 {
		return fmt.Errorf("%w: found %d", ErrMultipleRoots, n)
	}
	for _, tok := range doc.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return ErrTextOutsideRoot
		}
	}
	return checkAttributes(doc.Root())
}

func checkAttributes(e *etree.Element) error {
	seen := make(map[string]bool, len(e.Attr))
	for _, a := range e.Attr {
		key := a.FullKey()
		if seen[key] {
			return fmt.Errorf("%w: %s on <%s>", ErrDuplicateAttr, key, e.FullTag())
		}
		seen[key] = true
	}
	for _, c := range e.ChildElements() {
		if err := checkAttributes(c); err != nil {
			return err
		}
	}
	return nil
}

func download(ctx context.Context, location string) (*etree.Document, error) {
	client := &http.Client{Timeout: defaultHTTPTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ParseError{Location: location, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Default().Warn("failed to close feed response body", "input", location, "error", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ParseError{Location: location, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return Read(resp.Body, location)
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
