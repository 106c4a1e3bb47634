// Package csvout writes records as semicolon separated lines.
package csvout

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Delimiter separates fields on a line.
const Delimiter = ';'

// LineEnding terminates every written line.
type LineEnding string

const (
	LF   LineEnding = "lf"
	CRLF LineEnding = "crlf"
)

// ParseLineEnding accepts "lf" or "crlf" in any case.
func ParseLineEnding(raw string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(strings.TrimSpace(raw))) {
	case LF:
		return LF, nil
	case CRLF:
		return CRLF, nil
	}
	return "", fmt.Errorf("invalid line ending: %s (must be one of: lf, crlf)", raw)
}

func (l LineEnding) String() string {
	if l == CRLF {
		return "\r\n"
	}
	return "\n"
}

// Options controls how records are serialized.
type Options struct {
	// Quote wraps fields containing the delimiter, quotes or line breaks
	// in double quotes. Without it fields are joined verbatim.
	Quote      bool
	LineEnding LineEnding
}

// WriteError reports a failure to create or write the output.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteFile creates or truncates path and writes records to it.
// A partially written file is left in place on failure.
func WriteFile(path string, records [][]string, opts Options) (err error) {
	// #nosec G304 -- output path supplied by the user.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = &WriteError{Path: path, Err: closeErr}
		}
	}()

	if err := Write(file, records, opts); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Write serializes records to w, one line per record.
func Write(w io.Writer, records [][]string, opts Options) error {
	if opts.Quote {
		return writeQuoted(w, records, opts.LineEnding)
	}

	buf := bufio.NewWriter(w)
	eol := opts.LineEnding.String()
	for _, record := range records {
		if _, err := buf.WriteString(strings.Join(record, string(Delimiter))); err != nil {
			return err
		}
		if _, err := buf.WriteString(eol); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func writeQuoted(w io.Writer, records [][]string, eol LineEnding) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	cw.UseCRLF = eol == CRLF
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
