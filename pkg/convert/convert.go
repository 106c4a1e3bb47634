// Package convert turns a Gmail filter export into a semicolon separated file.
package convert

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"gmailfilter2csv/pkg/csvout"
	"gmailfilter2csv/pkg/feed"
	"gmailfilter2csv/pkg/filters"
)

// Stdout is the output path that selects Options.Stdout.
const Stdout = "-"

// Options controls a conversion. Zero values give the legacy output format.
type Options struct {
	Quote      bool
	NullValue  string
	LineEnding csvout.LineEnding

	// Stdin and Stdout back the "-" input and output paths.
	Stdin  io.Reader
	Stdout io.Writer

	Logger *slog.Logger
}

// Result describes a finished conversion.
type Result struct {
	Input   string
	Output  string
	Entries int
}

// Convert reads the filter export at input and writes one header line plus
// one line per entry to output. Nothing is written if input cannot be parsed.
func Convert(ctx context.Context, input, output string, opts Options) (Result, error) {
	log := logger(opts).With("run", uuid.NewString())

	doc, err := load(ctx, input, opts)
	if err != nil {
		return Result{}, err
	}

	rows, stats := filters.Extract(doc)
	for _, name := range sortedKeys(stats.Unmapped) {
		log.Debug("property has no column", "property", name, "entries", stats.Unmapped[name])
	}

	if err := write(rows, output, opts); err != nil {
		return Result{}, err
	}

	log.Info("converted filters", "input", input, "output", output, "entries", stats.Entries)
	return Result{Input: input, Output: output, Entries: stats.Entries}, nil
}

// Export writes rows obtained from any source to output.
func Export(rows []filters.Row, source, output string, opts Options) (Result, error) {
	log := logger(opts).With("run", uuid.NewString())

	if err := write(rows, output, opts); err != nil {
		return Result{}, err
	}

	log.Info("exported filters", "source", source, "output", output, "entries", len(rows))
	return Result{Input: source, Output: output, Entries: len(rows)}, nil
}

func load(ctx context.Context, input string, opts Options) (*etree.Document, error) {
	if input == feed.Stdin {
		return feed.Read(stdin(opts), "stdin")
	}
	return feed.Load(ctx, input)
}

func write(rows []filters.Row, output string, opts Options) error {
	records := filters.Records(rows, opts.NullValue)
	wopts := csvout.Options{Quote: opts.Quote, LineEnding: opts.LineEnding}

	if output == Stdout {
		if err := csvout.Write(stdout(opts), records, wopts); err != nil {
			return &csvout.WriteError{Path: "stdout", Err: err}
		}
		return nil
	}
	return csvout.WriteFile(output, records, wopts)
}

func logger(opts Options) *slog.Logger {
	if opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}

func stdin(opts Options) io.Reader {
	if opts.Stdin == nil {
		return os.Stdin
	}
	return opts.Stdin
}

func stdout(opts Options) io.Writer {
	if opts.Stdout == nil {
		return os.Stdout
	}
	return opts.Stdout
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
