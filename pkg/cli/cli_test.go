package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gmailfilter2csv/pkg/config"
	"gmailfilter2csv/pkg/feed"
	"gmailfilter2csv/pkg/version"
)

const feedXML = `<?xml version='1.0' encoding='UTF-8'?>
<feed xmlns='http://www.w3.org/2005/Atom' xmlns:apps='http://schemas.google.com/apps/2006'>
	<entry>
		<id>123</id>
		<updated>2024-01-01T00:00:00Z</updated>
		<apps:property name='from' value='alice@example.com'/>
		<apps:property name='subject' value='Invoice;2024'/>
		<apps:property name='label' value='Finance'/>
		<apps:property name='shouldArchive' value='true'/>
	</entry>
</feed>
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	logFile := filepath.Join(t.TempDir(), "gmailfilter2csv.log")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-file", logFile}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFeed(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "mailFilters.xml")
	if err := os.WriteFile(input, []byte(feedXML), 0o600); err != nil {
		t.Fatal(err)
	}
	return input, filepath.Join(dir, "filters.csv")
}

func TestConvertCommand(t *testing.T) {
	for _, prefix := range [][]string{nil, {"convert"}} {
		t.Run(strings.Join(append([]string{"root"}, prefix...), " "), func(t *testing.T) {
			input, output := writeFeed(t)

			stdout, _, err := run(t, "", append(prefix, input, output)...)
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			if !strings.Contains(stdout, "Conversion completed:") || !strings.Contains(stdout, output) {
				t.Errorf("unexpected confirmation %q", stdout)
			}

			content, err := os.ReadFile(output)
			if err != nil {
				t.Fatal(err)
			}
			want := "ID;Updated;From;Subject;Label;Should Never Spam;Should Archive\n" +
				"123;2024-01-01T00:00:00Z;alice@example.com;Invoice;2024;Finance;false;true\n"
			if string(content) != want {
				t.Errorf("output = %q, want %q", content, want)
			}
		})
	}
}

func TestConvertCommandFlags(t *testing.T) {
	stdout, stderr, err := run(t, feedXML, "--quote", "--line-ending", "crlf", "--null-value", "null", "-", "-")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	want := "ID;Updated;From;Subject;Label;Should Never Spam;Should Archive\r\n" +
		"123;2024-01-01T00:00:00Z;alice@example.com;\"Invoice;2024\";Finance;false;true\r\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if !strings.Contains(stderr, "Conversion completed:") {
		t.Errorf("confirmation should go to stderr, got %q", stderr)
	}
}

func TestConvertCommandConfigFile(t *testing.T) {
	input, output := writeFeed(t)
	cfgPath := filepath.Join(t.TempDir(), "gmailfilter2csv.toml")
	cfg := "[convert]\ninput = \"" + input + "\"\noutput = \"" + output + "\"\nnull_value = \"-\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, "", "--config", cfgPath); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output from config file paths: %v", err)
	}
}

func TestConvertCommandMalformed(t *testing.T) {
	_, output := writeFeed(t)
	_, _, err := run(t, "<feed><entry>", "-", output)

	var parseErr *feed.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *feed.ParseError, got %T: %v", err, err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("output file should not be created for malformed input")
	}
}

func TestInvalidFlags(t *testing.T) {
	input, output := writeFeed(t)
	tests := [][]string{
		{"--line-ending", "cr", input, output},
		{"--log-level", "trace", input, output},
		{input, output, "extra"},
	}
	for _, args := range tests {
		if _, _, err := run(t, "", args...); err == nil {
			t.Errorf("Execute(%q) should return error", args)
		}
	}
}

func TestFetchMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gmailfilter2csv.toml")
	cfg := "[gmail]\ntoken_store = \"file\"\ntoken_file = \"" + filepath.Join(dir, "token.json") +
		"\"\ncredentials_file = \"" + filepath.Join(dir, "credentials.json") + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := run(t, "", "--config", cfgPath, "fetch", filepath.Join(dir, "out.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if stdout != "gmailfilter2csv "+version.Version+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
}
