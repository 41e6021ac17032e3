package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInlineQueriesAreMarked(t *testing.T) {
	l := newLinter()
	if err := l.lintPath(filepath.Join("..", "..", "sqlinline")); err != nil {
		t.Fatalf("lintPath: %v", err)
	}
	if len(l.violations) != 0 {
		t.Fatalf("unexpected violations: %+v", l.violations)
	}
	if len(l.seen) == 0 {
		t.Fatal("expected at least one marked query")
	}
}

func TestLintReportsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	src := "package q\n\n" +
		"const A = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n" +
		"const B = `--sql 11111111-2222-4333-8444-555555555555\nselect 2;`\n" +
		"const C = `select 3;`\n" +
		"const D = `not a query`\n"
	if err := os.WriteFile(filepath.Join(dir, "q.go"), []byte(src), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var stderr bytes.Buffer
	cmd := newCommand()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{dir})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected lint failure")
	}
	out := stderr.String()
	if !strings.Contains(out, "already used by A (B)") {
		t.Fatalf("missing duplicate report:\n%s", out)
	}
	if !strings.Contains(out, "missing or invalid --sql <uuid> marker (C)") {
		t.Fatalf("missing marker report:\n%s", out)
	}
	if strings.Contains(out, "(D)") {
		t.Fatalf("non-SQL constant reported:\n%s", out)
	}
}
