package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func init() {
	logger = zap.NewNop()
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestParseCommandPrintsSummary(t *testing.T) {
	path := writeTempFile(t, "script.txt", "INT. ROOM - DAY\nJOHN\nHello.\n\nMARY\nHi.")

	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"parse", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("parse command failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "JOHN") || !strings.Contains(out, "MARY") {
		t.Fatalf("expected summary to mention both characters, got: %s", out)
	}
}

func TestColumnsCommandPrintsMapping(t *testing.T) {
	path := writeTempFile(t, "sheet.csv", "TC,Role,EN,HE\n00:01:02,JOHN,hi,bye\n")

	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"columns", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("columns command failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `role_name`) {
		t.Fatalf("expected mapping output to mention role_name, got: %s", out)
	}
}

func TestApplyCommandRequiresFlags(t *testing.T) {
	path := writeTempFile(t, "script.txt", "JOHN\nHi.")

	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"apply", path})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected apply without --project/--db to fail")
	}
}
