package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sreynich-nang/frontend-PDF-extraction/internal/tabular"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte("name,note\nAda,\"first, programmer\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	var got tabular.Table
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output %q is not JSON: %v", out, err)
	}
	want := tabular.Table{
		Headers: []string{"name", "note"},
		Rows:    [][]string{{"Ada", "first, programmer"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parse = %+v, want %+v", got, want)
	}
}

func TestParseCommand_MissingFile(t *testing.T) {
	if _, err := run(t, "parse", filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("parse of a missing file should fail")
	}
}

func TestUploadCommand_Mock(t *testing.T) {
	t.Setenv("EXTRACTION_MOCK", "true")
	dir := t.TempDir()
	src := filepath.Join(dir, "quarterly.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.7 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "upload", src, "--mock", "--xlsx", "--out", outDir)
	if err != nil {
		t.Fatalf("upload error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "quarterly.pdf (pdf): completed") || !strings.Contains(out, "Tables: 2") {
		t.Errorf("summary = %q", out)
	}

	for _, name := range []string{
		"quarterly.md",
		"quarterly_table_1.csv",
		"quarterly_table_2.csv",
		"quarterly_table_1.xlsx",
		"quarterly_table_2.xlsx",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	csv, err := os.ReadFile(filepath.Join(outDir, "quarterly_table_1.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(csv), "Quarter,Revenue,Cost\nQ1,120,80") {
		t.Errorf("csv = %q", csv)
	}
}

func TestUploadCommand_UnsupportedFile(t *testing.T) {
	t.Setenv("EXTRACTION_MOCK", "true")
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("just words"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "upload", src, "--mock", "--out", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "FILE002") {
		t.Errorf("error = %v, want FILE002", err)
	}
}
