package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leftp/doctrack/internal/ooxml/ooxmltest"
	"github.com/leftp/doctrack/internal/output"
)

const pixel = "https://tracker.example.com/p.png?id=42"

// execute runs the CLI in-process and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	color.NoColor = true

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := run(root)
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) output.JSONResult {
	t.Helper()
	var res output.JSONResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestInjectThenInspect(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "report.docx", ooxmltest.Document(t, ooxmltest.WithTitle("Draft")))
	out := filepath.Join(dir, "report.tracked.docx")

	stdout, _, err := execute(t, "inject", in, "-t", "docx", "-o", out, "--url", pixel)
	require.NoError(t, err)
	assert.Contains(t, stdout, "added rId")
	assert.FileExists(t, out)

	stdout, _, err = execute(t, "inspect", out, "-t", "docx")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], ", rId")
	assert.True(t, strings.HasSuffix(lines[0], ", "+pixel), lines[0])
	assert.Contains(t, stdout, "Title: Draft")

	// The input is never modified.
	stdout, _, err = execute(t, "inspect", in, "-t", "docx")
	require.NoError(t, err)
	assert.NotContains(t, stdout, pixel)
}

func TestInjectMetadataAndTemplateJSON(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "memo.docx", ooxmltest.Document(t, ooxmltest.WithTemplate("file:///old/normal.dotm")))
	meta := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{"Title": "Memo", "Unknown": "x"}`), 0644))
	out := filepath.Join(dir, "memo.out.docx")

	stdout, _, err := execute(t, "--json", "inject", in, "-t", "docx", "-o", out,
		"--meta", meta, "--url", "https://templates.example.com/normal.dotm", "--template", "--verify")
	require.NoError(t, err)

	res := decode(t, stdout)
	assert.True(t, res.OK)
	assert.Equal(t, "inject", res.Command)
	data := res.Data.(map[string]any)
	rel := data["report"].(map[string]any)["relationship"].(map[string]any)
	assert.Equal(t, true, rel["rewritten"])
	assert.Equal(t, "rId1", rel["id"])
	assert.Equal(t, "document", data["verification"].(map[string]any)["kind"])
}

func TestInspectJSON(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "links.docx", ooxmltest.Document(t, ooxmltest.WithHyperlink("https://example.com/")))

	stdout, _, err := execute(t, "--json", "inspect", in, "-t", "docx")
	require.NoError(t, err)

	res := decode(t, stdout)
	rels := res.Data.(map[string]any)["relationships"].([]any)
	require.Len(t, rels, 1)
	assert.Equal(t, "https://example.com/", rels[0].(map[string]any)["target"])
}

func TestTypeMismatchFails(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "book.xlsx", ooxmltest.Workbook(t))
	out := filepath.Join(dir, "book.out.docx")

	stdout, stderr, err := execute(t, "--json", "inject", in, "-t", "docx", "-o", out, "--url", pixel)
	require.Error(t, err)
	assert.NoFileExists(t, out)
	assert.True(t, strings.HasPrefix(stderr, "Error: "), stderr)
	assert.Equal(t, 1, strings.Count(stderr, "\n"))

	res := decode(t, stdout)
	assert.False(t, res.OK)
	assert.Equal(t, "unsupported_kind", res.Kind)
	assert.Equal(t, output.ExitError, res.Code)
}

func TestInjectConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "report.docx", ooxmltest.Document(t))

	cases := map[string][]string{
		"missing output":       {"inject", in, "-t", "docx"},
		"missing type":         {"inject", in, "-o", filepath.Join(dir, "x.docx")},
		"template without url": {"inject", in, "-t", "docx", "-o", filepath.Join(dir, "x.docx"), "--template"},
		"output is the input":  {"inject", in, "-t", "docx", "-o", filepath.Join(dir, ".", "report.docx"), "--url", pixel},
	}
	for name, args := range cases {
		stdout, _, err := execute(t, append([]string{"--json"}, args...)...)
		require.Error(t, err, name)
		assert.Equal(t, "configuration", decode(t, stdout).Kind, name)
	}
}

func TestInjectInvalidTarget(t *testing.T) {
	dir := t.TempDir()
	in := ooxmltest.WriteFile(t, dir, "report.docx", ooxmltest.Document(t))
	out := filepath.Join(dir, "x.docx")

	stdout, _, err := execute(t, "--json", "inject", in, "-t", "docx", "-o", out, "--url", "not a url")
	require.Error(t, err)
	assert.Equal(t, "invalid_target", decode(t, stdout).Kind)
	assert.NoFileExists(t, out)
}

func TestUnknownType(t *testing.T) {
	_, stderr, err := execute(t, "inspect", "whatever.pptx", "-t", "pptx")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown document type")
}

func TestTypesTable(t *testing.T) {
	stdout, _, err := execute(t, "types")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TYPE")
	assert.Contains(t, stdout, "docx")
	assert.Contains(t, stdout, ".xltm")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	ooxmltest.WriteFile(t, dir, "a.docx", ooxmltest.Document(t))
	ooxmltest.WriteFile(t, dir, "b.xlsx", ooxmltest.Workbook(t))
	ooxmltest.WriteFile(t, dir, "a.tracked.docx", ooxmltest.Document(t))
	outDir := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "--json", "batch", filepath.Join(dir, "*.docx"), filepath.Join(dir, "*.xlsx"),
		"--url", pixel, "--out-dir", outDir, "--concurrency", "2")
	require.NoError(t, err)

	items := decode(t, stdout).Data.([]any)
	require.Len(t, items, 2)
	assert.FileExists(t, filepath.Join(outDir, "a.tracked.docx"))
	assert.FileExists(t, filepath.Join(outDir, "b.tracked.xlsx"))
}

func TestBatchReportsFailures(t *testing.T) {
	dir := t.TempDir()
	ooxmltest.WriteFile(t, dir, "good.docx", ooxmltest.Document(t))
	ooxmltest.WriteFile(t, dir, "bad.docx", []byte("not a zip"))

	stdout, _, err := execute(t, "batch", filepath.Join(dir, "*.docx"), "--url", pixel)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, stdout, "1 succeeded, 1 failed")
	assert.FileExists(t, filepath.Join(dir, "good.tracked.docx"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.tracked.docx"))
}

func TestBatchRejectsCollidingOutputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0755))
	ooxmltest.WriteFile(t, filepath.Join(dir, "a"), "r.docx", ooxmltest.Document(t))
	ooxmltest.WriteFile(t, filepath.Join(dir, "b"), "r.docx", ooxmltest.Document(t))
	outDir := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "--json", "batch", filepath.Join(dir, "*", "r.docx"),
		"--url", pixel, "--out-dir", outDir, "--concurrency", "2")
	require.Error(t, err)
	res := decode(t, stdout)
	assert.Equal(t, "configuration", res.Kind)
	assert.Contains(t, res.Error, "both write")
	assert.NoFileExists(t, filepath.Join(outDir, "r.tracked.docx"))
}

func TestBatchRejectsOverwritingInputs(t *testing.T) {
	dir := t.TempDir()
	data := ooxmltest.Document(t)
	in := ooxmltest.WriteFile(t, dir, "memo.docx", data)

	stdout, _, err := execute(t, "--json", "batch", filepath.Join(dir, "*.docx"),
		"--url", pixel, "--out-dir", dir, "--suffix", "")
	require.Error(t, err)
	assert.Equal(t, "configuration", decode(t, stdout).Kind)

	after, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}

func TestConfigSetAndGet(t *testing.T) {
	home := t.TempDir()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", home)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "set", "type", "xlsx"})
	require.NoError(t, run(root))
	assert.FileExists(t, filepath.Join(home, ".doctrack", "config.yaml"))

	viper.Reset()
	var out bytes.Buffer
	root = NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "get", "type"})
	require.NoError(t, run(root))
	assert.Equal(t, "type: xlsx\n", out.String())
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "doctrack "))
}
