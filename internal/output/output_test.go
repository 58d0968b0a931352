package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatFor(t *testing.T) {
	if FormatFor(true) != FormatJSON || FormatFor(false) != FormatText {
		t.Error("FormatFor should map the --json flag to FormatJSON")
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, "inspect", map[string]int{"relationships": 2}); err != nil {
		t.Fatal(err)
	}

	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if !res.OK || res.Command != "inspect" || res.Version == "" {
		t.Errorf("unexpected envelope %+v", res)
	}
	if strings.Contains(buf.String(), `"error"`) {
		t.Error("success envelope should omit error")
	}
}

func TestPrintJSONError(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONError(&buf, "inject", errors.New("type mismatch"), "unsupported_kind"); err != nil {
		t.Fatal(err)
	}

	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Error != "type mismatch" || res.Kind != "unsupported_kind" || res.Code != ExitError {
		t.Errorf("unexpected envelope %+v", res)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)
	err := w.Table([]string{"type", "extension"}, [][]string{{"docx", ".docx"}, {"xltm", ".xltm"}})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "TYPE") {
		t.Errorf("header should be upper-cased, got %q", lines[0])
	}
	if strings.Index(lines[1], ".docx") != strings.Index(lines[0], "EXTENSION") {
		t.Error("columns should be aligned")
	}
}

func TestColorfHonorsNoColor(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)
	if err := w.Colorf(color.New(color.FgRed), "%s", "plain"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain" {
		t.Errorf("expected no escape codes, got %q", buf.String())
	}
}
