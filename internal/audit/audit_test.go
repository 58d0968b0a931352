package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLogWritesEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	l := NewLogger(path, true)
	entry := NewEntry("inject", []string{"in.docx", "-t", "docx", "-o", "out.docx"})
	entry.InputFile = "in.docx"
	entry.Finish(nil)

	if err := l.Log(context.Background(), entry); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Command != "inject" || entries[0].InputFile != "in.docx" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if _, err := uuid.Parse(entries[0].RunID); err != nil {
		t.Errorf("run id %q is not a UUID: %v", entries[0].RunID, err)
	}
}

func TestNewEntryUniqueRunIDs(t *testing.T) {
	a := NewEntry("inject", nil)
	b := NewEntry("inject", nil)
	if a.RunID == b.RunID {
		t.Error("expected distinct run ids")
	}
}

func TestFinishRecordsError(t *testing.T) {
	e := NewEntry("inject", nil)
	e.Finish(errors.New("unsupported document kind"))
	if e.ExitCode != 1 || e.Error != "unsupported document kind" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestLogDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	l := NewLogger(path, false)
	l.Log(context.Background(), Entry{Command: "inject"})

	if _, err := os.Stat(path); err == nil {
		t.Error("disabled logger should not create file")
	}

	var nilLogger *Logger
	if err := nilLogger.Log(context.Background(), Entry{}); err != nil {
		t.Errorf("nil logger should be a no-op, got %v", err)
	}
}

func TestLogAppendsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	l := NewLogger(path, true)
	for i := 0; i < 3; i++ {
		l.Log(context.Background(), Entry{Command: "inject", DurationMs: int64(i)})
	}

	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestLogCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "deep", "audit.log")

	l := NewLogger(path, true)
	l.Log(context.Background(), Entry{Command: "inject"})

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("expected log file to be created in nested directory")
	}
}

func TestRedactSensitiveFlags(t *testing.T) {
	result := Redact([]string{"--token", "abc123", "-o", "file.docx"})
	want := []string{"--token", "[REDACTED]", "-o", "file.docx"}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], result[i])
		}
	}
}

func TestRedactURLQuery(t *testing.T) {
	result := Redact([]string{
		"--url", "https://tracker.example.com/p.png?recipient=alice%40example.com",
		"--url=https://user:pw@tracker.example.com/x",
		"https://tracker.example.com/plain.png",
	})

	if result[1] != "https://tracker.example.com/p.png?[REDACTED]" {
		t.Errorf("expected query redacted, got %q", result[1])
	}
	if strings.Contains(result[2], "pw") || !strings.HasPrefix(result[2], "--url=https://") {
		t.Errorf("expected credentials redacted, got %q", result[2])
	}
	if result[3] != "https://tracker.example.com/plain.png" {
		t.Errorf("expected plain URL preserved, got %q", result[3])
	}
}

func TestRedactPatterns(t *testing.T) {
	result := Redact([]string{"Bearer token123", "normal-arg"})
	if result[0] != "[REDACTED]" {
		t.Errorf("expected Bearer redacted, got %q", result[0])
	}
	if result[1] != "normal-arg" {
		t.Errorf("expected normal-arg preserved, got %q", result[1])
	}
}

func TestRedactPreservesFilePaths(t *testing.T) {
	result := Redact([]string{"/home/user/docs/contract.docx", "-t", "docx"})
	if result[0] != "/home/user/docs/contract.docx" {
		t.Errorf("expected file path preserved, got %q", result[0])
	}
}

func TestReadEntriesMissingFile(t *testing.T) {
	entries, err := ReadEntries("/nonexistent/audit.log")
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if len(entries) != 0 {
		t.Error("expected empty entries for missing file")
	}
}

func TestFilterEntries(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{Timestamp: now.Add(-2 * time.Hour), Command: "inject", InputFile: "/docs/a.docx"},
		{Timestamp: now.Add(-1 * time.Hour), Command: "watch", InputFile: "/inbox/b.xlsx"},
		{Timestamp: now, Command: "inject", InputFile: "/docs/c.docx"},
	}

	if result := FilterEntries(entries, time.Time{}, time.Time{}, "inject", ""); len(result) != 2 {
		t.Errorf("expected 2 inject entries, got %d", len(result))
	}
	if result := FilterEntries(entries, time.Time{}, time.Time{}, "", "b.xlsx"); len(result) != 1 {
		t.Errorf("expected 1 b.xlsx entry, got %d", len(result))
	}
	if result := FilterEntries(entries, now.Add(-90*time.Minute), time.Time{}, "", ""); len(result) != 2 {
		t.Errorf("expected 2 recent entries, got %d", len(result))
	}
}

func TestLogSize(t *testing.T) {
	if size := LogSize("/nonexistent/audit.log"); size != 0 {
		t.Errorf("expected 0 for missing file, got %d", size)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	os.WriteFile(path, []byte("some data\n"), 0644)

	if err := Clear(path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Error("expected empty file after clear")
	}
}
