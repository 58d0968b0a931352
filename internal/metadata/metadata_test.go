package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "meta.json", `{"Title": "Q3 Report", "Revision": 4, "Keywords": null}`)

	kv, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if kv["Title"] != "Q3 Report" {
		t.Errorf("expected Title 'Q3 Report', got %v", kv["Title"])
	}
	if n, ok := kv["Revision"].(json.Number); !ok || n.String() != "4" {
		t.Errorf("expected Revision json.Number 4, got %#v", kv["Revision"])
	}
	if v, ok := kv["Keywords"]; !ok || v != nil {
		t.Errorf("expected Keywords present and null, got %#v", v)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "meta.yml", "Title: Budget\nCreated: 2024-05-01\nRevision: 2\n")

	kv, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if kv["Title"] != "Budget" {
		t.Errorf("expected Title 'Budget', got %v", kv["Title"])
	}
	if kv["Created"] != "2024-05-01" {
		t.Errorf("expected Created to stay a string, got %#v", kv["Created"])
	}
}

func TestRejectsNestedValues(t *testing.T) {
	_, err := ParseJSON([]byte(`{"Title": {"nested": true}, "Subject": ["a"]}`))
	if err == nil {
		t.Fatal("expected error for nested values")
	}
	if !strings.Contains(err.Error(), "/Title") || !strings.Contains(err.Error(), "/Subject") {
		t.Errorf("expected both offending keys in error, got %v", err)
	}
}

func TestRejectsNonObject(t *testing.T) {
	for _, in := range []string{`["Title"]`, `"Title"`, `42`} {
		if _, err := ParseJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestInvalidJSON(t *testing.T) {
	_, err := ParseJSON([]byte(`{"Title": `))
	if err == nil || !strings.Contains(err.Error(), "invalid metadata JSON") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/meta.json")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestUnknownKeysPassThrough(t *testing.T) {
	kv, err := ParseJSON([]byte(`{"Unknown": "Y"}`))
	if err != nil {
		t.Fatalf("unknown keys are filtered later, not rejected here: %v", err)
	}
	if kv["Unknown"] != "Y" {
		t.Errorf("expected Unknown to be kept, got %v", kv["Unknown"])
	}
}
