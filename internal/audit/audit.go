// Package audit records doctrack runs as JSON lines for later review.
package audit

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	UserID     string    `json:"user_id,omitempty"`
	Machine    string    `json:"machine"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
	InputFile  string    `json:"input_file,omitempty"`
	OutputFile string    `json:"output_file,omitempty"`
	RelID      string    `json:"rel_id,omitempty"`
	RelTarget  string    `json:"rel_target,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewEntry starts an entry for command with a fresh run id. Args are redacted.
func NewEntry(command string, args []string) Entry {
	e := Entry{
		Timestamp: time.Now().UTC(),
		RunID:     uuid.NewString(),
		Command:   command,
		Args:      Redact(args),
	}
	e.Machine, _ = os.Hostname()
	if u, err := user.Current(); err == nil {
		e.UserID = u.Username
	}
	return e
}

// Finish records the outcome of the run the entry was started for.
func (e *Entry) Finish(err error) {
	e.DurationMs = time.Since(e.Timestamp).Milliseconds()
	if err != nil {
		e.ExitCode = 1
		e.Error = err.Error()
	}
}

// Logger appends audit entries to a file.
type Logger struct {
	FilePath string
	Enabled  bool
}

// NewLogger creates a Logger. A disabled logger accepts entries and drops them.
func NewLogger(filePath string, enabled bool) *Logger {
	return &Logger{
		FilePath: filePath,
		Enabled:  enabled,
	}
}

// Log writes a single audit entry. Best-effort: failures never reach the caller.
func (l *Logger) Log(_ context.Context, entry Entry) error {
	if l == nil || !l.Enabled || l.FilePath == "" {
		return nil
	}

	dir := filepath.Dir(l.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil // never block a run on the audit trail
	}

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
	return nil
}

// ReadEntries reads all audit entries from the log file.
func ReadEntries(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FilterEntries returns entries matching the given criteria.
func FilterEntries(entries []Entry, since, until time.Time, command, input string) []Entry {
	var result []Entry
	for _, e := range entries {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && e.Timestamp.After(until) {
			continue
		}
		if command != "" && !strings.Contains(e.Command, command) {
			continue
		}
		if input != "" && !strings.Contains(e.InputFile, input) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// LogSize returns the size of the audit log in bytes, or 0 if not found.
func LogSize(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear truncates the audit log file.
func Clear(filePath string) error {
	return os.Truncate(filePath, 0)
}

const redacted = "[REDACTED]"

// sensitiveFlags are flags whose following value should be redacted.
var sensitiveFlags = map[string]bool{
	"--token": true, "--password": true, "--secret": true,
}

// sensitivePatterns are value prefixes that indicate secrets.
var sensitivePatterns = []string{"Bearer ", "Basic "}

// Redact sanitizes args to remove secrets. URLs keep their scheme, host and
// path; credentials and query strings are replaced.
func Redact(args []string) []string {
	result := make([]string, len(args))
	redactNext := false
	for i, arg := range args {
		if redactNext {
			result[i] = redacted
			redactNext = false
			continue
		}
		if sensitiveFlags[arg] {
			result[i] = arg
			redactNext = true
			continue
		}
		result[i] = redactValue(arg)
	}
	return result
}

func redactValue(arg string) string {
	for _, pat := range sensitivePatterns {
		if strings.HasPrefix(arg, pat) {
			return redacted
		}
	}
	if flag, val, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(flag, "--") {
		if sensitiveFlags[flag] {
			return flag + "=" + redacted
		}
		return flag + "=" + redactValue(val)
	}
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	changed := false
	if u.User != nil {
		u.User = url.User(redacted)
		changed = true
	}
	if u.RawQuery != "" {
		u.RawQuery = redacted
		changed = true
	}
	if !changed {
		return arg
	}
	return u.String()
}
