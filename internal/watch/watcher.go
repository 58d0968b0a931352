// Package watch monitors directories for new or modified packages and hands
// each settled file to a handler that writes a tracked copy.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	cfgpkg "github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/job"
	"github.com/leftp/doctrack/internal/logger"
	"github.com/leftp/doctrack/internal/ooxml"
)

// Rule selects files and says how to edit them.
type Rule struct {
	ID       string         `json:"id"`
	Pattern  string         `json:"pattern,omitempty"` // glob on the base name, e.g. "contract_*"
	Types    []string       `json:"types,omitempty"`   // type names; empty matches every supported type
	URL      string         `json:"url,omitempty"`
	Template bool           `json:"template,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Enabled  bool           `json:"enabled"`
}

// WatchConfig holds the complete watcher configuration.
type WatchConfig struct {
	Directories []string `json:"directories"`
	Rules       []Rule   `json:"rules"`
	Recursive   bool     `json:"recursive"`
	Debounce    int      `json:"debounceMs"` // milliseconds a file must stay quiet before processing
	OutDir      string   `json:"outDir,omitempty"`
	Suffix      string   `json:"suffix"`
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	RuleID    string    `json:"ruleId,omitempty"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// pendingFile is one armed debounce timer for a path.
type pendingFile struct {
	timer *time.Timer
}

// EventHandler is called once per settled file with the first matching rule.
type EventHandler func(ctx context.Context, path string, rule Rule) error

// Watcher monitors directories for file changes and triggers the handler.
type Watcher struct {
	Config  WatchConfig
	Handler EventHandler

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*pendingFile
	ctx      context.Context
}

// New creates a new Watcher with the given configuration.
func New(config WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = cfgpkg.DefaultDebounceMs
	}

	return &Watcher{
		Config:   config,
		watcher:  fsw,
		debounce: make(map[string]*pendingFile),
		ctx:      context.Background(),
	}, nil
}

// Start begins watching the configured directories. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	logger.Info("watching %d directory(ies) with %d rule(s)", len(w.Config.Directories), len(w.Config.Rules))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.debounce {
		p.timer.Stop()
		delete(w.debounce, path)
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !w.candidate(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.debounce[path]; ok {
		prev.timer.Stop()
	}
	p := &pendingFile{}
	p.timer = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.fire(path, p, event.Op.String())
	})
	w.debounce[path] = p
}

// fire runs when p's timer expires. A timer that was replaced by a newer event
// after it had already fired does nothing; the newer timer owns the file.
func (w *Watcher) fire(path string, p *pendingFile, operation string) {
	w.mu.Lock()
	if w.debounce[path] != p {
		w.mu.Unlock()
		return
	}
	delete(w.debounce, path)
	ctx := w.ctx
	w.mu.Unlock()
	w.processFile(ctx, path, operation)
}

// candidate reports whether path is a supported package that is neither an
// Office lock/temp file nor one of our own outputs.
func (w *Watcher) candidate(path string) bool {
	if _, err := ooxml.LookupType(filepath.Ext(path)); err != nil {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	return !job.IsOutput(base, w.Config.Suffix)
}

func (w *Watcher) processFile(ctx context.Context, path string, operation string) {
	if ctx.Err() != nil {
		return
	}

	evt := Event{
		Time:      time.Now(),
		Path:      path,
		Operation: operation,
		Status:    "skipped",
	}

	for _, rule := range w.Config.Rules {
		if !rule.Enabled || !w.matchesRule(path, rule) {
			continue
		}
		evt.RuleID = rule.ID
		evt.Status = "processed"
		if w.Handler != nil {
			if err := w.Handler(ctx, path, rule); err != nil {
				evt.Status = "error"
				evt.Error = err.Error()
				logger.Warn("could not process %s: %v", path, err)
			} else {
				logger.Info("processed %s (rule: %s)", path, rule.ID)
			}
		}
		break
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) matchesRule(path string, rule Rule) bool {
	if len(rule.Types) > 0 {
		dt, err := ooxml.LookupType(filepath.Ext(path))
		if err != nil {
			return false
		}
		matched := false
		for _, name := range rule.Types {
			if t, err := ooxml.LookupType(name); err == nil && t.Name == dt.Name {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if rule.Pattern != "" {
		matched, _ := filepath.Match(rule.Pattern, filepath.Base(path))
		if !matched {
			return false
		}
	}

	return true
}

// GetEvents returns all recorded events.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

const pidFile = "watch.pid"

// WritePIDFile writes the current process ID to the PID file in the given directory.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, pidFile)
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveConfig writes the watcher config to a JSON file.
func SaveConfig(dir string, config WatchConfig) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "watch-config.json"), data, 0644)
}

// LoadConfig reads the watcher config from a JSON file.
func LoadConfig(dir string) (*WatchConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, "watch-config.json"))
	if err != nil {
		return nil, err
	}
	var config WatchConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &config, nil
}

// DefaultStateDir returns the directory holding the PID and last-run config.
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".doctrack")
}
