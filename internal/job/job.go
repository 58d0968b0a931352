// Package job runs one tracked-copy job from input file to verified output:
// load, edit, save, optionally verify, and record the run in the audit log.
// The inject, batch and watch commands all go through Runner.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leftp/doctrack/internal/audit"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/logger"
	"github.com/leftp/doctrack/internal/ooxml"
	"github.com/leftp/doctrack/internal/track"
	"github.com/leftp/doctrack/internal/verify"
)

// Job describes one input file and what to do with it.
type Job struct {
	Input  string
	Output string
	Type   ooxml.DocType
	Edits  track.Edits
	Verify bool
}

// Result is what a finished job reports.
type Result struct {
	Input        string         `json:"input"`
	Output       string         `json:"output"`
	Type         string         `json:"type"`
	Report       *track.Report  `json:"report"`
	Verification *verify.Result `json:"verification,omitempty"`
	RunID        string         `json:"run_id,omitempty"`
}

// Runner carries the settings shared by every job of one command.
type Runner struct {
	// Command is recorded in audit entries ("inject", "batch", "watch").
	Command string
	// Args are the command-line arguments recorded (redacted) in audit entries.
	Args   []string
	Policy *config.Policy
	Audit  *audit.Logger
}

// Run executes j. The output file is either complete and verified or absent.
func (r *Runner) Run(ctx context.Context, j Job) (*Result, error) {
	entry := audit.NewEntry(r.Command, r.Args)
	entry.InputFile = j.Input
	entry.OutputFile = j.Output

	res, err := r.run(ctx, j)
	if res != nil && res.Report != nil && res.Report.Relationship != nil {
		entry.RelID = res.Report.Relationship.ID
		entry.RelTarget = res.Report.Relationship.Target
	}
	entry.Finish(err)
	_ = r.Audit.Log(ctx, entry)

	if res != nil {
		res.RunID = entry.RunID
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, j Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j.Output == "" {
		return nil, fmt.Errorf("%w: output file is required — use --output", track.ErrConfiguration)
	}
	if PathKey(j.Input) == PathKey(j.Output) {
		return nil, fmt.Errorf("%w: output %s is the input file — the input is never modified", track.ErrConfiguration, j.Output)
	}
	if j.Edits.URL != "" {
		normalized, err := track.NormalizeTarget(j.Edits.URL)
		if err != nil {
			return nil, err
		}
		if !r.Policy.AllowsTarget(normalized) {
			return nil, fmt.Errorf("%w: %s is not an allowed host under the org policy at %s",
				track.ErrConfiguration, normalized, config.PolicyPath())
		}
	}

	pkg, target, err := track.Load(j.Input, j.Type)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	actual := target.DocType()
	if actual.Name != j.Type.Name {
		logger.Warn("%s was declared as %s but is a %s; continuing", j.Input, j.Type.Name, actual.Name)
	}
	if !strings.EqualFold(filepath.Ext(j.Output), actual.Extension) {
		logger.Debug("output %s does not use the canonical %s extension", j.Output, actual.Extension)
	}

	report, err := track.ApplyEdits(j.Edits, target)
	if err != nil {
		return nil, err
	}
	logReport(report)

	if err := pkg.SaveFile(j.Output); err != nil {
		return nil, fmt.Errorf("could not write %s: %w", j.Output, err)
	}
	logger.Debug("wrote %s", j.Output)

	res := &Result{
		Input:  j.Input,
		Output: j.Output,
		Type:   actual.Name,
		Report: report,
	}

	if j.Verify || (r.Policy != nil && r.Policy.Locked.Verify) {
		v, err := verify.File(j.Output)
		if err != nil {
			if rmErr := os.Remove(j.Output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Warn("could not remove unverified output %s: %v", j.Output, rmErr)
			}
			return nil, fmt.Errorf("%w: %v", track.ErrMalformedPackage, err)
		}
		res.Verification = v
		logger.Debug("verified %s as %s", j.Output, v.Kind)
	}

	return res, nil
}

func logReport(report *track.Report) {
	if m := report.Metadata; m != nil {
		for _, name := range m.Applied {
			logger.Debug("set %s", name)
		}
		for _, key := range m.Skipped {
			logger.Debug("skipped unknown metadata key %q", key)
		}
		for _, w := range m.Warnings {
			logger.Warn("%s", w)
		}
	}
	if rel := report.Relationship; rel != nil {
		verb := "added"
		if rel.Rewritten {
			verb = "rewrote"
		}
		logger.Debug("%s %s on %s -> %s", verb, rel.ID, rel.Owner, rel.Target)
	}
}

// OutputPath derives the output path for input: <dir>/<name><suffix><ext>,
// where dir is outDir when set and the input's directory otherwise.
func OutputPath(input, outDir, suffix string) string {
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+suffix+ext)
}

// PathKey returns the cleaned absolute form of path, used to tell whether two
// paths name the same file.
func PathKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// IsOutput reports whether name looks like a file produced with suffix.
func IsOutput(name, suffix string) bool {
	if suffix == "" {
		return false
	}
	base := filepath.Base(name)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), suffix)
}
