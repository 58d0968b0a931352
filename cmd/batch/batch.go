// Package batch provides the batch command: write tracked copies of many files.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leftp/doctrack/internal/cli"
	"github.com/leftp/doctrack/internal/config"
	"github.com/leftp/doctrack/internal/job"
	"github.com/leftp/doctrack/internal/ooxml"
	"github.com/leftp/doctrack/internal/output"
	"github.com/leftp/doctrack/internal/progress"
	"github.com/leftp/doctrack/internal/track"
)

type batchResultItem struct {
	File   string      `json:"file"`
	Status string      `json:"status"`
	Result *job.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		typeName    string
		metaFile    string
		url         string
		template    bool
		verify      bool
		outDir      string
		suffix      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <glob-pattern> [glob-pattern...]",
		Short: "Write tracked copies of every matching file",
		Long: `Applies the same edits as 'doctrack inject' to every file matching the
glob patterns. Each output is written next to its input (or into --out-dir)
as <name><suffix><ext>. Without --type, the type is taken from each file's
extension. On error, the batch records the failure and continues with the
next file; the command fails if any file failed.

Example:
  doctrack batch 'reports/*.docx' 'books/*.xlsx' --url https://t.example.com/p.png --out-dir tracked`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			if template && url == "" {
				return fmt.Errorf("%w: --template requires --url", track.ErrConfiguration)
			}
			if !cmd.Flags().Changed("suffix") {
				suffix = env.Config.Output.Suffix
			}
			if !cmd.Flags().Changed("out-dir") {
				outDir = config.ExpandHome(env.Config.Output.Dir)
			}
			if outDir == "" && suffix == "" {
				return fmt.Errorf("%w: an empty --suffix without --out-dir would overwrite the inputs", track.ErrConfiguration)
			}
			kv, err := cli.LoadMetadata(metaFile)
			if err != nil {
				return err
			}

			files, err := expand(args, suffix)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files matched %s", strings.Join(args, " "))
			}

			outputs, err := plan(files, outDir, suffix)
			if err != nil {
				return err
			}

			// Create output directory if specified
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return fmt.Errorf("could not create output directory %s: %w", outDir, err)
				}
			}

			w := cli.Writer(cmd)
			runner := env.Runner("batch", cli.Args(cmd, args))
			edits := track.Edits{Metadata: kv, URL: url, Template: template}
			bar := progress.New("batch", len(files), w.JSON())

			process := func(ctx context.Context, file string) batchResultItem {
				item := batchResultItem{File: file, Status: "ok"}
				dt, err := docType(env, typeName, file)
				if err == nil {
					item.Result, err = runner.Run(ctx, job.Job{
						Input:  file,
						Output: outputs[file],
						Type:   dt,
						Edits:  edits,
						Verify: verify || env.Config.Verify,
					})
				}
				if err != nil {
					item.Status = "error"
					item.Error = err.Error()
				}
				bar.Done(filepath.Base(file), err)
				return item
			}

			results := run(cmd.Context(), files, concurrency, process)
			bar.Finish()

			failed := 0
			for _, r := range results {
				if r.Status != "ok" {
					failed++
				}
			}

			if w.JSON() {
				if err := output.PrintJSON(cmd.OutOrStdout(), "batch", results); err != nil {
					return err
				}
			} else {
				printResults(w, results)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Document type for every file; defaults to each file's extension")
	cmd.Flags().StringVar(&metaFile, "meta", "", "JSON or YAML file of core properties to set")
	cmd.Flags().StringVar(&url, "url", "", "External target URL")
	cmd.Flags().BoolVar(&template, "template", false, "Insert the URL as the document template instead of a tracking link")
	cmd.Flags().BoolVar(&verify, "verify", false, "Re-open every output and check it")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default: next to each input)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix added to output names (default: config output.suffix)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of parallel workers")

	return cmd
}

// expand resolves the glob patterns into a sorted, de-duplicated file list,
// skipping earlier outputs so a batch can be re-run over the same directory.
func expand(patterns []string, suffix string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || job.IsOutput(m, suffix) {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// plan maps every input to its output path. Two inputs writing the same
// output, or an output landing on an input, is a configuration error: the
// later write would silently replace the earlier file.
func plan(files []string, outDir, suffix string) (map[string]string, error) {
	inputs := make(map[string]string, len(files))
	for _, f := range files {
		inputs[job.PathKey(f)] = f
	}

	outputs := make(map[string]string, len(files))
	claimed := make(map[string]string, len(files))
	var conflicts []string
	for _, f := range files {
		out := job.OutputPath(f, outDir, suffix)
		key := job.PathKey(out)
		switch {
		case claimed[key] != "":
			conflicts = append(conflicts, fmt.Sprintf("%s and %s both write %s", claimed[key], f, out))
		case inputs[key] != "":
			conflicts = append(conflicts, fmt.Sprintf("%s would overwrite input %s", f, inputs[key]))
		default:
			claimed[key] = f
		}
		outputs[f] = out
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: conflicting outputs: %s", track.ErrConfiguration, strings.Join(conflicts, "; "))
	}
	return outputs, nil
}

func docType(env *cli.Env, flag, file string) (ooxml.DocType, error) {
	if flag != "" || env.Config.Type != "" {
		return env.DocType(flag)
	}
	dt, err := ooxml.LookupType(filepath.Ext(file))
	if err != nil {
		return ooxml.DocType{}, fmt.Errorf("%w: %v", track.ErrUnsupportedKind, err)
	}
	return dt, nil
}

// run processes files with up to concurrency workers; results keep the order
// of files.
func run(ctx context.Context, files []string, concurrency int, process func(context.Context, string) batchResultItem) []batchResultItem {
	results := make([]batchResultItem, len(files))

	if concurrency <= 1 {
		for i, file := range files {
			results[i] = process(ctx, file)
		}
		return results
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(idx int, f string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = process(ctx, f)
		}(i, file)
	}
	wg.Wait()
	return results
}

func printResults(w *output.Writer, results []batchResultItem) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	failed := 0
	for _, r := range results {
		if r.Status == "ok" {
			w.Colorf(green, "✓ ")
			w.Printf("%s → %s\n", r.File, r.Result.Output)
			continue
		}
		failed++
		w.Colorf(red, "✗ ")
		w.Printf("%s: %s\n", r.File, r.Error)
	}
	w.Printf("\nProcessed %d files. %d succeeded, %d failed.\n", len(results), len(results)-failed, failed)
}
