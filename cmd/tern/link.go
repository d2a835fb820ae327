package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tern/internal/diag"
	"tern/internal/link"
	"tern/internal/observ"
	"tern/internal/project"
)

var (
	linkOutput  string
	linkRoots   []string
	linkJobs    int
	linkNoCache bool
)

func init() {
	linkCmd.Flags().StringVarP(&linkOutput, "output", "o", "", "output file (default from tern.toml, else out.ll)")
	linkCmd.Flags().StringSliceVar(&linkRoots, "root", nil, "root symbols for reachability (default from tern.toml, else main)")
	linkCmd.Flags().IntVarP(&linkJobs, "jobs", "j", 0, "parallel extraction jobs (0 = all CPUs)")
	linkCmd.Flags().BoolVar(&linkNoCache, "no-cache", false, "skip the symbol-table disk cache")
}

var linkCmd = &cobra.Command{
	Use:   "link [flags] [path]",
	Short: "Link IR modules into a single module",
	Long: `Link extracts symbols from every input module declared in tern.toml,
drops code unreachable from the root set, resolves duplicate definitions by
module priority, and writes one merged module.`,
	Args: cobra.MaximumNArgs(1),
	RunE: linkExecution,
}

func linkExecution(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}
	manifestPath, ok, err := project.FindTernToml(startDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no tern.toml found from %s upward", startDir)
	}
	manifest, err := project.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	inputs, err := manifest.Inputs()
	if err != nil {
		return err
	}

	output := linkOutput
	if output == "" {
		output = manifest.Output
		if !filepath.IsAbs(output) {
			output = filepath.Join(manifest.Dir, output)
		}
	}
	roots := linkRoots
	if len(roots) == 0 {
		roots = manifest.Roots
	}
	if len(roots) == 0 {
		roots = []string{"main"}
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	showTimings, _ := cmd.Flags().GetBool("timings")
	reporter := diag.Reporter(diag.NopReporter{})
	if !quiet {
		reporter = &diag.Writer{Out: cmd.ErrOrStderr(), Color: useColor(cmd, os.Stderr)}
	}

	var cache *link.DiskCache
	if !linkNoCache {
		// A broken cache dir only costs speed.
		cache, _ = link.OpenDiskCache("tern")
	}

	timer := observ.NewTimer()

	phase := timer.Begin("extract")
	tables, err := link.ExtractAll(cmd.Context(), inputs, cache, linkJobs)
	if err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d modules", len(tables)))

	phase = timer.Begin("reachability")
	graph := link.BuildGraph(tables)
	reachable := graph.ReachableFrom(roots)
	if err := checkRoots(tables, roots); err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d symbols", len(reachable)))

	phase = timer.Begin("resolve")
	res := link.Resolve(tables, reachable, reporter)
	timer.End(phase, fmt.Sprintf("%d conflicts", len(res.Conflicts)))

	phase = timer.Begin("merge")
	merged, err := link.Merge(res, mergedModuleName(output), tables)
	if err != nil {
		var invalid *link.InvalidModuleError
		if errors.As(err, &invalid) {
			// Keep the broken output next to the target for inspection.
			debugPath := output + ".invalid.ll"
			if werr := os.WriteFile(debugPath, []byte(invalid.Text), 0o644); werr == nil {
				return fmt.Errorf("%w (invalid module written to %s)", err, debugPath)
			}
		}
		return err
	}
	timer.End(phase, "")

	if err := os.WriteFile(output, []byte(merged), 0o644); err != nil {
		return err
	}

	if !quiet {
		if report := res.ConflictReport(); report != "" {
			fmt.Fprint(cmd.ErrOrStderr(), report)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "linked %d modules -> %s (%d symbols, %d unresolved)\n",
			len(tables), output, len(res.Chosen), len(res.Unresolved))
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// checkRoots fails fast when no input module mentions a requested root at
// all; a typoed root would otherwise silently link an empty module.
func checkRoots(tables []*link.SymbolTable, roots []string) error {
	var missing []string
	for _, root := range roots {
		found := false
		for _, t := range tables {
			if t.Lookup(root) != nil {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, root)
		}
	}
	if len(missing) > 0 {
		return diag.Errorf(diag.LinkNoRoots, "root symbol(s) not found in any module: %s", strings.Join(missing, ", "))
	}
	return nil
}

func mergedModuleName(output string) string {
	base := filepath.Base(output)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
