package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/utils"
)

var (
	abOutDir    string
	abDelimiter string
	abSheetName string
	abClean     bool
	abJobs      int
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files concurrently and write one summary per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		delim, err := parseDelimiter(abDelimiter)
		if err != nil {
			return err
		}
		if abOutDir == "" {
			abOutDir = "."
		}
		if err := os.MkdirAll(abOutDir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
		// Config is shared by the workers; resolve it before they start.
		current()
		lopt := dataset.LoadOptions{Delimiter: delim, SheetName: abSheetName}
		targets := summaryPaths(files, abOutDir)

		jobs := abJobs
		if jobs <= 0 {
			jobs = runtime.NumCPU()
		}
		out := cmd.OutOrStdout()
		var mu sync.Mutex
		var done int
		total := len(files)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for i, path := range files {
			path := path
			target := targets[i]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := loadAndAnalyze(path, lopt, abClean)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				if err := utils.SafeWriteFile(target, []byte(res.Markdown())); err != nil {
					return fmt.Errorf("write %s: %w", filepath.Base(target), err)
				}
				mu.Lock()
				done++
				if !abQuiet {
					fmt.Fprintf(out, "[%d/%d] ✓ %s -> %s\n", done, total, filepath.Base(path), target)
				}
				mu.Unlock()
				return nil
			})
		}
		return g.Wait()
	},
}

// expandInputs resolves globs and literal paths, de-duplicated and sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// summaryPaths maps each input to <outDir>/<name>.summary.md. Inputs sharing a
// base name get __2, __3... suffixes in input order so no summary is overwritten.
func summaryPaths(files []string, outDir string) []string {
	out := make([]string, len(files))
	used := map[string]int{}
	for i, path := range files {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		used[stem]++
		name := stem + ".summary.md"
		if n := used[stem]; n > 1 {
			name = fmt.Sprintf("%s__%d.summary.md", stem, n)
		}
		out[i] = filepath.Join(outDir, name)
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", ".", "directory for <name>.summary.md files")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeBatchCmd.Flags().BoolVar(&abClean, "clean", false, "clean each dataset before computing statistics")
	analyzeBatchCmd.Flags().IntVarP(&abJobs, "jobs", "j", 0, "files analysed in parallel (default: number of CPUs)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress output")
}
