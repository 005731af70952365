package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/ai"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/utils"
)

var (
	askDryRun    bool
	askClean     bool
	askDelimiter string
	askSheetName string
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <question>",
	Short: "Ask the business advisor one question about a dataset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(askDelimiter)
		if err != nil {
			return err
		}
		res, err := loadAndAnalyze(args[0], dataset.LoadOptions{Delimiter: delim, SheetName: askSheetName}, askClean)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if askDryRun {
			sess := advisor.NewSession(nil, res, advisorOptions(), appLogger())
			req := sess.Request(args[1])
			if len(req.Messages) == 0 || req.Messages[0].Content == "" {
				return advisor.ErrEmptyQuestion
			}
			fmt.Fprintln(out, "[SYSTEM]")
			fmt.Fprintln(out, req.System)
			fmt.Fprintln(out, "\n[USER]")
			fmt.Fprintln(out, req.Messages[0].Content)
			printTokenEstimate(out, map[string]string{"system": req.System, "question": req.Messages[0].Content})
			return nil
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}
		sess := advisor.NewSession(rt, res, advisorOptions(), appLogger())
		reply, err := sess.Ask(cmd.Context(), args[1])
		if err != nil {
			if errors.Is(err, advisor.ErrAdvisorUnavailable) {
				fmt.Fprintf(out, "⚠ %s\n", reply)
				return describeRuntimeError(err)
			}
			return err
		}
		fmt.Fprintln(out, reply)
		return nil
	},
}

func printTokenEstimate(out io.Writer, sections map[string]string) {
	counts := utils.TokenBreakdown(sections)
	keys := make([]string, 0, len(counts))
	total := 0
	for k, n := range counts {
		keys = append(keys, k)
		total += n
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "\nEstimated prompt tokens: %d", total)
	for _, k := range keys {
		fmt.Fprintf(out, " (%s: %d)", k, counts[k])
	}
	fmt.Fprintln(out)
}

// describeRuntimeError adds a hint for the provider failures users can fix themselves.
func describeRuntimeError(err error) error {
	var (
		auth  *ai.AuthError
		quota *ai.QuotaExceededError
		miss  *ai.ModelNotFoundError
		down  *ai.UnreachableError
	)
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return fmt.Errorf("%w\n  Set one with: bizdata config set api_key <key> (or export GEMINI_API_KEY)", err)
	case errors.As(err, &auth):
		return fmt.Errorf("%w\n  Check api_key with: bizdata config show", err)
	case errors.As(err, &quota):
		return fmt.Errorf("%w\n  The provider quota is exhausted; try again later or switch model", err)
	case errors.As(err, &miss):
		return fmt.Errorf("%w\n  Pick another model with --model or: bizdata config set model <name>", err)
	case errors.As(err, &down):
		return fmt.Errorf("%w\n  Check your network or the provider endpoint in config", err)
	}
	return err
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "print the prompt and a token estimate without calling the model")
	askCmd.Flags().BoolVar(&askClean, "clean", false, "clean the data before answering")
	askCmd.Flags().StringVar(&askDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	askCmd.Flags().StringVar(&askSheetName, "sheet-name", "", "XLSX: sheet name to use")
}
