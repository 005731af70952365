package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/bizdata-cli/internal/advisor"
	"github.com/KaramelBytes/bizdata-cli/internal/analysis"
	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
)

var (
	chatDelimiter string
	chatSheetName string
)

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Start an interactive advisory chat about a dataset",
	Long: `Start an interactive advisory chat about a dataset.

Commands inside the chat:
  /clean    clean the data and continue with the refreshed statistics
  /report   print the current report
  /quit     leave the chat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(chatDelimiter)
		if err != nil {
			return err
		}
		res, err := loadAndAnalyze(args[0], dataset.LoadOptions{Delimiter: delim, SheetName: chatSheetName}, false)
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		sess := advisor.NewSession(rt, res, advisorOptions(), appLogger())
		return runChat(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func runChat(ctx context.Context, sess *advisor.Session, in io.Reader, out io.Writer) error {
	opt, err := analysisOptions()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Advisor: %s\n", advisor.Greeting)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/report":
			fmt.Fprintln(out, sess.Result().Markdown())
			continue
		case "/clean":
			if sess.Result().Cleaned {
				fmt.Fprintln(out, "⚠ Data is already cleaned")
				continue
			}
			sess.SetResult(analysis.Clean(sess.Result(), opt))
			fmt.Fprintf(out, "✓ Cleaned %d rows; the advisor now uses the refreshed statistics\n", sess.Result().RecordCount())
			continue
		}
		reply, err := sess.Ask(ctx, line)
		switch {
		case err == nil:
			fmt.Fprintf(out, "Advisor: %s\n", reply)
		case errors.Is(err, advisor.ErrAdvisorUnavailable):
			fmt.Fprintf(out, "Advisor: %s\n", reply)
			appLogger().Warn("advisor unavailable", "error", err)
		default:
			fmt.Fprintf(out, "⚠ %v\n", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	chatCmd.Flags().StringVar(&chatSheetName, "sheet-name", "", "XLSX: sheet name to use")
}
