package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/utils"
)

var (
	clnOutputPath string
	clnDelimiter  string
	clnSheetName  string
	clnQuiet      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Impute blanks, normalize dates and add calendar features, writing a cleaned CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if clnOutputPath == "" {
			return fmt.Errorf("--output is required")
		}
		delim, err := parseDelimiter(clnDelimiter)
		if err != nil {
			return err
		}
		res, err := loadAndAnalyze(args[0], dataset.LoadOptions{Delimiter: delim, SheetName: clnSheetName}, true)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, res.Dataset); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(clnOutputPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write cleaned csv: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Wrote %d cleaned rows to %s\n", res.RecordCount(), clnOutputPath)
		if !clnQuiet {
			fmt.Fprintln(out)
			fmt.Fprint(out, res.Markdown())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnOutputPath, "output", "o", "", "path of the cleaned CSV (required)")
	cleanCmd.Flags().StringVar(&clnDelimiter, "delimiter", "", "CSV delimiter of the input: ',' | ';' | 'tab' | 'pipe'")
	cleanCmd.Flags().StringVar(&clnSheetName, "sheet-name", "", "XLSX: sheet name to clean (default first sheet)")
	cleanCmd.Flags().BoolVarP(&clnQuiet, "quiet", "q", false, "do not print the refreshed report")
}
