package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/bizdata-cli/internal/dataset"
	"github.com/KaramelBytes/bizdata-cli/internal/server"
)

var (
	srvAddr      string
	srvDelimiter string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and advisory chat over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		delim, err := parseDelimiter(srvDelimiter)
		if err != nil {
			return err
		}
		opt, err := analysisOptions()
		if err != nil {
			return err
		}
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		addr := c.ServeAddr
		if cmd.Flags().Changed("addr") && srvAddr != "" {
			addr = srvAddr
		}

		scfg := server.DefaultConfig()
		scfg.MaxUploadBytes = int64(c.MaxUploadMB) << 20
		scfg.ChatRate = c.ChatRatePerSec
		scfg.ChatBurst = c.ChatBurst
		scfg.Analysis = opt
		scfg.Advisor = advisorOptions()
		scfg.Load = dataset.LoadOptions{Delimiter: delim}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (provider %s, model %s)\n", addr, c.Provider, c.Model)
		return server.New(scfg, rt, appLogger()).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config serve_addr, :8080)")
	serveCmd.Flags().StringVar(&srvDelimiter, "delimiter", "", "CSV delimiter for uploads: ',' | ';' | 'tab' | 'pipe'")
}
