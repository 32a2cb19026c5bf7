package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		noVerify bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Executa o pipeline uma vez",
		Example: `  # Coletar, conferir e enviar
  bot-ofertas run

  # Apenas coletar e arquivar, sem enviar ao Telegram
  bot-ofertas run --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log, appOptions{skipVerify: noVerify, skipDelivery: dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.monitor.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Execução %s: %d extraídas, %d qualificadas, %d novas, %d enviadas\n",
				report.RunID, report.Extracted, report.Qualified, report.New, report.Delivered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "pular a conferência de preço na página do produto")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "não enviar ao Telegram; apenas arquivar as ofertas novas")

	return cmd
}
