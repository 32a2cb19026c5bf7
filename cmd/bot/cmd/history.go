package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	historyRoot := &cobra.Command{
		Use:   "history",
		Short: "Consulta e limpa o histórico de ofertas enviadas",
		Long: "O histórico guarda as últimas ofertas enviadas e impede que a mesma\n" +
			"oferta seja publicada de novo enquanto estiver nele.",
	}

	historyRoot.AddCommand(
		historyStatsCmd(),
		historyListCmd(),
		historyClearCmd(),
	)

	return historyRoot
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Mostra o resumo do histórico",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}

			if stats.Total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma oferta no histórico.")
				return nil
			}
			return printStats(cmd.OutOrStdout(), stats, db.Capacity())
		},
	}
}

func historyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as últimas ofertas enviadas",
		Example: `  # Últimas 20 ofertas
  bot-ofertas history list

  # Últimas 50 ofertas
  bot-ofertas history list -n 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return errors.New("-n must be at least 1")
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.Recent(ctx, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma oferta no histórico.")
				return nil
			}
			return printHistoryTable(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "quantidade de ofertas")

	return cmd
}

func historyClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Apaga todo o histórico",
		Long:  "Apaga todo o histórico. Ofertas já enviadas voltam a ser elegíveis na próxima execução.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := db.Clear(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d ofertas removidas do histórico.\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirmar a limpeza")

	return cmd
}
