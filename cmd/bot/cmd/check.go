package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bot-ofertas/internal/bot"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verifica a conexão com o Telegram e o histórico",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			out := cmd.OutOrStdout()

			db, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Histórico: %s (%d/%d ofertas)\n", cfg.Database.Path, stats.Total, db.Capacity())

			if !cfg.Telegram.Enabled() {
				fmt.Fprintln(out, "⚠️ Telegram: TELEGRAM_BOT_TOKEN não configurado")
				return nil
			}

			api, err := connectTelegram(cfg, log)
			if err != nil {
				fmt.Fprintf(out, "❌ Telegram: %v\n", err)
				return err
			}

			connected, err := bot.NewChannel(api, cfg.Telegram.ChatID, log).CheckConnected(ctx)
			if err != nil || !connected {
				fmt.Fprintln(out, "❌ Telegram: não conectado")
				return errors.Join(errors.New("telegram not connected"), err)
			}

			fmt.Fprintf(out, "✅ Telegram: conectado como @%s, chat %d\n", api.Self.UserName, cfg.Telegram.ChatID)
			return nil
		},
	}
}
