package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bot-ofertas/internal/bot"
	"bot-ofertas/internal/monitor"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type listener interface {
	Listen(ctx context.Context)
}

// startListener inicia l em segundo plano e retorna a função que o encerra e aguarda seu término
func startListener(ctx context.Context, l listener) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		l.Listen(ctx)
		return nil
	})

	return func() {
		cancel()
		_ = g.Wait()
	}
}

func scheduleCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Executa o pipeline nos horários configurados",
		Long: "Mantém o processo ativo e dispara o pipeline conforme a expressão cron\n" +
			"configurada (padrão 09:00, 14:00 e 20:00 no horário de Brasília).",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			loc, err := cfg.Schedule.Location()
			if err != nil {
				return fmt.Errorf("loading timezone: %w", err)
			}

			sched, err := monitor.NewScheduler(a.monitor, cfg.Schedule.Cron, loc, log)
			if err != nil {
				return err
			}

			var server *http.Server
			if cfg.Metrics.Addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				server = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

				go func() {
					log.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server error")
					}
				}()
			}

			if cfg.Telegram.Commands && a.api != nil {
				commands := bot.NewCommands(a.api, a.db, cfg.Telegram.ChatID, loc, log)
				// encerrado antes de a.Close: o histórico só fecha depois da última resposta
				defer startListener(ctx, commands)()
			}

			if runNow {
				if _, err := a.monitor.Run(ctx); err != nil {
					log.Error().Err(err).Msg("initial run failed")
				}
			}

			sched.Start(ctx)
			<-ctx.Done()

			log.Info().Msg("shutting down, waiting for the current run to finish")
			<-sched.Stop().Done()

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutting down metrics server: %w", err)
				}
			}

			log.Info().Msg("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "executar uma vez imediatamente antes de aguardar o agendamento")

	return cmd
}
