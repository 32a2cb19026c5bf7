// Package cmd implementa os comandos da CLI do bot de ofertas.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"bot-ofertas/config"
	"bot-ofertas/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "bot-ofertas",
	Short:         "Coleta ofertas da Amazon e envia as melhores para o Telegram",
	Long:          "Navega pelas coleções de ofertas, filtra e pontua os produtos, confere o preço,\nignora o que já foi enviado e publica um lote espaçado no Telegram.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "arquivo de configuração YAML (opcional)")
	rootCmd.PersistentFlags().String("log-level", "", "nível de log (debug, info, warn, error)")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(checkCmd())
}

// Execute executa o comando raiz
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Erro ao ler o arquivo .env:", err)
	}

	viper.SetEnvPrefix("OFERTAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig carrega a configuração e cria o logger da aplicação
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}

	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return cfg, log, nil
}
