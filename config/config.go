// Package config carrega e valida a configuração do bot de ofertas.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // fuso America/Sao_Paulo sem depender do sistema

	"bot-ofertas/internal/models"

	"gopkg.in/yaml.v3"
)

// Config contém as configurações da aplicação
type Config struct {
	Telegram     TelegramConfig     `yaml:"telegram"`
	Affiliate    AffiliateConfig    `yaml:"affiliate"`
	Filter       FilterConfig       `yaml:"filter"`
	Scraper      ScraperConfig      `yaml:"scraper"`
	Verification VerificationConfig `yaml:"verification"`
	Delivery     DeliveryConfig     `yaml:"delivery"`
	Database     DatabaseConfig     `yaml:"database"`
	Archive      ArchiveConfig      `yaml:"archive"`
	Cache        CacheConfig        `yaml:"cache"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// TelegramConfig define o bot e o chat de destino
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Commands bool   `yaml:"commands"` // responde /stats e /recentes no modo schedule
}

// Enabled informa se a entrega está configurada
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// AffiliateConfig define a tag de afiliado usada nos links
type AffiliateConfig struct {
	Tag string `yaml:"tag"`
}

// FilterConfig define filtros e pontuação mínima
type FilterConfig struct {
	MinPrice        float64  `yaml:"min_price"`
	MaxPrice        float64  `yaml:"max_price"`
	MinDiscount     float64  `yaml:"min_discount"`
	RequirePrime    bool     `yaml:"require_prime"`
	BlockedKeywords []string `yaml:"blocked_keywords"`
	MinScore        int      `yaml:"min_score"`
	MaxPerCategory  int      `yaml:"max_per_category"`
}

// ScraperConfig define a navegação nas páginas de ofertas
type ScraperConfig struct {
	CategoriesPerRun int               `yaml:"categories_per_run"`
	CategoryMinDelay time.Duration     `yaml:"category_min_delay"`
	CategoryMaxDelay time.Duration     `yaml:"category_max_delay"`
	Timeout          time.Duration     `yaml:"timeout"`
	RatePerSecond    float64           `yaml:"rate_per_second"`
	BlockTime        time.Duration     `yaml:"block_time"`
	Categories       []models.Category `yaml:"categories"`
}

// VerificationConfig define a conferência de preço na página do produto
type VerificationConfig struct {
	Disabled       bool          `yaml:"disabled"`
	PriceTolerance float64       `yaml:"price_tolerance"`
	MaxValidations int           `yaml:"max_validations"`
	TargetValid    int           `yaml:"target_valid"`
	MinDelay       time.Duration `yaml:"min_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
}

// DeliveryConfig define o ritmo de envio
type DeliveryConfig struct {
	MinDelay    time.Duration `yaml:"min_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxPerBatch int           `yaml:"max_per_batch"`
}

// DatabaseConfig define o histórico de ofertas enviadas
type DatabaseConfig struct {
	Path            string `yaml:"path"`
	HistoryCapacity int    `yaml:"history_capacity"`
}

// ArchiveConfig define onde as ofertas novas são arquivadas.
// Com RedisAddr preenchido o arquivo vai para um stream do Redis.
type ArchiveConfig struct {
	Path           string `yaml:"path"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisDB        int    `yaml:"redis_db"`
	RedisStream    string `yaml:"redis_stream"`
	RedisMaxLength int64  `yaml:"redis_max_length"`
}

// CacheConfig define o cache de bloqueio de categorias
type CacheConfig struct {
	MemcacheAddr string `yaml:"memcache_addr"`
}

// ScheduleConfig define os horários das execuções
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// Location retorna o fuso horário configurado
func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// MetricsConfig define o endpoint de métricas
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig define o nível e o formato dos logs
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultBlockedKeywords são termos de produtos que não convertem
var DefaultBlockedKeywords = []string{
	"livro", "apostila", "edição escolar", "usado", "reembalado",
	"refil", "peça de reposição", "recarga", "ebook", "e-book",
	"revista", "jornal", "assinatura", "gift card", "vale presente",
	"curso online", "treinamento", "seminário", "matemática",
}

// Default retorna a configuração padrão
func Default() *Config {
	return &Config{
		Filter: FilterConfig{
			MinPrice:        20,
			MaxPrice:        1500,
			MinDiscount:     25,
			BlockedKeywords: append([]string(nil), DefaultBlockedKeywords...),
			MinScore:        60,
			MaxPerCategory:  10,
		},
		Scraper: ScraperConfig{
			CategoriesPerRun: 2,
			CategoryMinDelay: 8 * time.Second,
			CategoryMaxDelay: 13 * time.Second,
			Timeout:          60 * time.Second,
			RatePerSecond:    0.5,
			BlockTime:        30 * time.Minute,
		},
		Verification: VerificationConfig{
			PriceTolerance: 0.50,
			MaxValidations: 12,
			TargetValid:    8,
			MinDelay:       4 * time.Second,
			MaxDelay:       7 * time.Second,
		},
		Delivery: DeliveryConfig{
			MinDelay:    60 * time.Second,
			MaxDelay:    120 * time.Second,
			MaxPerBatch: 5,
		},
		Database: DatabaseConfig{
			Path:            "./data/history.db",
			HistoryCapacity: 100,
		},
		Archive: ArchiveConfig{
			Path:           "./data/offers.json",
			RedisStream:    "ofertas:archive",
			RedisMaxLength: 1000,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 9,14,20 * * *",
			Timezone: "America/Sao_Paulo",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load monta a configuração: padrões, arquivo YAML opcional e variáveis de ambiente.
// Com path vazio apenas os padrões e o ambiente são usados.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // caminho vem da flag da CLI
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	setString("AMAZON_AFFILIATE_TAG", &cfg.Affiliate.Tag)
	setString("DATABASE_PATH", &cfg.Database.Path)
	setString("OFFERS_ARCHIVE_PATH", &cfg.Archive.Path)
	setString("REDIS_ADDR", &cfg.Archive.RedisAddr)
	setString("MEMCACHE_ADDR", &cfg.Cache.MemcacheAddr)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	setString("METRICS_ADDR", &cfg.Metrics.Addr)

	// Chat ID pode ser negativo (grupos e canais)
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(strings.TrimSpace(chatIDStr), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatIDStr, err)
		}
		cfg.Telegram.ChatID = chatID
	}

	return nil
}

// Validate confere a consistência da configuração
func (c *Config) Validate() error {
	var errs []error

	f := c.Filter
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		errs = append(errs, fmt.Errorf("filter prices must not be negative"))
	}
	if f.MinPrice > f.MaxPrice {
		errs = append(errs, fmt.Errorf("filter.min_price (%.2f) must not exceed filter.max_price (%.2f)", f.MinPrice, f.MaxPrice))
	}
	if f.MinDiscount < 0 || f.MinDiscount > 100 {
		errs = append(errs, fmt.Errorf("filter.min_discount must be between 0 and 100 (got %.2f)", f.MinDiscount))
	}
	if f.MinScore < 0 || f.MinScore > 100 {
		errs = append(errs, fmt.Errorf("filter.min_score must be between 0 and 100 (got %d)", f.MinScore))
	}
	if f.MaxPerCategory < 1 {
		errs = append(errs, fmt.Errorf("filter.max_per_category must be at least 1"))
	}

	if c.Scraper.CategoriesPerRun < 1 {
		errs = append(errs, fmt.Errorf("scraper.categories_per_run must be at least 1"))
	}
	if c.Scraper.CategoryMinDelay > c.Scraper.CategoryMaxDelay {
		errs = append(errs, fmt.Errorf("scraper.category_min_delay must not exceed scraper.category_max_delay"))
	}
	if c.Scraper.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("scraper.timeout must be positive"))
	}
	if c.Scraper.RatePerSecond <= 0 {
		errs = append(errs, fmt.Errorf("scraper.rate_per_second must be positive"))
	}
	if c.Scraper.Categories != nil && len(c.Scraper.Categories) == 0 {
		errs = append(errs, fmt.Errorf("scraper.categories must not be empty"))
	}
	for i, cat := range c.Scraper.Categories {
		if cat.URL == "" || cat.Name == "" {
			errs = append(errs, fmt.Errorf("scraper.categories[%d] requires name and url", i))
		}
	}

	v := c.Verification
	if v.PriceTolerance < 0 {
		errs = append(errs, fmt.Errorf("verification.price_tolerance must not be negative"))
	}
	if v.MaxValidations < 1 || v.TargetValid < 1 {
		errs = append(errs, fmt.Errorf("verification.max_validations and verification.target_valid must be at least 1"))
	}
	if v.MinDelay > v.MaxDelay {
		errs = append(errs, fmt.Errorf("verification.min_delay must not exceed verification.max_delay"))
	}

	if c.Delivery.MinDelay > c.Delivery.MaxDelay {
		errs = append(errs, fmt.Errorf("delivery.min_delay must not exceed delivery.max_delay"))
	}
	if c.Delivery.MaxPerBatch < 1 {
		errs = append(errs, fmt.Errorf("delivery.max_per_batch must be at least 1"))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if c.Database.HistoryCapacity < 1 {
		errs = append(errs, fmt.Errorf("database.history_capacity must be at least 1"))
	}

	if c.Telegram.Enabled() && c.Telegram.ChatID == 0 {
		errs = append(errs, fmt.Errorf("telegram.chat_id (TELEGRAM_CHAT_ID) is required when a bot token is set"))
	}

	if _, err := c.Schedule.Location(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone %q is invalid: %w", c.Schedule.Timezone, err))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: console, json (got %q)", c.Logging.Format))
	}

	return errors.Join(errs...)
}
