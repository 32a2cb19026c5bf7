package cmd

import (
	"context"
	"errors"
	"fmt"

	"bot-ofertas/config"
	"bot-ofertas/internal/archive"
	"bot-ofertas/internal/bot"
	"bot-ofertas/internal/cache"
	"bot-ofertas/internal/database"
	"bot-ofertas/internal/monitor"
	"bot-ofertas/internal/pacing"
	"bot-ofertas/internal/scorer"
	"bot-ofertas/internal/scraper"
	"bot-ofertas/internal/sender"
	"bot-ofertas/internal/verifier"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// app reúne os componentes montados a partir da configuração
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *database.DB
	archive archive.Archive
	api     *tgbotapi.BotAPI
	monitor *monitor.Monitor
}

type appOptions struct {
	skipVerify   bool
	skipDelivery bool
}

// openStore abre o histórico de ofertas enviadas
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Path,
		database.WithCapacity(cfg.Database.HistoryCapacity),
		database.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return db, nil
}

// newCooldownCache usa o memcached quando configurado, senão um cache em memória
func newCooldownCache(cfg *config.Config, log zerolog.Logger) cache.CacheService {
	if cfg.Cache.MemcacheAddr == "" {
		return cache.NewMemoryService()
	}

	mc := cache.NewMemcacheService(cfg.Cache.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Cache.MemcacheAddr).Msg("memcached unavailable, using in-memory cooldown cache")
		return cache.NewMemoryService()
	}
	return mc
}

// newArchive usa o stream do Redis quando configurado, senão o arquivo JSON
func newArchive(ctx context.Context, cfg *config.Config) (archive.Archive, error) {
	if cfg.Archive.RedisAddr == "" {
		return archive.NewFileArchive(cfg.Archive.Path), nil
	}

	ra := archive.NewRedisArchive(cfg.Archive.RedisAddr, cfg.Archive.RedisDB, cfg.Archive.RedisStream, cfg.Archive.RedisMaxLength)
	if err := ra.Ping(ctx); err != nil {
		_ = ra.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Archive.RedisAddr, err)
	}
	return ra, nil
}

// connectTelegram inicializa o bot quando há token configurado
func connectTelegram(cfg *config.Config, log zerolog.Logger) (*tgbotapi.BotAPI, error) {
	if !cfg.Telegram.Enabled() {
		return nil, nil
	}

	api, err := bot.Init(cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bot", api.Self.UserName).Msg("telegram bot authorized")
	return api, nil
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log}

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.archive, err = newArchive(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	rng := pacing.NewRand()
	cooldown := newCooldownCache(cfg, log)
	newBrowser := func() (scraper.Browser, error) {
		return scraper.NewHTTPBrowser(
			scraper.WithTimeout(cfg.Scraper.Timeout),
			scraper.WithRateLimit(cfg.Scraper.RatePerSecond),
			scraper.WithCooldown(cooldown, cfg.Scraper.BlockTime),
			scraper.WithRand(rng),
			scraper.WithLogger(log),
		), nil
	}

	monitorOpts := []monitor.Option{
		monitor.WithRand(rng),
		monitor.WithLogger(log),
		monitor.WithArchive(a.archive),
	}

	if !opts.skipVerify && !cfg.Verification.Disabled {
		monitorOpts = append(monitorOpts, monitor.WithVerification(verifier.Config{
			Tolerance:      cfg.Verification.PriceTolerance,
			MaxValidations: cfg.Verification.MaxValidations,
			TargetValid:    cfg.Verification.TargetValid,
			MinDelay:       cfg.Verification.MinDelay,
			MaxDelay:       cfg.Verification.MaxDelay,
		}))
	}

	if !opts.skipDelivery {
		a.api, err = connectTelegram(cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if a.api != nil {
		channel := bot.NewChannel(a.api, cfg.Telegram.ChatID, log)
		seq := sender.NewSequencer(channel, sender.Pacing{
			MinDelay:    cfg.Delivery.MinDelay,
			MaxDelay:    cfg.Delivery.MaxDelay,
			MaxPerBatch: cfg.Delivery.MaxPerBatch,
		}, sender.WithRand(rng), sender.WithLogger(log))
		monitorOpts = append(monitorOpts, monitor.WithSender(seq))
	} else {
		log.Warn().Msg("telegram not configured, offers will only be archived")
	}

	a.monitor = monitor.New(newBrowser, db, monitor.Config{
		Categories:       cfg.Scraper.Categories,
		CategoriesPerRun: cfg.Scraper.CategoriesPerRun,
		CategoryMinDelay: cfg.Scraper.CategoryMinDelay,
		CategoryMaxDelay: cfg.Scraper.CategoryMaxDelay,
		AffiliateTag:     cfg.Affiliate.Tag,
		Filter: scorer.Config{
			MinPrice:        cfg.Filter.MinPrice,
			MaxPrice:        cfg.Filter.MaxPrice,
			MinDiscount:     cfg.Filter.MinDiscount,
			RequirePrime:    cfg.Filter.RequirePrime,
			BlockedKeywords: cfg.Filter.BlockedKeywords,
			MinScore:        cfg.Filter.MinScore,
		},
		MaxPerCategory: cfg.Filter.MaxPerCategory,
	}, monitorOpts...)

	return a, nil
}

// Close fecha o arquivo e o histórico; o histórico fecha por último
func (a *app) Close() error {
	var errs []error
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing archive: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing history store: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Error().Err(err).Msg("failed to release resources")
		return err
	}
	return nil
}
