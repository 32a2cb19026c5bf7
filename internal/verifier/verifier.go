package verifier

import (
	"context"
	"math/rand/v2"
	"time"

	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"
	"bot-ofertas/internal/pacing"
	"bot-ofertas/internal/scraper"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Motivos de reprovação
const (
	ReasonOK            = "ok"
	ReasonNavigation    = "navigation_failed"
	ReasonNoPrice       = "price_not_found"
	ReasonPriceMismatch = "price_mismatch"
	ReasonUnavailable   = "unavailable"
	ReasonMissingPrice  = "offer_without_price"
)

// Browser é a parte da navegação que a verificação usa
type Browser interface {
	Navigate(ctx context.Context, url string) (*scraper.Page, error)
	ExtractProduct(page *scraper.Page) (scraper.ProductDetails, error)
}

// Config controla a verificação de preços
type Config struct {
	Tolerance      float64
	MaxValidations int
	TargetValid    int
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// Result é o resultado da verificação de uma oferta
type Result struct {
	Verified     bool
	CurrentPrice *float64
	OldPrice     *float64
	Reason       string
}

// Verifier confere o preço das ofertas na página canônica do produto
type Verifier struct {
	browser Browser
	cfg     Config
	rng     *rand.Rand
	sleep   pacing.SleepFunc
	log     zerolog.Logger
}

// Option configura o Verifier
type Option func(*Verifier)

// WithRand define a fonte aleatória dos intervalos
func WithRand(rng *rand.Rand) Option {
	return func(v *Verifier) { v.rng = rng }
}

// WithSleep substitui a função de espera
func WithSleep(sleep pacing.SleepFunc) Option {
	return func(v *Verifier) { v.sleep = sleep }
}

// WithLogger define o logger da verificação
func WithLogger(l zerolog.Logger) Option {
	return func(v *Verifier) { v.log = logger.For(l, "verifier") }
}

// New cria um novo verificador
func New(browser Browser, cfg Config, opts ...Option) *Verifier {
	v := &Verifier{
		browser: browser,
		cfg:     cfg,
		rng:     pacing.NewRand(),
		sleep:   pacing.Sleep,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify navega até o link original e compara o preço atual com o da oferta.
// Qualquer falha reprova a oferta.
func (v *Verifier) Verify(ctx context.Context, offer models.Offer) Result {
	if offer.Price == nil {
		return Result{Reason: ReasonMissingPrice}
	}

	page, err := v.browser.Navigate(ctx, offer.OriginalLink)
	if err != nil {
		v.log.Debug().Err(err).Str("title", logger.Truncate(offer.Title, 60)).Msg("verification navigation failed")
		return Result{Reason: ReasonNavigation}
	}

	details, err := v.browser.ExtractProduct(page)
	if err != nil || details.Price == nil {
		return Result{Reason: ReasonNoPrice}
	}

	result := Result{CurrentPrice: details.Price, OldPrice: details.OldPrice}

	if !WithinTolerance(*offer.Price, *details.Price, v.cfg.Tolerance) {
		result.Reason = ReasonPriceMismatch
		return result
	}

	if offer.OldPrice != nil && details.OldPrice != nil && !WithinTolerance(*offer.OldPrice, *details.OldPrice, v.cfg.Tolerance) {
		v.log.Info().
			Str("title", logger.Truncate(offer.Title, 60)).
			Float64("listed_old_price", *offer.OldPrice).
			Float64("page_old_price", *details.OldPrice).
			Msg("old price differs from product page")
	}

	if !details.Available {
		result.Reason = ReasonUnavailable
		return result
	}

	result.Verified = true
	result.Reason = ReasonOK
	return result
}

// VerifyBatch verifica as ofertas em sequência, no máximo MaxValidations,
// parando quando TargetValid ofertas forem aprovadas.
func (v *Verifier) VerifyBatch(ctx context.Context, offers []models.Offer) ([]models.Offer, int, error) {
	limit := len(offers)
	if v.cfg.MaxValidations > 0 && v.cfg.MaxValidations < limit {
		limit = v.cfg.MaxValidations
	}

	var valid []models.Offer
	failed := 0

	for i := 0; i < limit; i++ {
		result := v.Verify(ctx, offers[i])
		if result.Verified {
			valid = append(valid, offers[i])
		} else {
			failed++
			v.log.Info().
				Str("title", logger.Truncate(offers[i].Title, 60)).
				Str("reason", result.Reason).
				Msg("offer dropped by verification")
		}

		if v.cfg.TargetValid > 0 && len(valid) >= v.cfg.TargetValid {
			v.log.Info().Int("valid", len(valid)).Msg("verification target reached")
			break
		}

		if i < limit-1 {
			if err := v.sleep(ctx, v.delay()); err != nil {
				return valid, failed, err
			}
		}
	}

	return valid, failed, nil
}

func (v *Verifier) delay() time.Duration {
	return pacing.Delay(v.rng, v.cfg.MinDelay, v.cfg.MaxDelay)
}

// WithinTolerance informa se |a - b| <= tolerance, em aritmética decimal
func WithinTolerance(a, b, tolerance float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}
