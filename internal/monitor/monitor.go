package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"bot-ofertas/internal/archive"
	"bot-ofertas/internal/extractor"
	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/metrics"
	"bot-ofertas/internal/models"
	"bot-ofertas/internal/pacing"
	"bot-ofertas/internal/scorer"
	"bot-ofertas/internal/scraper"
	"bot-ofertas/internal/verifier"
	scrapeerrors "bot-ofertas/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State é a etapa do pipeline em que a execução está
type State string

// Etapas do pipeline, na ordem em que são percorridas
const (
	StateStart       State = "start"
	StateFetch       State = "fetch_candidates"
	StateExtract     State = "extract"
	StateFilterScore State = "filter_score"
	StateVerify      State = "verify_prices"
	StateDedup       State = "dedup_filter"
	StatePersist     State = "persist"
	StateDeliver     State = "deliver"
	StateMarkSent    State = "mark_sent"
	StateEnd         State = "end"
)

// BrowserFactory abre uma sessão de navegação para uma execução
type BrowserFactory func() (scraper.Browser, error)

// Store é o histórico de ofertas enviadas
type Store interface {
	FilterNew(ctx context.Context, offers []models.Offer) ([]models.Offer, error)
	MarkAsSent(ctx context.Context, offers []models.Offer) error
	Stats(ctx context.Context) (models.HistoryStats, error)
}

// Deliverer entrega um lote de ofertas e retorna as que foram enviadas
type Deliverer interface {
	Deliver(ctx context.Context, offers []models.Offer) ([]models.Offer, error)
}

// Config controla uma execução do pipeline
type Config struct {
	Categories       []models.Category
	CategoriesPerRun int
	CategoryMinDelay time.Duration
	CategoryMaxDelay time.Duration
	AffiliateTag     string
	Filter           scorer.Config
	MaxPerCategory   int
}

// Report resume uma execução
type Report struct {
	RunID              string
	State              State
	Categories         []string
	CategoryFailures   int
	Fragments          int
	Extracted          int
	Qualified          int
	Verified           int
	VerificationFailed int
	Duplicates         int
	New                int
	Archived           int
	Delivered          int
	Duration           time.Duration
}

// Monitor executa o pipeline de ofertas
type Monitor struct {
	newBrowser BrowserFactory
	store      Store
	cfg        Config
	verify     *verifier.Config
	archive    archive.Archive
	sender     Deliverer
	rng        *rand.Rand
	sleep      pacing.SleepFunc
	now        func() time.Time
	base       zerolog.Logger
	log        zerolog.Logger
}

// Option configura o Monitor
type Option func(*Monitor)

// WithVerification ativa a conferência de preços antes da deduplicação
func WithVerification(cfg verifier.Config) Option {
	return func(m *Monitor) { m.verify = &cfg }
}

// WithArchive define onde as ofertas novas são arquivadas
func WithArchive(a archive.Archive) Option {
	return func(m *Monitor) { m.archive = a }
}

// WithSender ativa a entrega das ofertas
func WithSender(d Deliverer) Option {
	return func(m *Monitor) { m.sender = d }
}

// WithRand define a fonte aleatória
func WithRand(rng *rand.Rand) Option {
	return func(m *Monitor) { m.rng = rng }
}

// WithSleep substitui a função de espera
func WithSleep(sleep pacing.SleepFunc) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// WithClock substitui o relógio
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger define o logger do monitor
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) {
		m.base = l
		m.log = logger.For(l, "monitor")
	}
}

// New cria uma nova instância do monitor
func New(newBrowser BrowserFactory, store Store, cfg Config, opts ...Option) *Monitor {
	m := &Monitor{
		newBrowser: newBrowser,
		store:      store,
		cfg:        cfg,
		rng:        pacing.NewRand(),
		sleep:      pacing.Sleep,
		now:        time.Now,
		base:       zerolog.Nop(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.cfg.Categories) == 0 {
		m.cfg.Categories = scraper.DefaultCategories()
	}
	return m
}

// Run executa o pipeline uma vez.
// Falhas de categoria são puladas; falhas de navegador, histórico, arquivo e entrega encerram a execução.
func (m *Monitor) Run(ctx context.Context) (report Report, err error) {
	report = Report{RunID: uuid.NewString(), State: StateStart}
	log := m.log.With().Str("run_id", report.RunID).Logger()
	started := m.now()

	defer func() {
		report.Duration = m.now().Sub(started)
		metrics.RunDuration.Observe(report.Duration.Seconds())
		metrics.LastRunTimestamp.Set(float64(m.now().Unix()))
		if err != nil {
			metrics.RunsTotal.WithLabelValues("failure").Inc()
			log.Error().Err(err).Str("state", string(report.State)).Msg("run failed")
			err = fmt.Errorf("%s: %w", report.State, err)
			return
		}
		metrics.RunsTotal.WithLabelValues("success").Inc()
		log.Info().
			Int("extracted", report.Extracted).
			Int("qualified", report.Qualified).
			Int("new", report.New).
			Int("delivered", report.Delivered).
			Dur("duration", report.Duration).
			Msg("run finished")
	}()

	log.Info().Msg("run started")

	report.State = StateFetch
	browser, err := m.newBrowser()
	if err != nil {
		return report, fmt.Errorf("starting browser: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close browser")
		}
	}()

	fragments, err := m.fetch(ctx, browser, &report, log)
	if err != nil {
		return report, err
	}

	report.State = StateExtract
	offers := make([]models.Offer, 0, len(fragments))
	for _, f := range fragments {
		offer, ok := extractor.FromFragment(f, m.cfg.AffiliateTag)
		if !ok {
			continue
		}
		metrics.CandidatesExtractedTotal.WithLabelValues(offer.Category).Inc()
		offers = append(offers, offer)
	}
	report.Extracted = len(offers)

	report.State = StateFilterScore
	scored := scorer.Apply(m.cfg.Filter, offers)
	metrics.FilteredOutTotal.Add(float64(len(offers) - len(scored)))
	for _, o := range scored {
		metrics.ScoreDistribution.Observe(float64(o.Score))
	}
	candidates := scorer.TopPerCategory(scored, m.cfg.MaxPerCategory)
	report.Qualified = len(candidates)
	log.Info().Int("extracted", len(offers)).Int("qualified", len(candidates)).Msg("offers filtered and scored")

	if m.verify != nil && len(candidates) > 0 {
		report.State = StateVerify
		// ofertas já no histórico não consomem o limite de verificações
		pending, err := m.store.FilterNew(ctx, candidates)
		if err != nil {
			return report, fmt.Errorf("filtering sent offers: %w", err)
		}
		report.Duplicates = len(candidates) - len(pending)

		v := verifier.New(browser, *m.verify,
			verifier.WithRand(m.rng), verifier.WithSleep(m.sleep),
			verifier.WithLogger(m.base.With().Str("run_id", report.RunID).Logger()))

		verified, failed, err := v.VerifyBatch(ctx, pending)
		report.VerificationFailed = failed
		metrics.VerificationFailuresTotal.Add(float64(failed))
		if err != nil {
			return report, fmt.Errorf("verifying prices: %w", err)
		}
		candidates = verified
		report.Verified = len(verified)
	}

	report.State = StateDedup
	fresh, err := m.store.FilterNew(ctx, candidates)
	if err != nil {
		return report, fmt.Errorf("filtering sent offers: %w", err)
	}
	report.Duplicates += len(candidates) - len(fresh)
	report.New = len(fresh)
	metrics.DuplicatesSkippedTotal.Add(float64(report.Duplicates))

	if len(fresh) == 0 {
		log.Info().Int("duplicates", report.Duplicates).Msg("no new offers this run")
		report.State = StateEnd
		return report, nil
	}

	report.State = StatePersist
	if m.archive != nil {
		archived, err := m.archive.Save(ctx, fresh)
		if err != nil {
			return report, fmt.Errorf("archiving offers: %w", err)
		}
		report.Archived = archived
		metrics.ArchivedTotal.Add(float64(archived))
	}

	if m.sender == nil {
		log.Info().Int("new", len(fresh)).Msg("delivery disabled, offers archived only")
		report.State = StateEnd
		return report, nil
	}

	report.State = StateDeliver
	sent, deliverErr := m.sender.Deliver(ctx, fresh)
	report.Delivered = len(sent)
	metrics.DeliveredTotal.Add(float64(len(sent)))
	if deliverErr != nil {
		metrics.DeliveryFailuresTotal.Inc()
	}

	if len(sent) > 0 {
		report.State = StateMarkSent
		if err := m.store.MarkAsSent(ctx, sent); err != nil {
			return report, errors.Join(deliverErr, fmt.Errorf("marking offers as sent: %w", err))
		}
		m.updateHistoryGauge(ctx, log)
	}

	if deliverErr != nil {
		report.State = StateDeliver
		return report, fmt.Errorf("delivering offers: %w", deliverErr)
	}

	report.State = StateEnd
	return report, nil
}

// fetch percorre as categorias sorteadas e junta os fragmentos.
// Uma categoria com falha é registrada e pulada.
func (m *Monitor) fetch(ctx context.Context, browser scraper.Browser, report *Report, log zerolog.Logger) ([]models.RawFragment, error) {
	categories := scraper.SelectCategories(m.rng, m.cfg.Categories, m.cfg.CategoriesPerRun)

	var fragments []models.RawFragment
	for i, category := range categories {
		report.Categories = append(report.Categories, category.Name)
		clog := log.With().Str("category", category.Name).Logger()

		found, err := m.fetchCategory(ctx, browser, category)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fragments, ctxErr
		}
		if err != nil {
			report.CategoryFailures++
			metrics.CategoryFailuresTotal.WithLabelValues(errorType(err)).Inc()
			clog.Warn().Err(err).Msg("category skipped")
		} else {
			clog.Info().Int("fragments", len(found)).Msg("category scraped")
			fragments = append(fragments, found...)
		}

		if i < len(categories)-1 {
			delay := pacing.Delay(m.rng, m.cfg.CategoryMinDelay, m.cfg.CategoryMaxDelay)
			if err := m.sleep(ctx, delay); err != nil {
				return fragments, err
			}
		}
	}

	report.Fragments = len(fragments)
	return fragments, nil
}

func (m *Monitor) fetchCategory(ctx context.Context, browser scraper.Browser, category models.Category) ([]models.RawFragment, error) {
	page, err := browser.Navigate(ctx, category.URL)
	if err != nil {
		return nil, err
	}
	if err := browser.ScrollToBottom(ctx, page); err != nil {
		return nil, err
	}
	return browser.ExtractFragments(page, category)
}

func (m *Monitor) updateHistoryGauge(ctx context.Context, log zerolog.Logger) {
	stats, err := m.store.Stats(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("failed to read history stats")
		return
	}
	metrics.HistorySize.Set(float64(stats.Total))
}

func errorType(err error) string {
	var se *scrapeerrors.ScrapeError
	if errors.As(err, &se) {
		return string(se.Type)
	}
	return "other"
}
