package scraper

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"bot-ofertas/internal/cache"
	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"
	scrapeerrors "bot-ofertas/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout é o limite de cada navegação
	DefaultTimeout = 60 * time.Second
	// DefaultBlockTime é quanto tempo uma URL fica bloqueada após rate limit
	DefaultBlockTime = 30 * time.Minute

	cooldownPrefix = "ofertas:cooldown:"
)

var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	}

	referers = []string{
		"https://www.google.com.br/",
		"https://www.amazon.com.br/",
		"https://www.bing.com/",
	}

	rateLimitStatus = []int{http.StatusTooManyRequests, 430, http.StatusServiceUnavailable}
)

// HTTPBrowser implementa Browser com requisições HTTP simples e goquery.
// Não é seguro para uso concorrente: o pipeline usa uma única sessão.
type HTTPBrowser struct {
	client    *http.Client
	limiter   *rate.Limiter
	rng       *rand.Rand
	cache     cache.CacheService
	timeout   time.Duration
	blockTime time.Duration
	log       zerolog.Logger
}

// Option configura o HTTPBrowser
type Option func(*HTTPBrowser)

// WithHTTPClient substitui o cliente HTTP
func WithHTTPClient(c *http.Client) Option {
	return func(b *HTTPBrowser) { b.client = c }
}

// WithTimeout define o limite de cada navegação
func WithTimeout(d time.Duration) Option {
	return func(b *HTTPBrowser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithRateLimit define quantas navegações por segundo são permitidas
func WithRateLimit(perSecond float64) Option {
	return func(b *HTTPBrowser) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithCooldown define o cache usado para bloquear URLs após rate limit
func WithCooldown(c cache.CacheService, blockTime time.Duration) Option {
	return func(b *HTTPBrowser) {
		b.cache = c
		if blockTime > 0 {
			b.blockTime = blockTime
		}
	}
}

// WithRand define a fonte aleatória dos cabeçalhos
func WithRand(rng *rand.Rand) Option {
	return func(b *HTTPBrowser) { b.rng = rng }
}

// WithLogger define o logger do navegador
func WithLogger(l zerolog.Logger) Option {
	return func(b *HTTPBrowser) { b.log = logger.For(l, "browser") }
}

// NewHTTPBrowser cria um novo navegador HTTP
func NewHTTPBrowser(opts ...Option) *HTTPBrowser {
	b := &HTTPBrowser{
		client:    &http.Client{},
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		cache:     cache.NewMemoryService(),
		timeout:   DefaultTimeout,
		blockTime: DefaultBlockTime,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Navigate carrega a página e a converte para UTF-8
func (b *HTTPBrowser) Navigate(ctx context.Context, target string) (*Page, error) {
	if b.isBlocked(target) {
		return nil, scrapeerrors.NewRateLimit(target, "cooldown active")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, b.navigationError(target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, scrapeerrors.NewNavigation(target, "failed to create request", err)
	}
	b.setHeaders(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, b.navigationError(target, err)
	}
	defer resp.Body.Close()

	if slices.Contains(rateLimitStatus, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		b.block(target)
		return nil, scrapeerrors.NewRateLimit(target, retryAfter)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, scrapeerrors.NewNavigation(target, "unexpected status code: "+strconv.Itoa(resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.navigationError(target, err)
	}

	reader, err := toUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, scrapeerrors.NewParsing(target, "failed to decode body", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, scrapeerrors.NewParsing(target, "failed to parse html", err)
	}

	b.log.Debug().Str("url", target).Int("bytes", len(body)).Msg("page loaded")
	return &Page{URL: target, Doc: doc}, nil
}

// ScrollToBottom não faz nada: a resposta HTTP já contém a página inteira
func (b *HTTPBrowser) ScrollToBottom(ctx context.Context, _ *Page) error {
	return ctx.Err()
}

// ExtractFragments extrai os cards de oferta da página
func (b *HTTPBrowser) ExtractFragments(page *Page, category models.Category) ([]models.RawFragment, error) {
	fragments, err := ParseFragments(page, category)
	if err != nil {
		return nil, err
	}
	b.log.Info().Str("category", category.Name).Int("fragments", len(fragments)).Msg("fragments extracted")
	return fragments, nil
}

// ExtractProduct lê os dados da página canônica do produto
func (b *HTTPBrowser) ExtractProduct(page *Page) (ProductDetails, error) {
	return ParseProduct(page), nil
}

// Close libera os recursos do cliente HTTP
func (b *HTTPBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *HTTPBrowser) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[b.rng.IntN(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[b.rng.IntN(len(referers))])
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (b *HTTPBrowser) navigationError(target string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return scrapeerrors.NewNavigationTimeout(target, b.timeout, err)
	}
	return scrapeerrors.NewNavigation(target, "request failed", err)
}

func (b *HTTPBrowser) isBlocked(target string) bool {
	_, err := b.cache.Get(cooldownPrefix + cacheKey(target))
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		b.log.Warn().Err(err).Msg("failed to read cooldown cache")
	}
	return false
}

func (b *HTTPBrowser) block(target string) {
	value := []byte(time.Now().Add(b.blockTime).Format(time.RFC3339))
	if err := b.cache.Set(cooldownPrefix+cacheKey(target), value, b.blockTime); err != nil {
		b.log.Warn().Err(err).Str("url", target).Msg("failed to store cooldown")
		return
	}
	b.log.Warn().Str("url", target).Dur("block_time", b.blockTime).Msg("rate limited, url blocked")
}

// cacheKey gera uma chave curta e sem espaços, como o memcache exige
func cacheKey(target string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(target)))
}

func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, err
	}
	return &buf, nil
}
