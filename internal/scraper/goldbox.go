package scraper

import (
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"

	"bot-ofertas/internal/extractor"
	"bot-ofertas/internal/models"
	scrapeerrors "bot-ofertas/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const goldboxBaseURL = "https://www.amazon.com.br/gp/goldbox?bubble-id=deals-collection-"

var (
	cardSelector     = `[data-testid="product-card"], div[data-asin]`
	titleSelector    = `p[id^="title-"] .a-truncate-full, p[id^="title-"] span`
	priceSelector    = `[data-testid="price-section"] .a-price-whole`
	fractionSelector = `[data-testid="price-section"] .a-price-fraction`
	oldPriceSelector = `[data-a-strike="true"], .a-text-price`
	linkSelector     = `a[data-testid="product-card-link"], a[href*="/dp/"]`
	primeSelector    = `.a-icon-prime, [aria-label*="Prime"]`

	inlinePricePattern = regexp.MustCompile(`R\$\s?(\d{1,3}(?:\.\d{3})*,\d{2})`)

	unavailableTerms = []string{"não disponível", "indisponível", "esgotado", "fora de estoque"}

	availabilitySelectors = []string{
		"#availability .a-color-price",
		"#availability .a-color-state",
		`[data-feature-name="availability"] .a-color-price`,
		".availability-msg .a-color-price",
		"#outOfStock",
	}
	buyButtonSelector     = `#add-to-cart-button, #buy-now-button, input[name="submit.add-to-cart"]`
	productPriceSelectors = []string{
		`.a-price:not([data-a-strike="true"]) .a-offscreen`,
		"#priceblock_dealprice",
		"#priceblock_ourprice",
		".a-price-whole",
	}
	productOldPriceSelectors = []string{
		`.a-price[data-a-strike="true"] .a-offscreen`,
		".basisPrice .a-offscreen",
	}
)

// DefaultCategories retorna as coleções de ofertas da Goldbox
func DefaultCategories() []models.Category {
	items := []struct{ id, name string }{
		{"beauty", "Beleza"},
		{"electronics", "Eletrônicos"},
		{"home", "Casa"},
		{"kitchen", "Cozinha"},
		{"baby", "Bebês"},
		{"pet-products", "Pet Shop"},
		{"video-games", "Games"},
		{"fashion", "Moda"},
		{"eletro", "Eletrodomésticos"},
		{"sports", "Esportes"},
		{"tools", "Ferramentas"},
		{"computers", "Informática"},
	}

	categories := make([]models.Category, 0, len(items))
	for _, it := range items {
		categories = append(categories, models.Category{ID: it.id, Name: it.name, URL: goldboxBaseURL + it.id})
	}
	return categories
}

// SelectCategories sorteia n categorias distintas em ordem aleatória
func SelectCategories(rng *rand.Rand, all []models.Category, n int) []models.Category {
	if n > len(all) {
		n = len(all)
	}
	if n <= 0 {
		return nil
	}

	selected := make([]models.Category, 0, n)
	for _, idx := range rng.Perm(len(all))[:n] {
		selected = append(selected, all[idx])
	}
	return selected
}

// ParseFragments extrai os cards de oferta de uma página da Goldbox
func ParseFragments(page *Page, category models.Category) ([]models.RawFragment, error) {
	cards := page.Doc.Find(cardSelector)
	if cards.Length() == 0 {
		return nil, scrapeerrors.NewExtractionEmpty(category.Name, "no product cards found")
	}

	base, _ := url.Parse(page.URL)

	var fragments []models.RawFragment
	cards.Each(func(_ int, card *goquery.Selection) {
		title := firstText(card, titleSelector)
		href, ok := card.Find(linkSelector).First().Attr("href")
		if title == "" || !ok || href == "" {
			return
		}

		priceText := cardPrice(card)
		if priceText == "" || isUnavailable(priceText) {
			return
		}

		image, _ := card.Find("img").First().Attr("src")

		fragments = append(fragments, models.RawFragment{
			Title:        title,
			PriceText:    priceText,
			OldPriceText: oldPriceText(card),
			Link:         resolve(base, href),
			Prime:        card.Find(primeSelector).Length() > 0,
			ImageURL:     image,
			Category:     category.Name,
		})
	})

	if len(fragments) == 0 {
		return nil, scrapeerrors.NewExtractionEmpty(category.Name, "no usable offers in product cards")
	}
	return fragments, nil
}

// ParseProduct lê preço, preço antigo e disponibilidade da página de um produto
func ParseProduct(page *Page) ProductDetails {
	doc := page.Doc
	details := ProductDetails{}

	for _, sel := range productPriceSelectors {
		if price := extractor.ParsePrice(firstText(doc.Selection, sel)); price != nil {
			details.Price = price
			break
		}
	}
	for _, sel := range productOldPriceSelectors {
		if price := extractor.ParsePrice(firstText(doc.Selection, sel)); price != nil {
			details.OldPrice = price
			break
		}
	}

	details.Available = details.Price != nil && doc.Find(buyButtonSelector).Length() > 0
	for _, sel := range availabilitySelectors {
		if isUnavailable(doc.Find(sel).First().Text()) {
			details.Available = false
			break
		}
	}

	return details
}

func cardPrice(card *goquery.Selection) string {
	// o separador decimal vem grudado na parte inteira ("1.299,")
	whole := strings.TrimRight(strings.TrimSpace(card.Find(priceSelector).First().Text()), ",.")
	if whole != "" {
		if fraction := strings.TrimSpace(card.Find(fractionSelector).First().Text()); fraction != "" {
			return whole + "," + fraction
		}
		return whole
	}

	if m := inlinePricePattern.FindStringSubmatch(card.Text()); len(m) > 1 {
		return m[1]
	}
	return ""
}

func oldPriceText(card *goquery.Selection) string {
	old := card.Find(oldPriceSelector).First()
	if offscreen := strings.TrimSpace(old.Find(".a-offscreen").First().Text()); offscreen != "" {
		return offscreen
	}
	return strings.TrimSpace(old.Text())
}

func firstText(s *goquery.Selection, selector string) string {
	var text string
	s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text = strings.TrimSpace(el.Text())
		return text == ""
	})
	return text
}

func isUnavailable(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range unavailableTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
