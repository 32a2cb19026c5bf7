package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bot-ofertas/internal/models"

	"github.com/shopspring/decimal"
)

var (
	priceCleaner   = regexp.MustCompile(`[^0-9.,]`)
	dotDecimal     = regexp.MustCompile(`^\d*\.\d{1,2}$`)
	productIDPaths = []*regexp.Regexp{
		regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
	}
)

// ErrMissingAffiliateData é retornado quando falta ASIN ou tag para montar o link
var ErrMissingAffiliateData = errors.New("asin and affiliate tag are required")

// ParsePrice converte um texto de preço ("R$ 1.299,90" ou "1,299.90") em número.
// Retorna nil para texto vazio, zero ou impossível de interpretar.
func ParsePrice(text string) *float64 {
	cleaned := priceCleaner.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}

	// O último separador é o decimal quando há vírgula e ponto
	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	thousands := strings.NewReplacer(".", "", ",", "")
	switch {
	case lastComma >= 0 && lastDot > lastComma:
		cleaned = thousands.Replace(cleaned[:lastDot]) + "." + cleaned[lastDot+1:]
	case lastComma >= 0:
		cleaned = thousands.Replace(cleaned[:lastComma]) + "." + strings.ReplaceAll(cleaned[lastComma+1:], ".", "")
	case !dotDecimal.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil || !value.IsPositive() {
		return nil
	}

	price := value.Round(2).InexactFloat64()
	return &price
}

// ExtractProductID extrai o ASIN de uma URL da Amazon
func ExtractProductID(url string) string {
	for _, re := range productIDPaths {
		if m := re.FindStringSubmatch(url); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// Round2 arredonda para duas casas decimais
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// CalculateDiscount calcula o percentual de desconto real entre o preço antigo e o atual
func CalculateDiscount(oldPrice, currentPrice float64) float64 {
	if oldPrice <= 0 || currentPrice <= 0 || oldPrice <= currentPrice {
		return 0
	}
	return Round2((oldPrice - currentPrice) / oldPrice * 100)
}

// BuildAffiliateLink gera o link limpo de afiliado da Amazon Brasil
func BuildAffiliateLink(productID, tag string) (string, error) {
	if productID == "" || tag == "" {
		return "", ErrMissingAffiliateData
	}
	return fmt.Sprintf("https://www.amazon.com.br/dp/%s/?tag=%s", productID, tag), nil
}

// FromFragment transforma um fragmento bruto numa oferta tipada.
// Fragmentos cujo título não gera chave de deduplicação (vazio ou só símbolos) são descartados.
func FromFragment(f models.RawFragment, affiliateTag string) (models.Offer, bool) {
	title := strings.TrimSpace(f.Title)
	if NormalizeTitle(title) == "" {
		return models.Offer{}, false
	}

	offer := models.Offer{
		Title:        title,
		Price:        ParsePrice(f.PriceText),
		OldPrice:     ParsePrice(f.OldPriceText),
		ProductID:    ExtractProductID(f.Link),
		Link:         f.Link,
		OriginalLink: f.Link,
		Prime:        f.Prime,
		Category:     f.Category,
		ImageURL:     strings.TrimSpace(f.ImageURL),
	}
	offer.DiscountPercent = CalculateDiscount(offer.OldPriceValue(), offer.PriceValue())

	if link, err := BuildAffiliateLink(offer.ProductID, affiliateTag); err == nil {
		offer.Link = link
	}

	return offer, true
}
