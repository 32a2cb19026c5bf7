package scorer

import (
	"math"
	"sort"
	"strings"

	"bot-ofertas/internal/models"
)

// Config define os critérios de filtro e a nota mínima
type Config struct {
	MinPrice        float64
	MaxPrice        float64
	MinDiscount     float64
	RequirePrime    bool
	BlockedKeywords []string
	MinScore        int
}

// Passes verifica se uma oferta atende a todos os filtros.
// Ofertas sem preço nunca passam.
func (c Config) Passes(offer models.Offer) bool {
	if offer.Price == nil {
		return false
	}

	price := *offer.Price
	if price < c.MinPrice || price > c.MaxPrice {
		return false
	}

	if offer.DiscountPercent < c.MinDiscount {
		return false
	}

	if c.RequirePrime && !offer.Prime {
		return false
	}

	return !c.isBlocked(offer.Title)
}

func (c Config) isBlocked(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range c.BlockedKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Score calcula a nota da oferta (0 a 100) a partir de desconto, Prime e faixa de preço
func Score(discount float64, prime bool, price float64) int {
	var total float64

	switch {
	case discount >= 50:
		total += 50
	case discount >= 40:
		total += 40
	case discount >= 30:
		total += 30
	default:
		total += discount * 0.6
	}

	if prime {
		total += 20
	}

	switch {
	case price >= 50 && price <= 500:
		total += 30
	case price >= 30 && price <= 800:
		total += 20
	default:
		total += 10
	}

	score := int(math.Round(total))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Apply filtra, pontua e ordena as ofertas por nota decrescente.
// Empates mantêm a ordem de extração.
func Apply(cfg Config, offers []models.Offer) []models.Offer {
	result := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		if !cfg.Passes(offer) {
			continue
		}

		offer.Score = Score(offer.DiscountPercent, offer.Prime, *offer.Price)
		if offer.Score < cfg.MinScore {
			continue
		}
		result = append(result, offer)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	return result
}

// TopPerCategory mantém apenas as n primeiras ofertas de cada categoria, preservando a ordem
func TopPerCategory(offers []models.Offer, n int) []models.Offer {
	if n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	result := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		if counts[offer.Category] >= n {
			continue
		}
		counts[offer.Category]++
		result = append(result, offer)
	}
	return result
}
