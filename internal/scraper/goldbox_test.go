package scraper

import (
	"math/rand/v2"
	"strings"
	"testing"

	"bot-ofertas/internal/models"
	scrapeerrors "bot-ofertas/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldboxHTML = `<html><body>
<div data-testid="product-card">
  <img src="https://m.media-amazon.com/images/I/fone.jpg">
  <p id="title-B0ABCDEF12"><span class="a-truncate-full">Fone de Ouvido JBL Tune 510BT</span></p>
  <div data-testid="price-section"><span class="a-price-whole">1.299,</span><span class="a-price-fraction">90</span></div>
  <span class="a-price a-text-price" data-a-strike="true"><span class="a-offscreen">R$ 1.599,90</span><span aria-hidden="true">R$ 1.599,90</span></span>
  <i class="a-icon-prime"></i>
  <a data-testid="product-card-link" href="/Fone-JBL/dp/B0ABCDEF12?ref=deals">ver</a>
</div>
<div data-asin="B0XYZ98765">
  <p id="title-B0XYZ98765"><span>Garrafa Térmica 500ml</span></p>
  <span>Oferta R$ 89,90 hoje</span>
  <a href="https://www.amazon.com.br/Garrafa/dp/B0XYZ98765">ver</a>
</div>
<div data-testid="product-card">
  <p id="title-B0NOPRICE0"><span>Produto esgotado</span></p>
  <div data-testid="price-section"><span class="a-price-whole">Preço indisponível</span></div>
  <a href="/dp/B0NOPRICE0">ver</a>
</div>
<div data-testid="product-card">
  <div data-testid="price-section"><span class="a-price-whole">10,</span></div>
  <a href="/dp/B0NOTITLE0">ver</a>
</div>
</body></html>`

const productHTML = `<html><body>
<span class="a-price" data-a-strike="true"><span class="a-offscreen">R$ 100,00</span></span>
<span class="a-price"><span class="a-offscreen">R$ 70,40</span></span>
<div id="availability"><span class="a-color-success">Em estoque</span></div>
<input id="add-to-cart-button" type="submit">
</body></html>`

func pageFrom(t *testing.T, url, html string) *Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return &Page{URL: url, Doc: doc}
}

func TestDefaultCategories(t *testing.T) {
	categories := DefaultCategories()
	require.Len(t, categories, 12)
	assert.Equal(t, "beauty", categories[0].ID)
	assert.Equal(t, "Beleza", categories[0].Name)
	assert.Equal(t, "https://www.amazon.com.br/gp/goldbox?bubble-id=deals-collection-beauty", categories[0].URL)
}

func TestSelectCategories(t *testing.T) {
	all := DefaultCategories()
	rng := rand.New(rand.NewPCG(1, 2))

	selected := SelectCategories(rng, all, 3)
	require.Len(t, selected, 3)

	seen := map[string]bool{}
	for _, c := range selected {
		assert.False(t, seen[c.ID], "category %s selected twice", c.ID)
		seen[c.ID] = true
	}

	assert.Len(t, SelectCategories(rng, all, 50), len(all))
	assert.Nil(t, SelectCategories(rng, all, 0))

	// Mesma semente, mesma seleção
	again := SelectCategories(rand.New(rand.NewPCG(1, 2)), all, 3)
	assert.Equal(t, selected, again)
}

func TestSelectCategoriesDistribution(t *testing.T) {
	all := DefaultCategories()
	rng := rand.New(rand.NewPCG(7, 7))

	counts := map[string]int{}
	for i := 0; i < 1200; i++ {
		counts[SelectCategories(rng, all, 1)[0].ID]++
	}

	require.Len(t, counts, len(all))
	for id, n := range counts {
		assert.InDelta(t, 100, n, 50, "category %s", id)
	}
}

func TestParseFragments(t *testing.T) {
	category := models.Category{ID: "electronics", Name: "Eletrônicos"}
	page := pageFrom(t, "https://www.amazon.com.br/gp/goldbox?bubble-id=deals-collection-electronics", goldboxHTML)

	fragments, err := ParseFragments(page, category)
	require.NoError(t, err)
	require.Len(t, fragments, 2)

	first := fragments[0]
	assert.Equal(t, "Fone de Ouvido JBL Tune 510BT", first.Title)
	assert.Equal(t, "1.299,90", first.PriceText)
	assert.Equal(t, "R$ 1.599,90", first.OldPriceText)
	assert.Equal(t, "https://www.amazon.com.br/Fone-JBL/dp/B0ABCDEF12?ref=deals", first.Link)
	assert.True(t, first.Prime)
	assert.Equal(t, "https://m.media-amazon.com/images/I/fone.jpg", first.ImageURL)
	assert.Equal(t, "Eletrônicos", first.Category)

	second := fragments[1]
	assert.Equal(t, "Garrafa Térmica 500ml", second.Title)
	assert.Equal(t, "89,90", second.PriceText)
	assert.Empty(t, second.OldPriceText)
	assert.False(t, second.Prime)
}

func TestParseFragmentsEmpty(t *testing.T) {
	page := pageFrom(t, "https://www.amazon.com.br/gp/goldbox", "<html><body><p>nada</p></body></html>")

	_, err := ParseFragments(page, models.Category{Name: "Casa"})
	require.Error(t, err)
	assert.ErrorIs(t, err, scrapeerrors.ErrExtractionEmpty)
}

func TestParseProduct(t *testing.T) {
	details := ParseProduct(pageFrom(t, "https://www.amazon.com.br/dp/B0ABCDEF12", productHTML))

	require.NotNil(t, details.Price)
	assert.Equal(t, 70.40, *details.Price)
	require.NotNil(t, details.OldPrice)
	assert.Equal(t, 100.0, *details.OldPrice)
	assert.True(t, details.Available)
}

func TestParseProductUnavailable(t *testing.T) {
	outOfStock := strings.Replace(productHTML,
		`<span class="a-color-success">Em estoque</span>`,
		`<span class="a-color-price">Não disponível.</span>`, 1)
	details := ParseProduct(pageFrom(t, "https://www.amazon.com.br/dp/B0ABCDEF12", outOfStock))
	assert.False(t, details.Available)

	noButton := strings.Replace(productHTML, `<input id="add-to-cart-button" type="submit">`, "", 1)
	details = ParseProduct(pageFrom(t, "https://www.amazon.com.br/dp/B0ABCDEF12", noButton))
	assert.False(t, details.Available)
	assert.NotNil(t, details.Price)

	details = ParseProduct(pageFrom(t, "https://www.amazon.com.br/dp/B0ABCDEF12", "<html><body></body></html>"))
	assert.Nil(t, details.Price)
	assert.False(t, details.Available)
}
