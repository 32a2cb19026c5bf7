package extractor

import (
	"testing"

	"bot-ofertas/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		isNil bool
	}{
		{name: "brl with thousands", input: "R$ 1.299,90", want: 1299.90},
		{name: "brl simple", input: "R$ 70,00", want: 70},
		{name: "whole and fraction joined", input: "89,9", want: 89.9},
		{name: "dot decimal", input: "70.40", want: 70.40},
		{name: "dot thousands", input: "1.299", want: 1299},
		{name: "comma thousands dot decimal", input: "1,299.90", want: 1299.90},
		{name: "us millions", input: "US$ 1,234,567.89", want: 1234567.89},
		{name: "brl millions", input: "R$ 1.234.567,89", want: 1234567.89},
		{name: "integer", input: "R$ 45", want: 45},
		{name: "surrounding text", input: "Por apenas R$ 19,99 à vista", want: 19.99},
		{name: "empty", input: "", isNil: true},
		{name: "no digits", input: "Preço indisponível", isNil: true},
		{name: "zero", input: "R$ 0,00", isNil: true},
		{name: "only separator", input: ",", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.001)
		})
	}
}

func TestExtractProductID(t *testing.T) {
	assert.Equal(t, "B0ABCDEF12", ExtractProductID("https://www.amazon.com.br/Produto/dp/B0ABCDEF12/ref=sr_1"))
	assert.Equal(t, "B012345678", ExtractProductID("https://www.amazon.com.br/gp/product/B012345678?th=1"))
	assert.Equal(t, "", ExtractProductID("https://www.amazon.com.br/gp/goldbox"))
	assert.Equal(t, "", ExtractProductID("https://www.amazon.com.br/dp/b0abcdef12"))
	assert.Equal(t, "", ExtractProductID(""))
}

func TestCalculateDiscount(t *testing.T) {
	assert.Equal(t, 30.0, CalculateDiscount(100, 70))
	assert.Equal(t, 33.33, CalculateDiscount(150, 100))
	assert.Equal(t, 0.0, CalculateDiscount(70, 100))
	assert.Equal(t, 0.0, CalculateDiscount(100, 100))
	assert.Equal(t, 0.0, CalculateDiscount(0, 50))
	assert.Equal(t, 0.0, CalculateDiscount(100, 0))
	assert.Equal(t, 0.0, CalculateDiscount(-10, 5))
}

func TestCalculateDiscountProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("discount is zero when price does not drop", prop.ForAll(
		func(oldCents, priceCents int) bool {
			old, price := float64(oldCents)/100, float64(priceCents)/100
			if price < old && old > 0 && price > 0 {
				return true
			}
			return CalculateDiscount(old, price) == 0
		},
		gen.IntRange(-10000, 500000),
		gen.IntRange(-10000, 500000),
	))

	properties.Property("discount matches the rounded formula and stays within (0,100]", prop.ForAll(
		func(oldCents, dropCents int) bool {
			if dropCents >= oldCents {
				return true
			}
			old := float64(oldCents) / 100
			price := float64(oldCents-dropCents) / 100
			got := CalculateDiscount(old, price)
			return got > 0 && got <= 100 && got == Round2((old-price)/old*100)
		},
		gen.IntRange(100, 500000),
		gen.IntRange(1, 499999),
	))

	properties.TestingRun(t)
}

func TestBuildAffiliateLink(t *testing.T) {
	link, err := BuildAffiliateLink("B0ABCDEF12", "loja-20")
	require.NoError(t, err)
	assert.Equal(t, "https://www.amazon.com.br/dp/B0ABCDEF12/?tag=loja-20", link)

	_, err = BuildAffiliateLink("", "loja-20")
	assert.ErrorIs(t, err, ErrMissingAffiliateData)

	_, err = BuildAffiliateLink("B0ABCDEF12", "")
	assert.ErrorIs(t, err, ErrMissingAffiliateData)
}

func TestFromFragment(t *testing.T) {
	fragment := models.RawFragment{
		Title:        "  Fone Bluetooth XYZ  ",
		PriceText:    "70,00",
		OldPriceText: "R$ 100,00",
		Link:         "https://www.amazon.com.br/fone/dp/B0ABCDEF12?ref=deals",
		Prime:        true,
		ImageURL:     "https://m.media-amazon.com/images/I/x.jpg",
		Category:     "Eletrônicos",
	}

	offer, ok := FromFragment(fragment, "loja-20")
	require.True(t, ok)
	assert.Equal(t, "Fone Bluetooth XYZ", offer.Title)
	require.NotNil(t, offer.Price)
	assert.Equal(t, 70.0, *offer.Price)
	require.NotNil(t, offer.OldPrice)
	assert.Equal(t, 100.0, *offer.OldPrice)
	assert.Equal(t, 30.0, offer.DiscountPercent)
	assert.Equal(t, "B0ABCDEF12", offer.ProductID)
	assert.Equal(t, "https://www.amazon.com.br/dp/B0ABCDEF12/?tag=loja-20", offer.Link)
	assert.Equal(t, fragment.Link, offer.OriginalLink)
	assert.Equal(t, "Eletrônicos", offer.Category)
	assert.True(t, offer.Prime)
}

func TestFromFragmentDegradesGracefully(t *testing.T) {
	for _, title := range []string{"   ", "★ — ★", "---", "!!! ???"} {
		_, ok := FromFragment(models.RawFragment{Title: title, PriceText: "70,00", OldPriceText: "100,00"}, "tag")
		assert.False(t, ok, "title %q", title)
	}

	offer, ok := FromFragment(models.RawFragment{
		Title:     "Sem preço",
		PriceText: "indisponível",
		Link:      "https://www.amazon.com.br/deal/123",
	}, "tag")
	require.True(t, ok)
	assert.Nil(t, offer.Price)
	assert.Equal(t, 0.0, offer.DiscountPercent)
	assert.Equal(t, "", offer.ProductID)
	assert.Equal(t, offer.OriginalLink, offer.Link)
}
