package sender

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"bot-ofertas/internal/models"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 {
	return &v
}

func TestSummarizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "repeated words", input: "Fone Fone de Ouvido Bluetooth", want: "Fone de Ouvido Bluetooth"},
		{name: "packaging suffix", input: "Sabonete Líquido 250ml (Embalagem pode variar)", want: "Sabonete Líquido 250ml"},
		{name: "size suffix", input: "Camiseta Básica Algodão, Tamanho: G, Cor: Preto", want: "Camiseta Básica Algodão"},
		{name: "style suffix", input: "Tênis Corrida | Estilo: Esportivo", want: "Tênis Corrida"},
		{name: "edition suffix", input: "Jogo de Tabuleiro - Edição Especial", want: "Jogo de Tabuleiro"},
		{name: "double space cut", input: "Cafeteira Elétrica  Preta 110V", want: "Cafeteira Elétrica"},
		{name: "short title untouched", input: "Kindle 11ª Geração", want: "Kindle 11ª Geração"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeTitle(tt.input))
		})
	}
}

func TestSummarizeTitleCutsAtWordBoundary(t *testing.T) {
	long := "Smartphone Samsung Galaxy A15 128GB 4GB RAM Câmera Tripla Tela Super AMOLED Azul Escuro"
	got := SummarizeTitle(long)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), 70)
	assert.True(t, strings.HasPrefix(long, got))
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasPrefix(long[len(got):], " "), "cut should happen at a word boundary")
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "70,00", FormatBRL(70))
	assert.Equal(t, "1.299,90", FormatBRL(1299.9))
	assert.Equal(t, "1.234.567,89", FormatBRL(1234567.89))
	assert.Equal(t, "0,99", FormatBRL(0.99))
	assert.Equal(t, "999,00", FormatBRL(999))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "Fone &lt;JBL&gt; &amp; Cia", EscapeHTML("Fone <JBL> & Cia"))
	// já escapado não é tratado como entidade
	assert.Equal(t, "&amp;amp;", EscapeHTML("&amp;"))
	assert.Equal(t, "sem marcação", EscapeHTML("sem marcação"))
}

func TestFormatTemplates(t *testing.T) {
	offer := models.Offer{
		Title:           "Fone <JBL> & Cia",
		Price:           fptr(70),
		OldPrice:        fptr(100),
		DiscountPercent: 30,
		Prime:           true,
		Link:            "https://www.amazon.com.br/dp/B0ABCDEF12/?tag=loja-20",
	}
	variant := Variant{Emojis: emojiSets[0], CTA: ctas[0], Intro: "TOP OFERTA"}

	variant.Template = TemplateClassic
	classic := Format(offer, variant)
	assert.Contains(t, classic, "🔥 <b>TOP OFERTA</b>")
	assert.Contains(t, classic, "<b>Fone &lt;JBL&gt; &amp; Cia</b>")
	assert.Contains(t, classic, "De: R$ 100,00")
	assert.Contains(t, classic, "<b>Por: R$ 70,00</b>")
	assert.Contains(t, classic, "<b>30% OFF</b>")
	assert.Contains(t, classic, "Prime disponível")
	assert.True(t, strings.HasSuffix(classic, "🛍️ <b>COMPRE AQUI:</b>\n"+offer.Link))

	variant.Template = TemplateCompact
	compact := Format(offer, variant)
	assert.Contains(t, compact, "<s>R$ 100,00</s>")
	assert.Contains(t, compact, "(30% off)")

	variant.Template = TemplateDiscount
	discount := Format(offer, variant)
	assert.True(t, strings.HasPrefix(discount, "🎁 <b>30% OFF</b>"))
	assert.Contains(t, discount, "De R$ 100,00 por <b>R$ 70,00</b>")
	assert.Contains(t, discount, "Frete grátis Prime")

	offer.OldPrice = nil
	offer.Prime = false
	discount = Format(offer, variant)
	assert.Contains(t, discount, "💰 <b>R$ 70,00</b>")
	assert.NotContains(t, discount, "Prime")
}

func TestChooseVariantCoversAllOptions(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))

	templates := map[Template]int{}
	intros := map[string]int{}
	for i := 0; i < 3000; i++ {
		v := ChooseVariant(rng)
		templates[v.Template]++
		intros[v.Intro]++
		assert.Contains(t, ctas, v.CTA)
		assert.Contains(t, emojiSets, v.Emojis)
	}

	assert.Len(t, templates, int(templateCount))
	for tmpl, n := range templates {
		assert.InDelta(t, 1000, n, 150, "template %d", tmpl)
	}
	assert.Len(t, intros, 6)
}
