package sender

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"bot-ofertas/internal/models"

	"github.com/shopspring/decimal"
)

// Template identifica o layout da mensagem
type Template int

const (
	TemplateClassic Template = iota
	TemplateCompact
	TemplateDiscount
	templateCount
)

// EmojiSet é um conjunto de emojis usado numa mensagem
type EmojiSet struct {
	Fire  string
	Money string
	Gift  string
	Cart  string
}

// Variant é a escolha cosmética de uma mensagem
type Variant struct {
	Template Template
	Emojis   EmojiSet
	CTA      string
	Intro    string
}

const maxTitleLength = 70

var (
	emojiSets = []EmojiSet{
		{Fire: "🔥", Money: "💰", Gift: "🎁", Cart: "🛒"},
		{Fire: "⚡", Money: "💵", Gift: "🎉", Cart: "🛍️"},
		{Fire: "💥", Money: "💸", Gift: "🎊", Cart: "🛍️"},
		{Fire: "✨", Money: "💰", Gift: "🎈", Cart: "🛒"},
		{Fire: "🌟", Money: "💲", Gift: "🎁", Cart: "🛍️"},
	}

	ctas = []string{
		"🛍️ <b>COMPRE AQUI:</b>",
		"🔗 <b>LINK DA OFERTA:</b>",
		"👉 <b>APROVEITE AGORA:</b>",
		"🎯 <b>GARANTIR OFERTA:</b>",
		"✨ <b>VER PRODUTO:</b>",
		"💎 <b>CONFIRA AQUI:</b>",
	}

	intros = []string{
		"TOP OFERTA",
		"IMPERDÍVEL",
		"SUPER DESCONTO",
		"OFERTA RELÂMPAGO",
		"PROMOÇÃO",
		"OPORTUNIDADE",
	}

	redundantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*-\s*Edi[cç][aã]o.*`),
		regexp.MustCompile(`(?i)\s*\(Embalagem pode variar\)`),
		regexp.MustCompile(`(?i)\s*Tamanho\s*:\s*\d+.*`),
		regexp.MustCompile(`(?i)\s*Cor\s*:\s*\w+$`),
		regexp.MustCompile(`(?i)\s*,\s*Cor\s*:\s*.*`),
		regexp.MustCompile(`(?i)\s*,\s*Tamanho\s*:\s*.*`),
		regexp.MustCompile(`(?i)\s*\|\s*Estilo\s*:\s*.*`),
	}

	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// ChooseVariant sorteia template, emojis, chamada e introdução
func ChooseVariant(rng *rand.Rand) Variant {
	return Variant{
		Template: Template(rng.IntN(int(templateCount))),
		Emojis:   emojiSets[rng.IntN(len(emojiSets))],
		CTA:      ctas[rng.IntN(len(ctas))],
		Intro:    intros[rng.IntN(len(intros))],
	}
}

// Format monta a mensagem da oferta em HTML do Telegram
func Format(offer models.Offer, v Variant) string {
	title := EscapeHTML(SummarizeTitle(offer.Title))
	price := FormatBRL(offer.PriceValue())
	discount := formatDiscount(offer.DiscountPercent)

	var b strings.Builder

	switch v.Template {
	case TemplateCompact:
		fmt.Fprintf(&b, "<b>%s</b>\n\n", title)
		if offer.OldPrice != nil {
			fmt.Fprintf(&b, "<s>R$ %s</s> ", FormatBRL(*offer.OldPrice))
		}
		fmt.Fprintf(&b, "%s <b>R$ %s</b>", v.Emojis.Money, price)
		if offer.DiscountPercent > 0 {
			fmt.Fprintf(&b, " (%s%% off)", discount)
		}
		b.WriteString("\n")
		if offer.Prime {
			fmt.Fprintf(&b, "Prime %s\n", v.Emojis.Fire)
		}

	case TemplateDiscount:
		fmt.Fprintf(&b, "%s <b>%s%% OFF</b>\n\n", v.Emojis.Gift, discount)
		fmt.Fprintf(&b, "<b>%s</b>\n\n", title)
		if offer.OldPrice != nil {
			fmt.Fprintf(&b, "%s De R$ %s por <b>R$ %s</b>\n", v.Emojis.Money, FormatBRL(*offer.OldPrice), price)
		} else {
			fmt.Fprintf(&b, "%s <b>R$ %s</b>\n", v.Emojis.Money, price)
		}
		if offer.Prime {
			b.WriteString("⚡ Frete grátis Prime\n")
		}

	default:
		fmt.Fprintf(&b, "%s <b>%s</b>\n\n", v.Emojis.Fire, v.Intro)
		fmt.Fprintf(&b, "<b>%s</b>\n\n", title)
		if offer.OldPrice != nil {
			fmt.Fprintf(&b, "De: R$ %s\n", FormatBRL(*offer.OldPrice))
		}
		fmt.Fprintf(&b, "%s <b>Por: R$ %s</b>\n", v.Emojis.Money, price)
		if offer.DiscountPercent > 0 {
			fmt.Fprintf(&b, "%s Desconto: <b>%s%% OFF</b>\n", v.Emojis.Gift, discount)
		}
		if offer.Prime {
			b.WriteString("⚡ Prime disponível\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\n%s", v.CTA, EscapeHTML(offer.Link))
	return b.String()
}

// SummarizeTitle encurta o título: remove palavras repetidas em sequência,
// sufixos redundantes e corta em até 70 caracteres.
func SummarizeTitle(title string) string {
	if idx := strings.Index(title, "  "); idx > 0 {
		title = title[:idx]
	}

	words := strings.Fields(title)
	unique := make([]string, 0, len(words))
	for _, w := range words {
		if len(unique) > 0 && strings.EqualFold(unique[len(unique)-1], w) {
			continue
		}
		unique = append(unique, w)
	}
	result := strings.Join(unique, " ")

	for _, re := range redundantPatterns {
		result = re.ReplaceAllString(result, "")
	}

	runes := []rune(result)
	if len(runes) > maxTitleLength {
		cut := string(runes[:maxTitleLength])
		if idx := strings.LastIndex(cut, " "); idx >= 0 && len([]rune(cut[:idx])) > 40 {
			cut = cut[:idx]
		}
		result = cut
	}

	return strings.TrimSpace(result)
}

// FormatBRL formata um valor no padrão brasileiro (1.299,90)
func FormatBRL(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	whole, cents, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + cents
}

func formatDiscount(d float64) string {
	return decimal.NewFromFloat(d).Round(0).String()
}

// EscapeHTML escapa os caracteres especiais do modo HTML do Telegram
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
