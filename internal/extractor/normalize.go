package extractor

import (
	"strings"
	"unicode"
)

// MaxKeyLength é o tamanho máximo (em runas) da chave normalizada
const MaxKeyLength = 150

// NormalizeTitle gera a chave de deduplicação de um título:
// minúsculas, sem pontuação, espaços colapsados e no máximo MaxKeyLength runas.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	key := strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(key)
	if len(runes) > MaxKeyLength {
		key = strings.TrimSpace(string(runes[:MaxKeyLength]))
	}

	return key
}
