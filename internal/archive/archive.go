package archive

import (
	"context"

	"bot-ofertas/internal/models"
)

// Archive guarda as ofertas novas de cada execução.
// Ofertas sem ASIN ou já arquivadas são ignoradas.
type Archive interface {
	Save(ctx context.Context, offers []models.Offer) (int, error)
	Close() error
}
