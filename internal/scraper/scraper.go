package scraper

import (
	"context"

	"bot-ofertas/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Page é o estado de uma página já carregada
type Page struct {
	URL string
	Doc *goquery.Document
}

// ProductDetails são os dados lidos da página canônica de um produto
type ProductDetails struct {
	Price     *float64
	OldPrice  *float64
	Available bool
}

// Browser define a capacidade de navegação usada pelo pipeline.
// Erros de navegação e extração são *errors.ScrapeError.
type Browser interface {
	Navigate(ctx context.Context, url string) (*Page, error)
	ScrollToBottom(ctx context.Context, page *Page) error
	ExtractFragments(page *Page, category models.Category) ([]models.RawFragment, error)
	ExtractProduct(page *Page) (ProductDetails, error)
	Close() error
}
