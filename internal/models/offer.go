package models

import "time"

// RawFragment é a saída bruta do scraping de um card de oferta
type RawFragment struct {
	Title        string
	PriceText    string
	OldPriceText string
	Link         string
	Prime        bool
	ImageURL     string
	Category     string
}

// Offer representa uma oferta normalizada e pontuada
type Offer struct {
	Title           string   `json:"title"`
	Price           *float64 `json:"price"`
	OldPrice        *float64 `json:"old_price"`
	DiscountPercent float64  `json:"discount"`
	ProductID       string   `json:"asin,omitempty"`
	Link            string   `json:"link"`
	OriginalLink    string   `json:"original_link"`
	Prime           bool     `json:"prime"`
	Category        string   `json:"category"`
	ImageURL        string   `json:"image_url,omitempty"`
	Score           int      `json:"score"`
}

// PriceValue retorna o preço atual ou 0 quando ausente
func (o Offer) PriceValue() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

// OldPriceValue retorna o preço antigo ou 0 quando ausente
func (o Offer) OldPriceValue() float64 {
	if o.OldPrice == nil {
		return 0
	}
	return *o.OldPrice
}

// HistoryEntry é o registro persistido de uma oferta já enviada
type HistoryEntry struct {
	Key      string
	Title    string
	Price    float64
	Discount float64
	Category string
	SentAt   time.Time
}

// HistoryStats agrega o conteúdo atual do histórico
type HistoryStats struct {
	Total       int
	Categories  int
	AvgDiscount float64
	Oldest      time.Time
	Newest      time.Time
}

// Category é uma coleção de ofertas da Goldbox
type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}
