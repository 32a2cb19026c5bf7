package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bot-ofertas/internal/models"
)

// FileArchive mantém as ofertas num arquivo JSON
type FileArchive struct {
	path string
}

// NewFileArchive cria um arquivo de ofertas no caminho informado
func NewFileArchive(path string) *FileArchive {
	return &FileArchive{path: path}
}

// Save acrescenta as ofertas com ASIN ainda não arquivado
func (a *FileArchive) Save(_ context.Context, offers []models.Offer) (int, error) {
	existing, err := a.Load()
	if err != nil {
		return 0, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, o := range existing {
		known[o.ProductID] = struct{}{}
	}

	added := 0
	for _, o := range offers {
		if o.ProductID == "" {
			continue
		}
		if _, ok := known[o.ProductID]; ok {
			continue
		}
		known[o.ProductID] = struct{}{}
		existing = append(existing, o)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, a.write(existing)
}

// Load lê todas as ofertas arquivadas; arquivo ausente ou vazio é uma lista vazia
func (a *FileArchive) Load() ([]models.Offer, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		return []models.Offer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading offers archive: %w", err)
	}

	var offers []models.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, fmt.Errorf("decoding offers archive: %w", err)
	}
	return offers, nil
}

// Close não faz nada para arquivos
func (a *FileArchive) Close() error {
	return nil
}

func (a *FileArchive) write(offers []models.Offer) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding offers archive: %w", err)
	}

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing offers archive: %w", err)
	}
	return os.Rename(tmp, a.path)
}
