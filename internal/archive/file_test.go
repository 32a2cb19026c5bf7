package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bot-ofertas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOffer(asin, title string) models.Offer {
	price := 99.9
	return models.Offer{Title: title, ProductID: asin, Price: &price, Link: "https://www.amazon.com.br/dp/" + asin}
}

func TestFileArchiveSave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "offers.json")
	archive := NewFileArchive(path)

	added, err := archive.Save(ctx, []models.Offer{
		testOffer("B000000001", "Um"),
		testOffer("", "Sem ASIN"),
		testOffer("B000000002", "Dois"),
		testOffer("B000000001", "Um repetido"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = archive.Save(ctx, []models.Offer{
		testOffer("B000000002", "Dois de novo"),
		testOffer("B000000003", "Três"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	offers, err := archive.Load()
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, "Um", offers[0].Title)
	assert.Equal(t, "Três", offers[2].Title)
	require.NotNil(t, offers[0].Price)
	assert.Equal(t, 99.9, *offers[0].Price)
}

func TestFileArchiveLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()

	offers, err := NewFileArchive(filepath.Join(dir, "missing.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, offers)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	offers, err = NewFileArchive(empty).Load()
	require.NoError(t, err)
	assert.Empty(t, offers)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o644))
	_, err = NewFileArchive(broken).Save(context.Background(), []models.Offer{testOffer("B000000001", "x")})
	assert.Error(t, err)
}

func TestFileArchiveSaveNothingDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.json")
	added, err := NewFileArchive(path).Save(context.Background(), []models.Offer{testOffer("", "sem asin")})
	require.NoError(t, err)
	assert.Zero(t, added)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
