package cmd

import (
	"bytes"
	"testing"
	"time"

	"bot-ofertas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	entries := []models.HistoryEntry{
		{Title: "Fone Bluetooth JBL", Price: 1299.9, Discount: 30, Category: "Eletrônicos", SentAt: time.Now()},
		{Title: "Mouse", Price: 70, Discount: 45.4, Category: "Informática", SentAt: time.Now()},
	}

	require.NoError(t, printHistoryTable(&buf, entries))

	out := buf.String()
	assert.Contains(t, out, "ENVIADA EM")
	assert.Contains(t, out, "R$ 1.299,90")
	assert.Contains(t, out, "45%")
	assert.Contains(t, out, "Fone Bluetooth JBL")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	stats := models.HistoryStats{Total: 7, Categories: 3, AvgDiscount: 41.3}

	require.NoError(t, printStats(&buf, stats, 100))

	out := buf.String()
	assert.Contains(t, out, "7/100")
	assert.Contains(t, out, "41.3%")
	assert.Contains(t, out, "Mais antiga:")
	assert.Contains(t, out, "-")
}

func TestHistoryClearRequiresConfirmation(t *testing.T) {
	cmd := historyClearCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
