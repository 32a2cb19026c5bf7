package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"
	"bot-ofertas/internal/sender"
)

// tabWriter envolve o tabwriter guardando o primeiro erro de escrita
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printStats(w io.Writer, stats models.HistoryStats, capacity int) error {
	tw := newTabWriter(w)
	tw.writef("Ofertas guardadas:\t%d/%d\n", stats.Total, capacity)
	tw.writef("Categorias:\t%d\n", stats.Categories)
	tw.writef("Desconto médio:\t%.1f%%\n", stats.AvgDiscount)
	tw.writef("Mais antiga:\t%s\n", formatTime(stats.Oldest))
	tw.writef("Mais recente:\t%s\n", formatTime(stats.Newest))
	return tw.finish()
}

func printHistoryTable(w io.Writer, entries []models.HistoryEntry) error {
	tw := newTabWriter(w)
	tw.writef("ENVIADA EM\tPREÇO\tDESCONTO\tCATEGORIA\tTÍTULO\n")
	for _, e := range entries {
		tw.writef("%s\tR$ %s\t%.0f%%\t%s\t%s\n",
			formatTime(e.SentAt),
			sender.FormatBRL(e.Price),
			e.Discount,
			e.Category,
			logger.Truncate(e.Title, 60),
		)
	}
	return tw.finish()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}
