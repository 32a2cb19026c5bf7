package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bot-ofertas/internal/extractor"
	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	// DefaultCapacity é quantas ofertas enviadas ficam no histórico
	DefaultCapacity = 100

	table           = "sent_offers"
	maxStoredTitle  = 200
	defaultCategory = "Sem categoria"
)

// ErrNotInitialized é retornado quando o banco é usado antes de Initialize ou depois de Close
var ErrNotInitialized = errors.New("history store not initialized")

// DB é o histórico de ofertas enviadas, identificado pelo título normalizado
type DB struct {
	path     string
	conn     *sql.DB
	capacity int
	now      func() time.Time
	log      zerolog.Logger
}

// Option configura o DB
type Option func(*DB)

// WithCapacity define a capacidade do histórico
func WithCapacity(n int) Option {
	return func(db *DB) {
		if n > 0 {
			db.capacity = n
		}
	}
}

// WithClock substitui o relógio usado nos registros
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// WithLogger define o logger do banco
func WithLogger(l zerolog.Logger) Option {
	return func(db *DB) {
		db.log = logger.For(l, "history")
	}
}

// New cria uma nova instância do banco de dados (ainda fechada)
func New(dbPath string, opts ...Option) *DB {
	db := &DB{
		path:     dbPath,
		capacity: DefaultCapacity,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open cria e inicializa o banco em um passo
func Open(ctx context.Context, dbPath string, opts ...Option) (*DB, error) {
	db := New(dbPath, opts...)
	if err := db.Initialize(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Initialize abre (ou cria) o arquivo e aplica as migrações. Chamadas repetidas não fazem nada.
func (db *DB) Initialize(ctx context.Context) error {
	if db.conn != nil {
		return nil
	}

	if dir := filepath.Dir(db.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", db.path+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	// SQLite aceita um único escritor
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("opening history store: %w", err)
	}

	if err := RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return err
	}

	db.conn = conn
	db.log.Info().Str("path", db.path).Int("capacity", db.capacity).Msg("history store initialized")
	return nil
}

// Close fecha a conexão com o banco de dados; seguro mesmo sem Initialize
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// Capacity retorna o limite de entradas do histórico
func (db *DB) Capacity() int {
	return db.capacity
}

// WasRecentlySent informa se o título já está no histórico
func (db *DB) WasRecentlySent(ctx context.Context, title string) (bool, error) {
	if db.conn == nil {
		return false, ErrNotInitialized
	}

	key := extractor.NormalizeTitle(title)
	if key == "" {
		return false, nil
	}

	query, args, err := sq.Select("1").From(table).Where(sq.Eq{"title_key": key}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking history: %w", err)
	}
	return true, nil
}

// FilterNew remove ofertas sem título, já enviadas ou repetidas no mesmo lote, mantendo a ordem
func (db *DB) FilterNew(ctx context.Context, offers []models.Offer) ([]models.Offer, error) {
	if db.conn == nil {
		return nil, ErrNotInitialized
	}

	seen := make(map[string]struct{}, len(offers))
	fresh := make([]models.Offer, 0, len(offers))

	for _, offer := range offers {
		if strings.TrimSpace(offer.Title) == "" {
			continue
		}

		key := extractor.NormalizeTitle(offer.Title)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		sent, err := db.WasRecentlySent(ctx, offer.Title)
		if err != nil {
			return nil, err
		}
		if sent {
			db.log.Debug().Str("title", logger.Truncate(offer.Title, 60)).Msg("duplicate skipped")
			continue
		}
		fresh = append(fresh, offer)
	}

	db.log.Info().Int("new", len(fresh)).Int("total", len(offers)).Msg("offers checked against history")
	return fresh, nil
}

// MarkAsSent registra as ofertas enviadas e descarta as mais antigas além da capacidade
func (db *DB) MarkAsSent(ctx context.Context, offers []models.Offer) error {
	if db.conn == nil {
		return ErrNotInitialized
	}
	if len(offers) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sentAt := db.now().UnixNano()
	inserted := 0

	for _, offer := range offers {
		key := extractor.NormalizeTitle(offer.Title)
		if key == "" {
			continue
		}

		category := offer.Category
		if category == "" {
			category = defaultCategory
		}

		query, args, err := sq.Insert(table).
			Options("OR IGNORE").
			Columns("title_key", "title", "price", "discount", "category", "sent_at").
			Values(key, truncateRunes(offer.Title, maxStoredTitle), offer.PriceValue(), offer.DiscountPercent, category, sentAt).
			ToSql()
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("recording sent offer: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	evicted, err := db.evict(ctx, tx)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}

	db.log.Info().Int("inserted", inserted).Int64("evicted", evicted).Msg("offers recorded in history")
	return nil
}

// evict mantém apenas as capacity entradas mais recentes
func (db *DB) evict(ctx context.Context, tx *sql.Tx) (int64, error) {
	query, args, err := sq.Delete(table).
		Where(sq.Expr("id NOT IN (SELECT id FROM "+table+" ORDER BY sent_at DESC, id DESC LIMIT ?)", db.capacity)).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("evicting old history: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Stats retorna os agregados do histórico atual
func (db *DB) Stats(ctx context.Context) (models.HistoryStats, error) {
	var stats models.HistoryStats
	if db.conn == nil {
		return stats, ErrNotInitialized
	}

	query, args, err := sq.Select(
		"COUNT(*)",
		"COUNT(DISTINCT category)",
		"COALESCE(AVG(discount), 0)",
		"COALESCE(MIN(sent_at), 0)",
		"COALESCE(MAX(sent_at), 0)",
	).From(table).ToSql()
	if err != nil {
		return stats, err
	}

	var oldest, newest int64
	err = db.conn.QueryRowContext(ctx, query, args...).
		Scan(&stats.Total, &stats.Categories, &stats.AvgDiscount, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("reading history stats: %w", err)
	}

	if stats.Total > 0 {
		stats.Oldest = time.Unix(0, oldest)
		stats.Newest = time.Unix(0, newest)
	}
	return stats, nil
}

// Recent retorna as n entradas mais recentes
func (db *DB) Recent(ctx context.Context, n int) ([]models.HistoryEntry, error) {
	if db.conn == nil {
		return nil, ErrNotInitialized
	}
	if n <= 0 {
		return nil, nil
	}

	query, args, err := sq.Select("title_key", "title", "price", "discount", "category", "sent_at").
		From(table).
		OrderBy("sent_at DESC", "id DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var sentAt int64
		if err := rows.Scan(&e.Key, &e.Title, &e.Price, &e.Discount, &e.Category, &sentAt); err != nil {
			return nil, err
		}
		e.SentAt = time.Unix(0, sentAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear apaga todo o histórico e retorna quantas entradas foram removidas
func (db *DB) Clear(ctx context.Context) (int64, error) {
	if db.conn == nil {
		return 0, ErrNotInitialized
	}

	query, args, err := sq.Delete(table).ToSql()
	if err != nil {
		return 0, err
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	n, _ := res.RowsAffected()

	db.log.Warn().Int64("removed", n).Msg("history cleared")
	return n, nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
