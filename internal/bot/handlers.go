package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"
	"bot-ofertas/internal/sender"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	defaultRecent = 5
	maxRecent     = 20
)

// History é a parte do histórico consultada pelos comandos
type History interface {
	Capacity() int
	Stats(ctx context.Context) (models.HistoryStats, error)
	Recent(ctx context.Context, n int) ([]models.HistoryEntry, error)
}

// Commands responde aos comandos enviados ao bot
type Commands struct {
	api              *tgbotapi.BotAPI
	history          History
	authorizedChatID int64
	loc              *time.Location
	log              zerolog.Logger
}

// NewCommands cria o tratador de comandos.
// Com authorizedChatID zero, qualquer chat pode consultar o histórico.
func NewCommands(api *tgbotapi.BotAPI, history History, authorizedChatID int64, loc *time.Location, l zerolog.Logger) *Commands {
	if loc == nil {
		loc = time.Local
	}
	return &Commands{
		api:              api,
		history:          history,
		authorizedChatID: authorizedChatID,
		loc:              loc,
		log:              logger.For(l, "commands"),
	}
}

// Listen consome as atualizações do bot até o contexto ser cancelado
func (c *Commands) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.api.GetUpdatesChan(u)
	defer c.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			reply, ok := c.Reply(ctx, update.Message.Chat.ID, update.Message.Text)
			if !ok {
				continue
			}
			c.send(update.Message.Chat.ID, reply)
		}
	}
}

// Reply monta a resposta em HTML para um comando.
// Retorna false quando a mensagem não é um comando.
func (c *Commands) Reply(ctx context.Context, chatID int64, text string) (string, bool) {
	parts := strings.Fields(text)
	if len(parts) == 0 || !strings.HasPrefix(parts[0], "/") {
		return "", false
	}

	command := strings.ToLower(parts[0])
	// Remover @botname se presente
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}

	isPublicCommand := command == "/start" || command == "/help"
	if !isPublicCommand && c.authorizedChatID != 0 && chatID != c.authorizedChatID {
		return "Você não está autorizado a usar este bot.", true
	}

	switch command {
	case "/start", "/help":
		return helpText, true
	case "/stats":
		return c.stats(ctx), true
	case "/recentes":
		return c.recent(ctx, parts[1:]), true
	default:
		return "Comando não reconhecido. Use /help para ver os comandos disponíveis.", true
	}
}

const helpText = `🤖 <b>Bot de Ofertas</b>

<b>Comandos disponíveis:</b>

<b>/stats</b> - Resumo do histórico de ofertas enviadas

<b>/recentes [n]</b> - Últimas ofertas enviadas (padrão 5, máximo 20)
Exemplo: /recentes 10

<b>/help</b> - Mostrar esta mensagem de ajuda
`

func (c *Commands) stats(ctx context.Context) string {
	stats, err := c.history.Stats(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to load history stats")
		return fmt.Sprintf("❌ Erro ao carregar histórico: %s", sender.EscapeHTML(err.Error()))
	}

	if stats.Total == 0 {
		return "📭 Nenhuma oferta enviada ainda."
	}

	var b strings.Builder
	b.WriteString("📊 <b>Histórico de ofertas</b>\n\n")
	fmt.Fprintf(&b, "📦 Ofertas guardadas: <b>%d/%d</b>\n", stats.Total, c.history.Capacity())
	fmt.Fprintf(&b, "🗂️ Categorias: %d\n", stats.Categories)
	fmt.Fprintf(&b, "🎉 Desconto médio: %.1f%%\n", stats.AvgDiscount)
	fmt.Fprintf(&b, "🕐 Mais antiga: %s\n", c.formatTime(stats.Oldest))
	fmt.Fprintf(&b, "🕐 Mais recente: %s\n", c.formatTime(stats.Newest))
	return b.String()
}

func (c *Commands) recent(ctx context.Context, args []string) string {
	n := defaultRecent
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return "❌ Quantidade inválida.\n\nUso: /recentes [n]\n\nExemplo: /recentes 10"
		}
		n = min(parsed, maxRecent)
	}

	entries, err := c.history.Recent(ctx, n)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to load recent offers")
		return fmt.Sprintf("❌ Erro ao carregar histórico: %s", sender.EscapeHTML(err.Error()))
	}

	if len(entries) == 0 {
		return "📭 Nenhuma oferta enviada ainda."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Últimas %d ofertas enviadas:</b>\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "📦 <b>%s</b>\n", sender.EscapeHTML(e.Title))
		fmt.Fprintf(&b, "💰 R$ %s · %.0f%% OFF · %s\n", sender.FormatBRL(e.Price), e.Discount, sender.EscapeHTML(e.Category))
		fmt.Fprintf(&b, "🕐 %s\n\n", c.formatTime(e.SentAt))
	}
	return b.String()
}

func (c *Commands) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(c.loc).Format("02/01/2006 15:04")
}

func (c *Commands) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseModeHTML
	if _, err := c.api.Send(msg); err != nil {
		c.log.Warn().Err(err).Msg("failed to send reply with HTML, retrying as plain text")
		msg.ParseMode = ""
		if _, err2 := c.api.Send(msg); err2 != nil {
			c.log.Error().Err(err2).Msg("failed to send reply")
		}
	}
}
