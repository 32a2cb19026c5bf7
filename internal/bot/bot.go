package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/sender"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const parseModeHTML = "HTML"

type initOptions struct {
	endpoint string
	client   *http.Client
}

// InitOption configura a conexão com a API do Telegram
type InitOption func(*initOptions)

// WithEndpoint troca o endpoint da API (formato de tgbotapi.APIEndpoint)
func WithEndpoint(endpoint string) InitOption {
	return func(o *initOptions) { o.endpoint = endpoint }
}

// WithHTTPClient define o cliente HTTP usado nas chamadas à API
func WithHTTPClient(c *http.Client) InitOption {
	return func(o *initOptions) { o.client = c }
}

// Init inicializa o bot do Telegram
func Init(token string, opts ...InitOption) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set; check the .env file")
	}

	o := initOptions{endpoint: tgbotapi.APIEndpoint, client: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, errors.New("telegram token invalid or expired; check TELEGRAM_BOT_TOKEN (tokens are issued by @BotFather)")
		}
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	api.Debug = false
	return api, nil
}

// Channel entrega mensagens num chat do Telegram
type Channel struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

var _ sender.Channel = (*Channel)(nil)

// NewChannel cria o canal de envio para o chat informado
func NewChannel(api *tgbotapi.BotAPI, chatID int64, l zerolog.Logger) *Channel {
	return &Channel{api: api, chatID: chatID, log: logger.For(l, "telegram")}
}

// SendText envia uma mensagem de texto em HTML
func (c *Channel) SendText(ctx context.Context, text string) (sender.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return sender.Receipt{}, err
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = parseModeHTML

	sent, err := c.api.Send(msg)
	if err != nil {
		return sender.Receipt{}, fmt.Errorf("sending message: %w", err)
	}
	return sender.Receipt{MessageID: sent.MessageID}, nil
}

// SendImage envia uma foto por URL com legenda em HTML
func (c *Channel) SendImage(ctx context.Context, imageURL, caption string) (sender.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return sender.Receipt{}, err
	}

	photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	photo.ParseMode = parseModeHTML

	sent, err := c.api.Send(photo)
	if err != nil {
		return sender.Receipt{}, fmt.Errorf("sending photo: %w", err)
	}
	return sender.Receipt{MessageID: sent.MessageID}, nil
}

// CheckConnected confirma que o token ainda é aceito pela API
func (c *Channel) CheckConnected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	me, err := c.api.GetMe()
	if err != nil {
		c.log.Warn().Err(err).Msg("telegram connection check failed")
		return false, err
	}

	c.log.Debug().Str("bot", me.UserName).Msg("telegram connected")
	return true, nil
}
