package sender

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"bot-ofertas/internal/logger"
	"bot-ofertas/internal/models"
	"bot-ofertas/internal/pacing"

	"github.com/rs/zerolog"
)

// ErrNotConnected é retornado quando o canal não está pronto para envio
var ErrNotConnected = errors.New("messaging channel not connected")

// Receipt é a confirmação de uma mensagem entregue
type Receipt struct {
	MessageID int
}

// Channel é o destino das mensagens
type Channel interface {
	SendText(ctx context.Context, text string) (Receipt, error)
	SendImage(ctx context.Context, imageURL, caption string) (Receipt, error)
	CheckConnected(ctx context.Context) (bool, error)
}

// Pacing controla o ritmo de envio
type Pacing struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxPerBatch int
}

// PlannedItem é uma oferta pronta para envio, com variante e espera após o envio
type PlannedItem struct {
	Offer   models.Offer
	Variant Variant
	Delay   time.Duration
}

// Sequencer decide ordem, ritmo e variação das mensagens.
// Guarda os links já enviados durante a vida do processo.
type Sequencer struct {
	channel   Channel
	pacing    Pacing
	rng       *rand.Rand
	sleep     pacing.SleepFunc
	sentLinks map[string]struct{}
	log       zerolog.Logger
}

// Option configura o Sequencer
type Option func(*Sequencer)

// WithRand define a fonte aleatória
func WithRand(rng *rand.Rand) Option {
	return func(s *Sequencer) { s.rng = rng }
}

// WithSleep substitui a função de espera
func WithSleep(sleep pacing.SleepFunc) Option {
	return func(s *Sequencer) { s.sleep = sleep }
}

// WithLogger define o logger do envio
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.log = logger.For(l, "sender") }
}

// NewSequencer cria um novo sequenciador de envio
func NewSequencer(channel Channel, p Pacing, opts ...Option) *Sequencer {
	s := &Sequencer{
		channel:   channel,
		pacing:    p,
		rng:       pacing.NewRand(),
		sleep:     pacing.Sleep,
		sentLinks: make(map[string]struct{}),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan embaralha as ofertas ainda não enviadas, limita o lote e sorteia variante e espera de cada item.
// O último item não tem espera.
func (s *Sequencer) Plan(offers []models.Offer) []PlannedItem {
	pending := make([]models.Offer, 0, len(offers))
	seen := make(map[string]struct{}, len(offers))
	for _, o := range offers {
		if o.Price == nil {
			continue
		}
		if _, sent := s.sentLinks[o.Link]; sent {
			continue
		}
		if _, dup := seen[o.Link]; dup {
			continue
		}
		seen[o.Link] = struct{}{}
		pending = append(pending, o)
	}

	s.rng.Shuffle(len(pending), func(i, j int) {
		pending[i], pending[j] = pending[j], pending[i]
	})

	if s.pacing.MaxPerBatch > 0 && len(pending) > s.pacing.MaxPerBatch {
		pending = pending[:s.pacing.MaxPerBatch]
	}

	plan := make([]PlannedItem, 0, len(pending))
	for i, o := range pending {
		item := PlannedItem{Offer: o, Variant: ChooseVariant(s.rng)}
		if i < len(pending)-1 {
			item.Delay = pacing.Delay(s.rng, s.pacing.MinDelay, s.pacing.MaxDelay)
		}
		plan = append(plan, item)
	}
	return plan
}

// Deliver envia as ofertas uma a uma, respeitando o plano.
// Retorna as ofertas efetivamente enviadas, mesmo quando um envio falha no meio do lote.
func (s *Sequencer) Deliver(ctx context.Context, offers []models.Offer) ([]models.Offer, error) {
	connected, err := s.channel.CheckConnected(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	if !connected {
		return nil, ErrNotConnected
	}

	plan := s.Plan(offers)
	if len(plan) == 0 {
		s.log.Info().Msg("nothing to deliver")
		return nil, nil
	}

	s.log.Info().Int("offers", len(plan)).Msg("delivering offers")

	sent := make([]models.Offer, 0, len(plan))
	for i, item := range plan {
		if err := s.send(ctx, item); err != nil {
			return sent, fmt.Errorf("delivering offer %d/%d: %w", i+1, len(plan), err)
		}

		s.sentLinks[item.Offer.Link] = struct{}{}
		sent = append(sent, item.Offer)

		s.log.Info().
			Int("position", i+1).
			Int("total", len(plan)).
			Str("title", logger.Truncate(item.Offer.Title, 60)).
			Bool("image", item.Offer.ImageURL != "").
			Msg("offer delivered")

		if item.Delay > 0 {
			s.log.Debug().Dur("delay", item.Delay).Msg("waiting before next offer")
			if err := s.sleep(ctx, item.Delay); err != nil {
				return sent, err
			}
		}
	}

	return sent, nil
}

// WasSent informa se o link já foi enviado por este processo
func (s *Sequencer) WasSent(link string) bool {
	_, ok := s.sentLinks[link]
	return ok
}

// ResetSentLinks esquece os links enviados
func (s *Sequencer) ResetSentLinks() {
	s.sentLinks = make(map[string]struct{})
}

func (s *Sequencer) send(ctx context.Context, item PlannedItem) error {
	message := Format(item.Offer, item.Variant)
	if item.Offer.ImageURL != "" {
		_, err := s.channel.SendImage(ctx, item.Offer.ImageURL, message)
		return err
	}
	_, err := s.channel.SendText(ctx, message)
	return err
}
