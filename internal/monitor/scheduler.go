package monitor

import (
	"context"
	"fmt"
	"time"

	"bot-ofertas/internal/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner executa uma rodada do pipeline
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

// Scheduler dispara o pipeline nos horários configurados.
// Uma execução que ainda não terminou faz a seguinte ser pulada.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	loc    *time.Location
	ctx    context.Context
	log    zerolog.Logger
}

// NewScheduler cria o agendador para a expressão cron no fuso informado
func NewScheduler(runner Runner, spec string, loc *time.Location, l zerolog.Logger) (*Scheduler, error) {
	log := logger.For(l, "scheduler")
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log})),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
		loc:    loc,
		ctx:    context.Background(),
		log:    log,
	}

	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start começa a disparar as execuções; ctx é repassado a cada uma
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.log.Info().Time("next_run", s.Next()).Msg("scheduler started")
	s.cron.Start()
}

// Stop para o agendador; o contexto retornado termina quando a execução em andamento acabar
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("scheduler stopping")
	return s.cron.Stop()
}

// Next retorna o horário da próxima execução
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

// Entries retorna as entradas registradas no cron
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) runScheduled() {
	s.log.Info().Msg("scheduled run starting")
	report, err := s.runner.Run(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", report.RunID).Msg("scheduled run failed")
		return
	}
	s.log.Info().Str("run_id", report.RunID).Int("delivered", report.Delivered).Time("next_run", s.Next()).Msg("scheduled run finished")
}

// cronLogger adapta o zerolog à interface de log do cron
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
