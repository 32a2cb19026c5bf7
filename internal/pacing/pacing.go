package pacing

import (
	"context"
	"math/rand/v2"
	"time"
)

// SleepFunc espera uma duração respeitando o contexto
type SleepFunc func(ctx context.Context, d time.Duration) error

// NewRand cria uma fonte aleatória semeada pelo relógio
func NewRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1))
}

// Delay sorteia uma duração uniforme em [min, max]
func Delay(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int64N(int64(max-min)+1))
}

// Sleep espera d ou até o contexto ser cancelado
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
