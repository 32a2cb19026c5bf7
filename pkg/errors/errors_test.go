package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorIs(t *testing.T) {
	timeout := NewNavigationTimeout("Beleza", 20*time.Second, context.DeadlineExceeded)
	wrapped := fmt.Errorf("fetch category: %w", timeout)

	assert.True(t, stderrors.Is(wrapped, ErrNavigationTimeout))
	assert.True(t, stderrors.Is(wrapped, context.DeadlineExceeded))
	assert.False(t, stderrors.Is(wrapped, ErrExtractionEmpty))

	empty := NewExtractionEmpty("Casa", "no cards")
	assert.True(t, stderrors.Is(empty, ErrExtractionEmpty))
	assert.False(t, stderrors.Is(empty, ErrRateLimited))

	assert.True(t, stderrors.Is(NewRateLimit("Games", "60"), ErrRateLimited))
}

func TestScrapeErrorMessage(t *testing.T) {
	err := NewNavigation("Beleza", "status code: 500", nil)
	assert.Equal(t, "[navigation] Beleza: status code: 500", err.Error())

	err = NewParsing("Beleza", "invalid html", stderrors.New("eof"))
	assert.Equal(t, "[parsing] Beleza: invalid html - eof", err.Error())
}

func TestScrapeErrorIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *ScrapeError
		want bool
	}{
		{"navigation", NewNavigation("c", "m", nil), true},
		{"timeout", NewNavigationTimeout("c", time.Second, nil), true},
		{"empty", NewExtractionEmpty("c", "m"), true},
		{"rate limit", NewRateLimit("c", ""), false},
		{"parsing", NewParsing("c", "m", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.IsRetryable())
		})
	}
}
