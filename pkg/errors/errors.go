package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType representa o tipo de falha de um colaborador externo
type ErrorType string

const (
	// ErrorTypeNavigation representa falhas genéricas de navegação
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeNavigationTimeout representa navegações que excederam o prazo
	ErrorTypeNavigationTimeout ErrorType = "navigation_timeout"
	// ErrorTypeExtractionEmpty representa páginas sem nenhum fragmento extraível
	ErrorTypeExtractionEmpty ErrorType = "extraction_empty"
	// ErrorTypeRateLimit representa respostas de bloqueio por excesso de requisições
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing representa erros de parsing do HTML
	ErrorTypeParsing ErrorType = "parsing"
)

var (
	// ErrNavigationTimeout é comparável via errors.Is com qualquer ScrapeError de timeout
	ErrNavigationTimeout = stderrors.New("navigation timeout")
	// ErrExtractionEmpty é comparável via errors.Is com qualquer ScrapeError de extração vazia
	ErrExtractionEmpty = stderrors.New("extraction empty")
	// ErrRateLimited é comparável via errors.Is com qualquer ScrapeError de rate limit
	ErrRateLimited = stderrors.New("rate limited")
)

// ScrapeError representa uma falha do colaborador de navegação
type ScrapeError struct {
	Type     ErrorType
	Category string // categoria ou URL
	Message  string
	Err      error
	Time     time.Time
}

// Error implementa a interface error
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Category, e.Message)
}

// Unwrap retorna o erro original
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is permite comparar o tipo do erro com os sentinelas do pacote
func (e *ScrapeError) Is(target error) bool {
	switch target {
	case ErrNavigationTimeout:
		return e.Type == ErrorTypeNavigationTimeout
	case ErrExtractionEmpty:
		return e.Type == ErrorTypeExtractionEmpty
	case ErrRateLimited:
		return e.Type == ErrorTypeRateLimit
	}
	return false
}

// IsRetryable indica se a falha é transitória e pode ser tentada numa próxima execução
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation, ErrorTypeNavigationTimeout, ErrorTypeExtractionEmpty:
		return true
	default:
		return false
	}
}

// New cria um novo ScrapeError
func New(errType ErrorType, category, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:     errType,
		Category: category,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNavigation cria um erro de navegação
func NewNavigation(category, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, category, message, err)
}

// NewNavigationTimeout cria um erro de timeout de navegação
func NewNavigationTimeout(category string, timeout time.Duration, err error) *ScrapeError {
	return New(ErrorTypeNavigationTimeout, category, fmt.Sprintf("timeout after %v", timeout), err)
}

// NewExtractionEmpty cria um erro de extração vazia
func NewExtractionEmpty(category, message string) *ScrapeError {
	return New(ErrorTypeExtractionEmpty, category, message, nil)
}

// NewRateLimit cria um erro de rate limit
func NewRateLimit(category string, retryAfter string) *ScrapeError {
	return New(ErrorTypeRateLimit, category, "rate limited; retry after "+retryAfter, nil)
}

// NewParsing cria um erro de parsing
func NewParsing(category, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, category, message, err)
}
