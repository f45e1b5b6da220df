package domain

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind string

const (
	KindAuthExpired ErrorKind = "auth_expired"
	KindRateLimited ErrorKind = "rate_limited"
	KindTransient   ErrorKind = "transient"
	KindValidation  ErrorKind = "validation"
	KindUnknown     ErrorKind = "unknown"
)

var (
	ErrAuthExpired = errors.New("auth expired")
	ErrRateLimited = errors.New("rate limited")
	ErrTransient   = errors.New("transient failure")
	ErrValidation  = errors.New("validation failure")

	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionInactive = errors.New("connection is not active")
	ErrAccountNotFound    = errors.New("account not found")
)

// SyncError carrega a categoria de falha de uma chamada ao provedor ou de uma entidade
type SyncError struct {
	Kind       ErrorKind
	Op         string
	Provider   Provider
	Code       int
	Subcode    int
	RetryAfter time.Duration
	Err        error
}

func (e *SyncError) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code=%d subcode=%d)", msg, e.Code, e.Subcode)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, ErrAuthExpired) sobre qualquer SyncError da mesma categoria
func (e *SyncError) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.Kind == KindAuthExpired
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

func NewSyncError(kind ErrorKind, op string, err error) *SyncError {
	return &SyncError{Kind: kind, Op: op, Err: err}
}

func NewValidationError(op string, err error) *SyncError {
	return &SyncError{Kind: KindValidation, Op: op, Err: err}
}

func NewRateLimitedError(op string, retryAfter time.Duration) *SyncError {
	return &SyncError{Kind: KindRateLimited, Op: op, RetryAfter: retryAfter}
}

// KindOf devolve a categoria do erro; erros não classificados são Unknown
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrAuthExpired):
		return KindAuthExpired
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrValidation):
		return KindValidation
	}
	return KindUnknown
}

// IsRetryable: AuthExpired exige nova autenticação e Validation não se
// resolve repetindo; o resto é repetido com backoff.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindAuthExpired, KindValidation:
		return false
	}
	return true
}

// RetryAfter devolve a espera sugerida pelo provedor, se houver
func RetryAfter(err error) time.Duration {
	var se *SyncError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
