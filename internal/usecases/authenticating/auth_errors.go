package authenticating

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken       = errors.New("token inválido")
	ErrExpiredToken       = errors.New("token expirado")
	ErrOperatorNotAllowed = errors.New("operador sem permissão para a API de operação")
	ErrMissingOperator    = errors.New("operador não informado")
)

// AuthError carrega o motivo da recusa do token (claim, operador)
type AuthError struct {
	Err     error
	Details string
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthorizationError separa 403 (perfil) de 401 (token)
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrOperatorNotAllowed)
}

func NewAuthError(baseErr error, details string) *AuthError {
	return &AuthError{Err: baseErr, Details: details}
}
