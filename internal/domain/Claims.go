package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identifica o operador que chama a API de operação
type Claims struct {
	OperatorID    string `json:"operator_id"`
	OperatorEmail string `json:"operator_email,omitempty"`
	RoleID        int    `json:"role_id"`
	jwt.RegisteredClaims
}
