package authenticating

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// RoleAdmin é o único perfil aceito pela API de operação
const RoleAdmin = 1

type Authenticator interface {
	ValidateToken(tokenString string) (*domain.Claims, error)
	IssueToken(operatorID, email string, roleID int, ttl time.Duration) (string, error)
}

type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(cfg config.Auth) Authenticator {
	return &Service{secret: []byte(cfg.Secret), now: time.Now}
}

func (s *Service) IssueToken(operatorID, email string, roleID int, ttl time.Duration) (string, error) {
	if operatorID == "" {
		return "", NewAuthError(ErrMissingOperator, "operator_id é obrigatório")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := s.now()
	claims := domain.Claims{
		OperatorID:    operatorID,
		OperatorEmail: email,
		RoleID:        roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken aceita apenas HS256 e tokens de administrador
func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrExpiredToken, err.Error())
		}
		return nil, NewAuthError(ErrInvalidToken, err.Error())
	}
	if !token.Valid {
		return nil, NewAuthError(ErrInvalidToken, "")
	}
	if claims.RoleID != RoleAdmin {
		return nil, NewAuthError(ErrOperatorNotAllowed, claims.OperatorID)
	}

	return claims, nil
}
