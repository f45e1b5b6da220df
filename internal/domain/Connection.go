package domain

import "time"

type ConnectionStatus string

const (
	ConnectionStatusActive  ConnectionStatus = "active"
	ConnectionStatusExpired ConnectionStatus = "expired"
	ConnectionStatusError   ConnectionStatus = "error"
)

// Connection guarda as credenciais de um provedor para uma organização.
// Os tokens ficam em claro apenas em memória; no banco são cifrados.
type Connection struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Provider       Provider          `json:"provider"`
	AccessToken    string            `json:"-"`
	RefreshToken   string            `json:"-"`
	TokenExpiresAt *time.Time        `json:"token_expires_at,omitempty"`
	Active         bool              `json:"active"`
	Status         ConnectionStatus  `json:"status"`
	Settings       map[string]string `json:"settings,omitempty"` // ex.: login_customer_id do Google
	LastSyncAt     *time.Time        `json:"last_sync_at,omitempty"`
	LastError      *string           `json:"last_error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (c *Connection) IsUsable() bool {
	return c.Active && c.Status == ConnectionStatusActive
}

// TokenExpiresWithin indica se o token expira antes de now+d
func (c *Connection) TokenExpiresWithin(now time.Time, d time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return false
	}
	return c.TokenExpiresAt.Before(now.Add(d))
}
