package models

// Session is the server-side record of an issued refresh token, keyed by its jti.
type Session struct {
	TokenID   string `json:"token_id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}
