package dto

import "time"

type ConnectRequest struct {
	Provider     string `json:"provider" binding:"required,oneof=gmail imap"`
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	SessionID string    `json:"session_id"`
	Provider  string    `json:"provider"`
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}
