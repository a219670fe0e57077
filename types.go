// File: types.go
package main

import "time"

// StartRequest holds the optional query overrides of /api/captcha/start
type StartRequest struct {
	Difficulty string `validate:"omitempty,oneof=low normal high"`
	Mix        *bool
	Length     int `validate:"omitempty,min=1,max=12"`
	Height     int `validate:"omitempty,min=12,max=120"`
}

// StartResponse is returned by /api/captcha/start
type StartResponse struct {
	UUID      string    `json:"uuid"`
	Image     string    `json:"image"` // Base64 PNG
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest is the JSON body for /api/captcha/verify
type VerifyRequest struct {
	UUID   string `json:"uuid"`
	Answer string `json:"answer"`
}

// VerifyResponse is returned by /api/captcha/verify
type VerifyResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PassResponse is returned by /api/captcha/pass
type PassResponse struct {
	Valid       bool      `json:"valid"`
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
