package types

import "encoding/json"

// ------------------------------
// Response Types
// ------------------------------

// Envelope is the service's common response shape.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// AuthResponse is returned by login, register and me.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}
