package client

import "sync"

// Credentials holds the session's bearer token. One holder is shared by
// reference between the client (which reads it on every request) and the
// session owner (which sets it on login and clears it on logout).
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns a holder seeded with token, which may be empty.
func NewCredentials(token string) *Credentials {
	return &Credentials{token: token}
}

// Token returns the current token, or "" when there is none.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set replaces the token.
func (c *Credentials) Set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Clear drops the token.
func (c *Credentials) Clear() { c.Set("") }

// Present reports whether a token is held.
func (c *Credentials) Present() bool { return c.Token() != "" }

// ClearIf drops the held token if it equals token and reports whether it
// did. An empty token never matches.
func (c *Credentials) ClearIf(token string) bool {
	if token == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token {
		return false
	}
	c.token = ""
	return true
}
