package client

// Functional options that configure the Client during construction.

import (
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client during construction in New.
//
// Options are applied before the bearer transport is installed, so transport
// options (like debug logging) end up underneath it.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout. Prefer context
// deadlines per call; this bounds a single request end to end.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. Its transport is kept
// and wrapped.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		cp := *hc
		c.http = &cp
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is logged
// at debug level when enabled is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			if _, already := c.http.Transport.(*debugTransport); already {
				return nil
			}
			base := c.http.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: base}
		}
		return nil
	}
}

// WithCredentials shares creds with the client. Without it the client owns
// an empty holder.
func WithCredentials(creds *Credentials) Option {
	return func(c *Client) error {
		if creds == nil {
			return fmt.Errorf("credentials must not be nil")
		}
		c.creds = creds
		return nil
	}
}
