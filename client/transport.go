package client

import (
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// bearerTransport adds the session's bearer token to every request and acts
// as the 401 interceptor: a rejected token is cleared from the holder and the
// registered unauthorized handler runs once per rejected response. A 401 for
// a token that is no longer the held one is returned to the caller but
// neither clears nor notifies.
type bearerTransport struct {
	base  http.RoundTripper
	creds *Credentials

	onUnauthorized atomic.Pointer[func()]
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	sent := t.creds.Token()
	if sent != "" {
		cloned.Header.Set("Authorization", "Bearer "+sent)
	}
	resp, err := t.base.RoundTrip(cloned)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		unauthorizedTotal.Inc()
		if !t.creds.ClearIf(sent) {
			log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("ignoring 401 for a replaced token")
			return resp, nil
		}
		if fn := t.onUnauthorized.Load(); fn != nil && *fn != nil {
			log.Warn().Str("method", req.Method).Str("path", req.URL.Path).Msg("service rejected credentials")
			(*fn)()
		}
	}
	return resp, nil
}
