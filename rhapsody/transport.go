package rhapsody

import (
	"crypto/tls"
	"net/http"
	"sync"
)

const csrfHeader = "X-CSRF-Token"

// authTransport authenticates every request and echoes the engine's CSRF
// token, which it hands out on responses and expects back on later requests.
type authTransport struct {
	base     http.RoundTripper
	username string
	password string

	mu   sync.Mutex
	csrf string
}

func newAuthTransport(username, password string, insecureSkipVerify bool) *authTransport {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}

	return &authTransport{
		base:     base,
		username: username,
		password: password,
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if t.username != "" {
		r.SetBasicAuth(t.username, t.password)
	}
	if token := t.token(); token != "" {
		r.Header.Set(csrfHeader, token)
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if token := resp.Header.Get(csrfHeader); token != "" {
		t.mu.Lock()
		t.csrf = token
		t.mu.Unlock()
	}

	return resp, nil
}

func (t *authTransport) token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.csrf
}
