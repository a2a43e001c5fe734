package transport

import "net/http"

// Authenticator applies an API key to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// AuthFunc adapts a function to Authenticator.
type AuthFunc func(req *http.Request, apiKey string)

// Apply calls f.
func (f AuthFunc) Apply(req *http.Request, apiKey string) {
	f(req, apiKey)
}

// NoAuth sends no credentials, for local OpenAI-compatible gateways.
type NoAuth struct{}

// Apply does nothing.
func (NoAuth) Apply(*http.Request, string) {}

// BearerAuth sends the key as an Authorization bearer token. An empty key
// sends no header.
type BearerAuth struct{}

// Apply sets the Authorization header.
func (BearerAuth) Apply(req *http.Request, apiKey string) {
	if apiKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
}
