package session

import "context"

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session carried by ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Provider supplies the bearer token of the session in the request context.
// It satisfies bookbase.CredentialProvider.
type Provider struct{}

// Credential returns the token of the current session, or "" when the
// request has none.
func (Provider) Credential(ctx context.Context) (string, error) {
	if s := FromContext(ctx); s != nil {
		return s.Token, nil
	}
	return "", nil
}
