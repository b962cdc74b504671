package model

import "context"

// Session is the caller identity forwarded to the billing backend
type Session struct {
	AccountID string
	Token     string
	Email     string
}

type sessionKey struct{}

// ContextWithSession stores the caller session in ctx
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by ContextWithSession
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
