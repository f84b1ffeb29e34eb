// Package auth resolves callers to identities issued by the hosted identity provider.
package auth

import "context"

// Identity is the resolved caller. The zero value is an anonymous caller.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsZero() bool { return i.UserID == "" }

type contextKey struct{}

// WithIdentity stores id on ctx. Only the authentication middleware calls it;
// everything downstream receives the identity as an explicit argument.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or the zero identity.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}
