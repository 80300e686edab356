package auth

import "context"

// Principal is the acting identity, resolved from a verified token.
type Principal struct {
	UserID   string
	Username string
}

// IsZero reports whether no identity is present.
func (p Principal) IsZero() bool {
	return p.UserID == "" || p.Username == ""
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored on ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && !p.IsZero()
}
