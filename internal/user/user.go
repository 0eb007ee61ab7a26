package user

import "context"

/* Principal is an authenticated admin session user
 * It lives in internal so only this module can put one on a request context
 */
type Principal struct {
	ID          string
	Username    string
	DisplayName string
}

// Name returns the name recorded as the trigger author
func (p Principal) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, if any
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
