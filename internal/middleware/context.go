package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX    ctxKey = "is_htmx"
	ctxKeyCSRFToken ctxKey = "csrf_token"
	ctxKeyHXTarget  ctxKey = "hx_target"
)

// WithHTMX marks request as HTMX
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// WithCSRFToken stores the request's CSRF token so templates can embed it.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyCSRFToken, token)
}

// CSRFToken returns the token issued for this request, if any.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCSRFToken).(string)
	return v
}

// WithHTMXTarget stores the id of the element an htmx request swaps into.
func WithHTMXTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, ctxKeyHXTarget, target)
}

// HTMXTarget returns the HX-Target of the request, if any.
func HTMXTarget(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyHXTarget).(string)
	return v
}
