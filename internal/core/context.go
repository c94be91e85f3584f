package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// ClientInfo identifies the caller of a service operation for logging.
type ClientInfo struct {
	IP        string
	UserAgent string
	RequestID string
}

// ContextWithClient attaches caller information to ctx.
func ContextWithClient(ctx context.Context, c ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the caller information attached to ctx, or the
// zero value.
func ClientFromContext(ctx context.Context) ClientInfo {
	c, _ := ctx.Value(ctxKeyClient).(ClientInfo)
	return c
}
