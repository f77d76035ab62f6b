// Package auditctx propagates request-actor metadata down to the audit trail
// without threading HTTP details through every service signature.
package auditctx

import "context"

// Actor captures who initiated a request and where it came from.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}

// WithActor returns a derived context carrying the actor metadata. Service
// layers pass the context down unchanged; the audit service reads it back
// when a record omits these fields.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext extracts previously stored actor metadata.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
