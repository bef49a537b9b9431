package dispatcher

import "context"

type actorIDKey struct{}

// WithActorID attaches the acting user's ID to ctx for dispatch events.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, id)
}

func actorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey{}).(string)
	return id
}
