package driver

import "context"

// Target selects which automation session a command addresses. An empty
// target means the hub's active session.
type Target struct {
	SessionID string
}

type targetKey struct{}

func WithTarget(ctx context.Context, target Target) context.Context {
	if target.SessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, targetKey{}, target)
}

func TargetFromContext(ctx context.Context) (Target, bool) {
	val := ctx.Value(targetKey{})
	if val == nil {
		return Target{}, false
	}
	target, ok := val.(Target)
	return target, ok
}
