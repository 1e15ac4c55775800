package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

var actorKey ctxKey

// Actor is the caller identity supplied by the embedding system's auth layer.
// This service records it on mutations; it never authenticates it.
type Actor struct {
	UserID   uuid.UUID
	Role     string
	BranchID *uuid.UUID
}

const RoleSuperAdmin = "SUPER_ADMIN"

func (a *Actor) IsSuperAdmin() bool {
	return a != nil && a.Role == RoleSuperAdmin
}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func GetActor(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey).(*Actor); ok {
		return a
	}
	return nil
}
