package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
	"github.com/zypocare/governance-backend/internal/requestdata"
)

func requireActor(ctx context.Context) (*requestdata.Actor, error) {
	actor := requestdata.GetActor(ctx)
	if actor == nil || actor.UserID == uuid.Nil {
		return nil, apierr.New(apierr.KindForbidden, "caller identity missing")
	}
	return actor, nil
}

func requireSuperAdmin(ctx context.Context) (*requestdata.Actor, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() {
		return nil, apierr.New(apierr.KindForbidden, "super admin privileges required")
	}
	return actor, nil
}
