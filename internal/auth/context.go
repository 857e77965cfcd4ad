package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxWorkspaceID
	ctxRole
)

// WithIdentity attaches the verified identity to ctx. Only the access-token
// middleware should call this.
func WithIdentity(ctx context.Context, userID, workspaceID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxWorkspaceID, workspaceID)
	return context.WithValue(ctx, ctxRole, role)
}

func UserID(ctx context.Context) (string, error) {
	return fromCtx(ctx, ctxUserID, "user_id")
}

func WorkspaceID(ctx context.Context) (string, error) {
	return fromCtx(ctx, ctxWorkspaceID, "workspace_id")
}

func Role(ctx context.Context) (string, error) {
	return fromCtx(ctx, ctxRole, "role")
}

func fromCtx(ctx context.Context, key ctxKey, name string) (string, error) {
	if s, ok := ctx.Value(key).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New(name + " not in context")
}
