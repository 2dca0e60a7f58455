// Package session carries the acting user through a request context.
package session

import (
	"context"
	"errors"
	"log/slog"

	"haushaltskasse/internal/core"
)

type contextKey string

const userKey contextKey = "user"

var ErrNoUser = errors.New("no user in session")

// CurrentUser returns the user stored by WithUser.
func CurrentUser(ctx context.Context) (core.User, error) {
	user, ok := ctx.Value(userKey).(core.User)
	if !ok {
		slog.DebugContext(ctx, "User not found in context")
		return core.User{}, ErrNoUser
	}
	return user, nil
}

// CurrentID retrieves the current user's ID. Returns ErrNoUser if no user is present.
func CurrentID(ctx context.Context) (string, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func WithUser(ctx context.Context, user core.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
