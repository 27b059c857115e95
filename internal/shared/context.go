package shared

import "context"

// CurrentUser is the authenticated caller attached to a request.
type CurrentUser struct {
	ID    int64
	Email string
	Name  string
	Group string
}

type userContextKey struct{}

// ContextWithUser stores the user in context.
func ContextWithUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the user from context.
func UserFromContext(ctx context.Context) (CurrentUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(CurrentUser)
	return user, ok
}
