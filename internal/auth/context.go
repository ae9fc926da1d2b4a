package auth

import (
	"context"
)

// UserContext holds authenticated user information extracted from the
// caller's Azure AD token. ObjectID is the AAD object id (oid claim),
// which is also how post authorship and votes are keyed.
type UserContext struct {
	ObjectID    string
	DisplayName string
	Email       string
	TenantID    string
	IsAdmin     bool
	AccessToken string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// CanModifyPost reports whether the user may update or delete a post
// authored by the given object id. Admin API key callers may modify any
// post; everyone else only their own.
func (u *UserContext) CanModifyPost(authorObjectID string) bool {
	if u.IsAdmin {
		return true
	}
	return u.ObjectID != "" && u.ObjectID == authorObjectID
}
