package auth

import (
	"context"
)

type contextKey int

const (
	claimsKey contextKey = iota
)

// FromContext returns the verified claims, or nil if the request is not
// authenticated.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// UserID returns the token subject, or empty string if not authenticated.
func UserID(ctx context.Context) string {
	claims := FromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

// Workspace returns the workspace the token is scoped to, or empty string.
func Workspace(ctx context.Context) string {
	claims := FromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Workspace
}
