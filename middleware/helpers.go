package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// JWT claim names the auth service puts into its tokens.
const (
	jwtClaimUserID      = "user_id"
	jwtClaimDisplayName = "display_name"
	jwtClaimAvatarRef   = "avatar_ref"
	jwtClaimIsAdmin     = "is_admin"
)

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errors.New("user claims not found in context or invalid type")
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	idClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	id, ok := idClaim.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("invalid '%s' claim in token: expected non-empty string, got %T", jwtClaimUserID, idClaim)
	}
	return id, nil
}

func GetDisplayNameFromContext(ctx context.Context) string {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return ""
	}
	if name, ok := claims[jwtClaimDisplayName].(string); ok {
		return name
	}
	return ""
}

func GetAvatarRefFromContext(ctx context.Context) *string {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil
	}
	if ref, ok := claims[jwtClaimAvatarRef].(string); ok && ref != "" {
		return &ref
	}
	return nil
}

func GetIsAdminFromContext(ctx context.Context) bool {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return false
	}
	isAdmin, ok := claims[jwtClaimIsAdmin].(bool)
	return ok && isAdmin
}
