package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/utils"
	"github.com/golang-jwt/jwt/v4"
)

var ErrNoClaims = errors.New("admin claims not found in context")

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// GetSubjectFromContext возвращает subject токена, прошедшего RequireAdmin.
func GetSubjectFromContext(ctx context.Context) (string, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	sub, ok := claims[utils.ClaimSubject].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("missing '%s' claim in token", utils.ClaimSubject)
	}
	return sub, nil
}
