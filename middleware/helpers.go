package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Dosada05/raceday/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Имена JWT claims, которые выдаёт ClubService при логине.
const (
	jwtClaimClubID = "club_id"
	jwtClaimRole   = "role"
)

var ErrNoPrincipal = errors.New("principal not found in context")

// WithPrincipal stores p in ctx. Tests use it to skip token verification.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, error) {
	p, ok := ctx.Value(principalContextKey).(models.Principal)
	if !ok {
		return models.Principal{}, ErrNoPrincipal
	}
	return p, nil
}

// GetClubIDFromContext returns the authenticated club id.
func GetClubIDFromContext(ctx context.Context) (int, error) {
	p, err := PrincipalFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return p.ClubID, nil
}

func principalFromClaims(claims jwt.MapClaims) (models.Principal, error) {
	clubID, err := clubIDFromClaims(claims)
	if err != nil {
		return models.Principal{}, err
	}
	role, err := roleFromClaims(claims)
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{ClubID: clubID, Role: role}, nil
}

func clubIDFromClaims(claims jwt.MapClaims) (int, error) {
	raw, ok := claims[jwtClaimClubID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimClubID)
	}

	var id int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimClubID, v)
		}
		id = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim: %q", jwtClaimClubID, v)
		}
		id = n
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected number or string, got %T", jwtClaimClubID, raw)
	}

	if id <= 0 {
		return 0, fmt.Errorf("invalid club ID value in '%s' claim: %d", jwtClaimClubID, id)
	}
	return id, nil
}

func roleFromClaims(claims jwt.MapClaims) (models.Role, error) {
	raw, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, raw)
	}
	role := models.Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("invalid role value in claim: %q", s)
	}
	return role, nil
}
