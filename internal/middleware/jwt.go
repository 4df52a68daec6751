package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/models"
)

// TokenIssuer is the expected "iss" claim of actor tokens.
const TokenIssuer = "booking-service"

// IssueToken signs an HS256 token carrying the actor's id and role.
func IssueToken(actor models.Actor, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.ID.String(),
		"role": string(actor.Role),
		"iss":  TokenIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates signature, expiry and issuer and returns the actor
// the token speaks for. Expired tokens yield an error wrapping
// jwt.ErrTokenExpired.
func ParseToken(tokenString string, secret []byte) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return models.Actor{}, errors.New("missing subject claim")
	}
	role, _ := claims["role"].(string)
	return actorFrom(sub, role)
}

func actorFrom(rawID, rawRole string) (models.Actor, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid actor id: %w", err)
	}
	role := models.RoleType(rawRole)
	// system is internal only
	if !role.Valid() || role == models.RoleSystem {
		return models.Actor{}, fmt.Errorf("invalid role %q", rawRole)
	}
	return models.Actor{ID: id, Role: role}, nil
}
