package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/utils"
)

type contextKey string

const (
	ContextKeyActor = contextKey("actor")

	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// ActorMiddleware puts the calling models.Actor into the request context.
//   - With a secret the actor comes from an Authorization: Bearer token.
//   - Without one (local development) it comes from the X-Actor-ID and
//     X-Actor-Role headers.
//
// Requests without a usable actor get a 401.
func ActorMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				actor models.Actor
				err   error
			)
			if len(secret) > 0 {
				actor, err = actorFromBearer(r, secret)
			} else {
				actor, err = actorFrom(r.Header.Get(HeaderActorID), r.Header.Get(HeaderActorRole))
			}

			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, err,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid credentials", nil, err,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromBearer(r *http.Request, secret []byte) (models.Actor, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return models.Actor{}, errors.New("missing Authorization header")
	}
	return ParseToken(strings.TrimPrefix(h, "Bearer "), secret)
}

// ActorFromContext returns the actor ActorMiddleware stored.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(models.Actor)
	return actor, ok
}
