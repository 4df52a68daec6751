package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/booking-service/internal/models"
)

func echoActor(t *testing.T, got *models.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		*got = actor
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestActorMiddleware_DevHeaders(t *testing.T) {
	var got models.Actor
	h := ActorMiddleware(nil)(echoActor(t, &got))
	id := uuid.New()

	tests := []struct {
		name   string
		id     string
		role   string
		status int
	}{
		{"customer", id.String(), "customer", http.StatusNoContent},
		{"agent", id.String(), "agent", http.StatusNoContent},
		{"missing id", "", "agent", http.StatusUnauthorized},
		{"bad id", "nope", "agent", http.StatusUnauthorized},
		{"unknown role", id.String(), "landlord", http.StatusUnauthorized},
		{"system is internal", id.String(), "system", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderActorID, tt.id)
			req.Header.Set(HeaderActorRole, tt.role)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, id, got.ID)
				assert.Equal(t, models.RoleType(tt.role), got.Role)
			}
		})
	}
}

func TestActorMiddleware_BearerToken(t *testing.T) {
	secret := []byte("test-secret")
	var got models.Actor
	h := ActorMiddleware(secret)(echoActor(t, &got))
	actor := models.Actor{ID: uuid.New(), Role: models.RoleAdmin}

	token, err := IssueToken(actor, secret, time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, actor, got)

	// headers are ignored once a secret is configured
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, actor.ID.String())
	req.Header.Set(HeaderActorRole, "admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := IssueToken(actor, []byte("other"), time.Hour, time.Now())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActorMiddleware_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	h := ActorMiddleware(secret)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	token, err := IssueToken(models.Actor{ID: uuid.New(), Role: models.RoleCustomer}, secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_expired")
}
