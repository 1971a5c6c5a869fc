package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protected(roles ...string) (http.Handler, *string) {
	var seenUser string
	h := Authenticate(testSecret)(Authorize(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))
	return h, &seenUser
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// region Authenticate

func TestAuthenticate_ValidToken(t *testing.T) {
	h, user := protected(RoleOrganizer)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "op-1",
		"role":    RoleOrganizer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := serve(h, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "op-1", *user)
}

func TestAuthenticate_Rejects(t *testing.T) {
	h, _ := protected(RoleOrganizer)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "garbage").Code)

	wrongKey := signToken(t, "other", jwt.MapClaims{"user_id": "op-1", "role": RoleOrganizer})
	assert.Equal(t, http.StatusUnauthorized, serve(h, wrongKey).Code)

	expired := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "op-1",
		"role":    RoleOrganizer,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, serve(h, expired).Code)
}

// endregion

// region Authorize

func TestAuthorize_RoleMismatch(t *testing.T) {
	h, _ := protected(RoleAdmin)
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": "op-1", "role": RoleOrganizer})
	assert.Equal(t, http.StatusForbidden, serve(h, token).Code)

	unknown := signToken(t, testSecret, jwt.MapClaims{"user_id": "op-1", "role": "player"})
	h, _ = protected(RoleAdmin, RoleOrganizer)
	assert.Equal(t, http.StatusForbidden, serve(h, unknown).Code)
}

func TestGetUserIDFromContext_NumericClaim(t *testing.T) {
	h, user := protected(RoleAdmin)
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": 42, "role": RoleAdmin})

	rec := serve(h, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "42", *user)
}

// endregion
