package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestUserIDFromToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	userID, err := UserIDFromToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestUserIDFromToken_NoSubject(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "a@b.c"})

	_, err := UserIDFromToken(token)
	require.Error(t, err)
}

func TestUserIDFromToken_Garbage(t *testing.T) {
	_, err := UserIDFromToken("not-a-token")
	require.Error(t, err)
}

func TestSignIn(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-42"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "test-key", r.Header.Get("apikey"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "me@example.com", creds["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	sess, err := SignIn(context.Background(), srv.URL, "test-key", "me@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "user-42", sess.UserID)
	require.Equal(t, "me@example.com", sess.Email)
	require.Equal(t, token, sess.AccessToken)
}

func TestSignIn_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := SignIn(context.Background(), srv.URL, "", "me@example.com", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}
