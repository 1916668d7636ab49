// Package session handles the signed-in identity: password sign-in against
// the external auth collaborator and extraction of the user id from the
// issued access token. Everything else about authentication stays backend-side.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type Session struct {
	UserID      string
	Email       string
	AccessToken string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// SignIn exchanges email/password for an access token at the auth
// collaborator's token endpoint and derives the user id from it.
func SignIn(ctx context.Context, baseURL, apiKey, email, password string) (*Session, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/auth/v1/token?grant_type=password"

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("apikey", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sign in: auth service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("sign in: decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("sign in: empty access token")
	}

	userID, err := UserIDFromToken(token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:      userID,
		Email:       email,
		AccessToken: token.AccessToken,
	}, nil
}

// UserIDFromToken pulls the subject claim out of the access token. The
// client holds no signing secret, so the parse is unverified; the backend
// verifies the token on every request it receives.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("access token has no subject claim")
	}
	return sub, nil
}
