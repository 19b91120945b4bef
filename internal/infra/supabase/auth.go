package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/khalilvb06/ecm/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// GoTrue — hosted identity collaborator
// ============================================================

// SignIn exchanges email/password for a session via the password grant.
// Invalid credentials answer as ErrUnauthorized, not as a collaborator
// failure.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	if email == "" || password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gotrue: sign-in request failed", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		c.logger.Warn("gotrue: sign-in rejected", zap.Int("status", resp.StatusCode))
		return nil, &domain.ErrUnauthorized{Message: "بيانات الدخول غير صحيحة"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "supabase/auth",
			Err:     fmt.Errorf("sign-in returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var session domain.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("decode session: %w", err)}
	}
	return &session, nil
}

// SignOut revokes the session behind an access token. A failed revocation is
// reported; the caller decides whether to drop the token anyway.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	url := fmt.Sprintf("%s/auth/v1/logout", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gotrue: sign-out request failed", zap.Error(err))
		return &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.ErrExternalService{
			Service: "supabase/auth",
			Err:     fmt.Errorf("sign-out returned %d", resp.StatusCode),
		}
	}
	return nil
}

// GetUser returns the session subject behind an access token. A rejected
// token yields (nil, nil): session absence is not an error.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	url := fmt.Sprintf("%s/auth/v1/user", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gotrue: get-user request failed", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "supabase/auth",
			Err:     fmt.Errorf("get-user returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var user domain.AuthUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: fmt.Errorf("decode user: %w", err)}
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}
