package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"classservice/internal/errdefs"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	default:
		return false
	}
}

type Principal struct {
	ID   string
	Role Role
}

// Provider resolves an Authorization header to an authenticated principal.
type Provider interface {
	Authenticate(ctx context.Context, authorizationHeader string) (*Principal, error)
}

// HTTPProvider delegates authentication to the external identity service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type authorizeResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p *HTTPProvider) Authenticate(ctx context.Context, authorizationHeader string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/authorize", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorize request: %w", err)
	}
	req.Header.Set("Authorization", authorizationHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", errdefs.ErrUpstream)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errdefs.ErrPermissionDenied
	default:
		return nil, fmt.Errorf("identity service returned %d: %w", resp.StatusCode, errdefs.ErrUpstream)
	}

	var body authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode authorize response: %w", errdefs.ErrUpstream)
	}

	principal := &Principal{ID: body.ID, Role: Role(body.Role)}
	if principal.ID == "" || !principal.Role.IsValid() {
		return nil, errdefs.ErrPermissionDenied
	}

	return principal, nil
}
