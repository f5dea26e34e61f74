package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spec-kit/sip-gateway/internal/domain"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

// httpSSOVerifier verifies SSO tokens against the upstream identity
// service's /verify endpoint.
type httpSSOVerifier struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPSSOVerifier builds a verifier for the given identity service URL.
func NewHTTPSSOVerifier(baseURL string, timeout time.Duration) SSOVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpSSOVerifier{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type ssoVerifyResponse struct {
	Valid bool `json:"valid"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (v *httpSSOVerifier) Verify(ctx context.Context, token string) (*SSOUser, error) {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpc.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUnauthorized("sso token rejected")
	}

	var body ssoVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewUpstreamUnavailable(err)
	}
	if !body.Valid {
		return nil, apperrors.NewUnauthorized("invalid sso token")
	}

	return &SSOUser{
		ID:    body.User.ID,
		Email: body.User.Email,
		Role:  domain.Role(body.User.Role),
	}, nil
}
