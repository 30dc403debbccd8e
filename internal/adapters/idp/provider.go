package idp

// Package idp adapts the external identity provider to the ports the auth
// service consumes: OIDC token verification against the provider's JWKS, and
// user administration (read/delete) through its REST API.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2/clientcredentials"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	"github.com/jhmh/portal-api/internal/ports"
)

// Provider implements ports.IdentityProvider.
type Provider struct {
	verifier *gooidc.IDTokenVerifier

	adminBaseURL string
	adminClient  *http.Client
}

// Config holds configuration for the identity provider adapter.
type Config struct {
	// IssuerURL is the OIDC issuer whose discovery document locates the JWKS.
	IssuerURL string
	// Audience is the expected "aud" claim of bearer credentials.
	Audience string

	// AdminBaseURL is the base URL of the provider's user admin REST API.
	AdminBaseURL string
	// AdminTokenURL, AdminClientID, and AdminClientSecret configure the
	// client-credentials grant authorizing admin calls.
	AdminTokenURL     string
	AdminClientID     string
	AdminClientSecret string

	// HTTPClient is optional; a 30s-timeout client is used when nil.
	HTTPClient *http.Client
}

// New creates the adapter. It performs one discovery fetch against the issuer.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.AdminBaseURL == "" {
		return nil, errors.New("admin base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	discoveryCtx := gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(discoveryCtx, strings.TrimSuffix(cfg.IssuerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	adminClient := httpClient
	if cfg.AdminTokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.AdminClientID,
			ClientSecret: cfg.AdminClientSecret,
			TokenURL:     cfg.AdminTokenURL,
		}
		adminClient = cc.Client(gooidc.ClientContext(ctx, httpClient))
		adminClient.Timeout = httpClient.Timeout
	}

	return &Provider{
		verifier:     op.Verifier(&gooidc.Config{ClientID: cfg.Audience}),
		adminBaseURL: strings.TrimSuffix(cfg.AdminBaseURL, "/"),
		adminClient:  adminClient,
	}, nil
}

// tokenClaims is the claim shape carried by the provider's bearer credentials.
type tokenClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyToken checks the credential's signature, issuer, audience, and expiry,
// and returns the decoded identity. Expiry failures wrap ports.ErrTokenExpired.
func (p *Provider) VerifyToken(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	if rawToken == "" {
		return domainauth.Identity{}, errors.New("empty token")
	}

	idToken, err := p.verifier.Verify(ctx, rawToken)
	if err != nil {
		var expiredErr *gooidc.TokenExpiredError
		if errors.As(err, &expiredErr) {
			return domainauth.Identity{}, fmt.Errorf("%w: expired at %s", ports.ErrTokenExpired, expiredErr.Expiry)
		}
		return domainauth.Identity{}, fmt.Errorf("verify token: %w", err)
	}

	var claims tokenClaims
	if claimsErr := idToken.Claims(&claims); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse token claims: %w", claimsErr)
	}

	subject := claims.Sub
	if subject == "" {
		subject = idToken.Subject
	}

	return domainauth.Identity{
		SubjectID:     subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		PictureURL:    claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// GetUser fetches the provider-held user record, including custom claims.
func (p *Provider) GetUser(ctx context.Context, subjectID string) (domainauth.UserRecord, error) {
	if subjectID == "" {
		return domainauth.UserRecord{}, errors.New("subject id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL(subjectID), nil)
	if err != nil {
		return domainauth.UserRecord{}, fmt.Errorf("build get user request: %w", err)
	}

	resp, err := p.adminClient.Do(req)
	if err != nil {
		return domainauth.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var record domainauth.UserRecord
		if decodeErr := json.NewDecoder(resp.Body).Decode(&record); decodeErr != nil {
			return domainauth.UserRecord{}, fmt.Errorf("decode user record: %w", decodeErr)
		}
		if record.SubjectID == "" {
			record.SubjectID = subjectID
		}
		return record, nil
	case http.StatusNotFound:
		return domainauth.UserRecord{}, fmt.Errorf("get user %s: %w", subjectID, ports.ErrUserNotFound)
	default:
		return domainauth.UserRecord{}, fmt.Errorf("get user %s: unexpected status %d", subjectID, resp.StatusCode)
	}
}

// DeleteUser removes the user record from the provider.
func (p *Provider) DeleteUser(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return errors.New("subject id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.userURL(subjectID), nil)
	if err != nil {
		return fmt.Errorf("build delete user request: %w", err)
	}

	resp, err := p.adminClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		// Already gone; the compensating goal is achieved.
		return nil
	default:
		return fmt.Errorf("delete user %s: unexpected status %d", subjectID, resp.StatusCode)
	}
}

func (p *Provider) userURL(subjectID string) string {
	return p.adminBaseURL + "/users/" + url.PathEscape(subjectID)
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
