package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	"github.com/jhmh/portal-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.HealthChecker    = (*StubHealthChecker)(nil)
	_ ports.Denylist         = (*MemoryDenylist)(nil)
)

// MockIdentityProvider simulates the identity provider with per-call hooks
// and call counters for asserting interaction counts.
type MockIdentityProvider struct {
	VerifyTokenFunc func(ctx context.Context, rawToken string) (domainauth.Identity, error)
	GetUserFunc     func(ctx context.Context, subjectID string) (domainauth.UserRecord, error)
	DeleteUserFunc  func(ctx context.Context, subjectID string) error

	// DefaultIdentity is returned by VerifyToken when no hook is set.
	DefaultIdentity domainauth.Identity

	mu             sync.Mutex
	VerifyCalls    int
	GetUserCalls   int
	DeleteCalls    int
	DeletedSubject string
}

// NewMockIdentityProvider creates a provider with a sensible default identity.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultIdentity: domainauth.Identity{
			SubjectID:     "mock-user-1",
			Email:         "mock.user@jhmh.com",
			DisplayName:   "Mock User",
			EmailVerified: true,
		},
	}
}

func (m *MockIdentityProvider) VerifyToken(ctx context.Context, rawToken string) (domainauth.Identity, error) {
	m.mu.Lock()
	m.VerifyCalls++
	m.mu.Unlock()
	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(ctx, rawToken)
	}
	return m.DefaultIdentity, nil
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, subjectID string) (domainauth.UserRecord, error) {
	m.mu.Lock()
	m.GetUserCalls++
	m.mu.Unlock()
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, subjectID)
	}
	return domainauth.UserRecord{
		SubjectID:     subjectID,
		Email:         m.DefaultIdentity.Email,
		DisplayName:   m.DefaultIdentity.DisplayName,
		EmailVerified: m.DefaultIdentity.EmailVerified,
	}, nil
}

func (m *MockIdentityProvider) DeleteUser(ctx context.Context, subjectID string) error {
	m.mu.Lock()
	m.DeleteCalls++
	m.DeletedSubject = subjectID
	m.mu.Unlock()
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, subjectID)
	}
	return nil
}

// StubHealthChecker reports a fixed health result.
type StubHealthChecker struct {
	Err error

	mu    sync.Mutex
	Calls int
}

func (s *StubHealthChecker) Health(_ context.Context) error {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	return s.Err
}

// MemoryDenylist is an in-memory denylist for unit tests.
type MemoryDenylist struct {
	mu      sync.Mutex
	denied  map[string]time.Time
	DenyErr error
	ReadErr error
}

// NewMemoryDenylist creates an empty in-memory denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{denied: make(map[string]time.Time)}
}

func (m *MemoryDenylist) Deny(_ context.Context, subjectID string, ttl time.Duration) error {
	if m.DenyErr != nil {
		return m.DenyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[subjectID] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryDenylist) IsDenied(_ context.Context, subjectID string) (bool, error) {
	if m.ReadErr != nil {
		return false, m.ReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.denied[subjectID]
	return ok && time.Now().Before(until), nil
}
