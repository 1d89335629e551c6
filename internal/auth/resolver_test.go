package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/game-exchange/internal/apperror"
)

// mockSessionRepo is an in-memory token → user id map.
type mockSessionRepo struct {
	tokens map[string]int64
}

func (m *mockSessionRepo) Replace(_ context.Context, userID int64, token string) error {
	for t, id := range m.tokens {
		if id == userID {
			delete(m.tokens, t)
		}
	}
	m.tokens[token] = userID
	return nil
}

func (m *mockSessionRepo) UserIDByToken(_ context.Context, token string) (int64, error) {
	id, ok := m.tokens[token]
	if !ok {
		return 0, apperror.NotFoundMsg("no session for token")
	}
	return id, nil
}

func newTestResolver() (*SessionResolver, *mockSessionRepo) {
	repo := &mockSessionRepo{tokens: map[string]int64{"valid-token": 7}}
	return NewSessionResolver(repo), repo
}

func TestResolve_ValidToken(t *testing.T) {
	resolver, _ := newTestResolver()

	userID, err := resolver.Resolve(context.Background(), "Bearer valid-token")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}
}

func TestResolve_Failures(t *testing.T) {
	resolver, _ := newTestResolver()

	// Malformed headers and unknown tokens must be indistinguishable:
	// all collapse to the same unauthorized error.
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no scheme", "valid-token"},
		{"wrong scheme", "Basic valid-token"},
		{"lowercase scheme", "bearer valid-token"},
		{"empty token", "Bearer "},
		{"three parts", "Bearer valid token"},
		{"unknown token", "Bearer no-such-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), tt.header)
			if err == nil {
				t.Fatal("Resolve() should fail")
			}
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Errorf("error = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestResolve_TokenSupersededByNewLogin(t *testing.T) {
	resolver, repo := newTestResolver()

	if err := repo.Replace(context.Background(), 7, "newer-token"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if _, err := resolver.Resolve(context.Background(), "Bearer valid-token"); err == nil {
		t.Error("the superseded token should no longer resolve")
	}
	userID, err := resolver.Resolve(context.Background(), "Bearer newer-token")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}
}

func TestRequireAuth_PassesUserIDToHandler(t *testing.T) {
	resolver, _ := newTestResolver()

	var gotID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/game/1", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rr := httptest.NewRecorder()

	RequireAuth(resolver)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !gotOK || gotID != 7 {
		t.Errorf("UserIDFromContext = (%d, %v), want (7, true)", gotID, gotOK)
	}
}

func TestRequireAuth_BlocksInvalidToken(t *testing.T) {
	resolver, _ := newTestResolver()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/game/1", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rr := httptest.NewRecorder()

	RequireAuth(resolver)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if called {
		t.Error("handler should not run for an invalid token")
	}
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("UserIDFromContext should report false on a bare context")
	}
}

func TestNewSessionToken_Unique(t *testing.T) {
	if NewSessionToken() == NewSessionToken() {
		t.Error("two session tokens should never collide")
	}
}
