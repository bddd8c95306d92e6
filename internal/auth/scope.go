package auth

import (
	"context"
	"sync"

	"github.com/spec-kit/forum-service/internal/domain"
)

type scopeKey struct{}

// requestScope memoizes gate lookups for a single request. It must never outlive
// the request it was created for, since role and ban state change between requests.
type requestScope struct {
	mu sync.Mutex

	verified bool
	token    string
	result   verifyResult

	users map[domain.UserID]*domain.User
	roles map[domain.UserID]domain.RoleSet
}

// WithRequestScope returns a context carrying a fresh per-request lookup scope.
// If ctx already has one it is returned unchanged.
func WithRequestScope(ctx context.Context) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &requestScope{
		users: make(map[domain.UserID]*domain.User),
		roles: make(map[domain.UserID]domain.RoleSet),
	})
}

func scopeFrom(ctx context.Context) *requestScope {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(scopeKey{}).(*requestScope)
	return scope
}

type verifyResult struct {
	identity domain.Identity
	err      error
}

func (s *requestScope) verification(token string) (verifyResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.verified || s.token != token {
		return verifyResult{}, false
	}
	return s.result, true
}

func (s *requestScope) storeVerification(token string, result verifyResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = true
	s.token = token
	s.result = result
}

func (s *requestScope) user(id domain.UserID) (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	return user, ok
}

// storeUser records a lookup result; a nil user records that the account is absent.
func (s *requestScope) storeUser(id domain.UserID, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user
}

func (s *requestScope) roleSet(id domain.UserID) (domain.RoleSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roles, ok := s.roles[id]
	return roles, ok
}

func (s *requestScope) storeRoleSet(id domain.UserID, roles domain.RoleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[id] = roles
}
