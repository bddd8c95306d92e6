package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/events"
)

type fakeUserRepo struct {
	byID    map[domain.UserID]*domain.User
	nextID  domain.UserID
	findErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[domain.UserID]*domain.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) ByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.ByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, user := range r.byID {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeRoleRepo struct {
	grants map[domain.RoleAssignment]bool
	err    error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{grants: map[domain.RoleAssignment]bool{}}
}

func (r *fakeRoleRepo) RolesOf(_ context.Context, userID domain.UserID) (domain.RoleSet, error) {
	set := domain.NewRoleSet()
	for grant := range r.grants {
		if grant.UserID == userID {
			set[fmt.Sprintf("role-%d", grant.RoleID)] = struct{}{}
		}
	}
	return set, r.err
}

func (r *fakeRoleRepo) Assign(_ context.Context, a domain.RoleAssignment) error {
	if r.err != nil {
		return r.err
	}
	r.grants[a] = true
	return nil
}

func (r *fakeRoleRepo) Revoke(_ context.Context, a domain.RoleAssignment) error {
	if r.err != nil {
		return r.err
	}
	if !r.grants[a] {
		return domain.ErrNotFound
	}
	delete(r.grants, a)
	return nil
}

func (r *fakeRoleRepo) IsAssigned(_ context.Context, a domain.RoleAssignment) (bool, error) {
	return r.grants[a], r.err
}

type fakeInvalidator struct {
	invalidated []domain.UserID
	err         error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID domain.UserID) error {
	f.invalidated = append(f.invalidated, userID)
	return f.err
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func recordAll(d events.Dispatcher, types ...events.EventType) *eventRecorder {
	rec := &eventRecorder{}
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, e)
			return nil
		})
	}
	return rec
}
