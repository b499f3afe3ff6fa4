package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

// memRepo is an in-memory UserRepository.
type memRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
	seq   int
	now   time.Time

	lookupErr error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}, now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *memRepo) put(u entity.User) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("u-%d", r.seq)
	}
	r.users[u.ID] = &u
	cp := u
	return &cp
}

func (r *memRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = fmt.Sprintf("u-%d", r.seq)
	u.CreatedAt = r.now
	u.UpdatedAt = r.now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Active && u.Email == email })
}

func (r *memRepo) GetByRegister(_ context.Context, register string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Active && u.Register == register })
}

func (r *memRepo) GetByExternalID(_ context.Context, t entity.RegisterType, externalID string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return u.Active && u.RegisterType == t && u.ExternalID == externalID
	})
}

func (r *memRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return errs.ErrUserNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return errs.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return errs.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) stored(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

type recordingPublisher struct {
	events []entity.UserEvent
}

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	if ev, ok := body.(entity.UserEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) types() []entity.UserEventType {
	out := make([]entity.UserEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeIndexer struct {
	indexed map[string]*entity.User
	deleted []string
	hits    []map[string]any
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[string]*entity.User{}}
}

func (f *fakeIndexer) Index(_ context.Context, u *entity.User) error {
	f.indexed[u.ID] = u
	return nil
}

func (f *fakeIndexer) Delete(_ context.Context, id string) error {
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) Search(context.Context, string, int) ([]map[string]any, error) {
	return f.hits, nil
}

type uploaderFunc func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return f(ctx, objectPath, contentType, r)
}

func newTestCipher(t *testing.T) *helpers.Cipher {
	t.Helper()
	c, err := helpers.NewCipher("test-secret")
	require.NoError(t, err)
	return c
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	r := newMemRepo()
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	svc := NewService(r, newTestCipher(t), jwt, nil, nil)
	svc.Now = func() time.Time { return r.now }
	return svc, r
}
