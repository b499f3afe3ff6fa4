package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

func registerAna(t *testing.T, svc *Service) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "first-pass",
		Register: "123.456.789-00",
	})
	require.NoError(t, err)
	return u
}

func TestService_Register(t *testing.T) {
	svc, repo := newTestService(t)
	pub := &recordingPublisher{}
	idx := newFakeIndexer()
	svc.Events = pub
	svc.Index = idx

	u := registerAna(t, svc)

	assert.NotEmpty(t, u.ID)
	stored := repo.stored(u.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.Active)
	assert.Equal(t, entity.RegisterTypeDefault, stored.RegisterType)
	assert.True(t, svc.Cipher.Check("first-pass", stored.Password))
	assert.Equal(t, []entity.UserEventType{entity.EventUserRegistered}, pub.types())
	assert.Contains(t, idx.indexed, u.ID)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	registerAna(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "ana@example.com", Password: "x"})
	assert.ErrorIs(t, err, errs.ErrDuplicatedEmail)
}

func TestService_UpdateKeepsPasswordWhenOmitted(t *testing.T) {
	svc, repo := newTestService(t)
	u := registerAna(t, svc)
	before := repo.stored(u.ID).Password

	updated, err := svc.Update(context.Background(), u.ID, UpdateInput{Name: "Ana Maria"})
	require.NoError(t, err)

	after := repo.stored(u.ID)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "ana@example.com", after.Email)
	assert.Equal(t, "123.456.789-00", after.Register)
	assert.Equal(t, before, after.Password)
	assert.Equal(t, u.CreatedAt, after.CreatedAt)
}

func TestService_UpdatePassword(t *testing.T) {
	svc, repo := newTestService(t)
	u := registerAna(t, svc)

	_, err := svc.Update(context.Background(), u.ID, UpdateInput{Password: "second-pass"})
	require.NoError(t, err)

	stored := repo.stored(u.ID)
	assert.True(t, svc.Cipher.Check("second-pass", stored.Password))
	assert.False(t, svc.Cipher.Check("first-pass", stored.Password))
}

func TestService_UpdateEmailTakenByOther(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)
	_, err := svc.Register(context.Background(), RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), u.ID, UpdateInput{Email: "bob@example.com"})
	assert.ErrorIs(t, err, errs.ErrDuplicatedEmail)
}

func TestService_RemoveIsSoft(t *testing.T) {
	svc, repo := newTestService(t)
	pub := &recordingPublisher{}
	idx := newFakeIndexer()
	svc.Events = pub
	svc.Index = idx
	u := registerAna(t, svc)

	_, err := svc.Remove(context.Background(), u.ID)
	require.NoError(t, err)

	stored := repo.stored(u.ID)
	require.NotNil(t, stored)
	assert.False(t, stored.Active)
	assert.Equal(t, []string{u.ID}, idx.deleted)
	assert.Equal(t, []entity.UserEventType{entity.EventUserRegistered, entity.EventUserRemoved}, pub.types())

	_, err = svc.GetProfile(context.Background(), u.ID)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)

	_, err = svc.Remove(context.Background(), u.ID)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "first-pass"})
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestService_RemovedEmailCanBeReused(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)
	_, err := svc.Remove(context.Background(), u.ID)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Name: "New Ana", Email: "ana@example.com", Password: "p", Register: "123.456.789-00"})
	assert.NoError(t, err)
}

func TestService_Rollback(t *testing.T) {
	t.Run("within window deletes", func(t *testing.T) {
		svc, repo := newTestService(t)
		u := registerAna(t, svc)
		svc.Now = func() time.Time { return repo.now.Add(30 * time.Second) }

		require.NoError(t, svc.Rollback(context.Background(), u.ID))
		assert.Nil(t, repo.stored(u.ID))
	})

	t.Run("after window keeps user", func(t *testing.T) {
		svc, repo := newTestService(t)
		u := registerAna(t, svc)
		svc.Now = func() time.Time { return repo.now.Add(2 * time.Minute) }

		err := svc.Rollback(context.Background(), u.ID)
		assert.ErrorIs(t, err, errs.ErrRollbackExpired)
		assert.NotNil(t, repo.stored(u.ID))
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.Rollback(context.Background(), "missing")
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})

	t.Run("configured window", func(t *testing.T) {
		svc, repo := newTestService(t)
		svc.Policy = RollbackPolicy{Window: 5 * time.Minute}
		u := registerAna(t, svc)
		svc.Now = func() time.Time { return repo.now.Add(2 * time.Minute) }

		assert.NoError(t, svc.Rollback(context.Background(), u.ID))
	})
}

func TestService_LoginIssuesTokens(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)

	res, pair, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "first-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestService_RefreshRejectsStaleSession(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)
	_, pair, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "first-pass"})
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	svc.Redis = db
	mock.ExpectHGetAll(helpers.SessionKey(u.ID)).SetVal(map[string]string{"sid": "rotated"})

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_RefreshFailsWhenSessionNotStored(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)
	_, pair, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "first-pass"})
	require.NoError(t, err)
	claims, err := svc.JWT.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	logger, hook := logtest.NewNullLogger()
	svc.Logger = logger
	db, mock := redismock.NewClientMock()
	svc.Redis = db
	key := helpers.SessionKey(u.ID)
	anyArgs := func(_, _ []interface{}) error { return nil }
	mock.ExpectHGetAll(key).SetVal(map[string]string{"sid": claims.SessionID})
	mock.CustomMatch(anyArgs).ExpectHSet(key).SetErr(errors.New("READONLY"))
	mock.ExpectExpire(key, sessionTTL).SetVal(true)

	next, _, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "store session")
	assert.Empty(t, next.AccessToken)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestService_UpdateLogsSessionLookupError(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)

	logger, hook := logtest.NewNullLogger()
	svc.Logger = logger
	db, mock := redismock.NewClientMock()
	svc.Redis = db
	mock.ExpectExists(helpers.SessionKey(u.ID)).SetErr(errors.New("i/o timeout"))

	updated, err := svc.Update(context.Background(), u.ID, UpdateInput{Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "redis session lookup failed", hook.LastEntry().Message)
}

func TestService_RefreshWithoutSessionStore(t *testing.T) {
	svc, _ := newTestService(t)
	u := registerAna(t, svc)
	_, pair, err := svc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "first-pass"})
	require.NoError(t, err)

	next, uid, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.NotEmpty(t, next.AccessToken)

	_, _, err = svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestService_LogoutDropsSession(t *testing.T) {
	svc, _ := newTestService(t)
	db, mock := redismock.NewClientMock()
	svc.Redis = db
	mock.ExpectDel(helpers.SessionKey("u-1")).SetVal(1)

	svc.Logout(context.Background(), "u-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UploadAvatar(t *testing.T) {
	svc, repo := newTestService(t)
	u := registerAna(t, svc)

	_, err := svc.UploadAvatar(context.Background(), u.ID, strings.NewReader("img"), "me.PNG", "image/png")
	assert.ErrorIs(t, err, helpers.ErrStorageNotConfigured)

	var gotPath string
	svc.Avatars = uploaderFunc(func(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
		gotPath = objectPath
		b, _ := io.ReadAll(r)
		assert.Equal(t, "img", string(b))
		assert.Equal(t, "image/png", contentType)
		return "https://cdn.example/" + objectPath, nil
	})

	url, err := svc.UploadAvatar(context.Background(), u.ID, strings.NewReader("img"), "me.PNG", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotPath, "avatars/"+u.ID+"/"))
	assert.True(t, strings.HasSuffix(gotPath, ".png"))
	assert.Equal(t, url, repo.stored(u.ID).AvatarURL)
}

func TestService_SearchUsers(t *testing.T) {
	svc, _ := newTestService(t)

	hits, err := svc.SearchUsers(context.Background(), "ana", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	idx := newFakeIndexer()
	idx.hits = []map[string]any{{"id": "u-1"}}
	svc.Index = idx
	hits, err = svc.SearchUsers(context.Background(), "ana", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
