package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	repo "github.com/oksasatya/go-user-identity/internal/domain/repository"
	"github.com/oksasatya/go-user-identity/pkg/helpers"
)

const sessionTTL = 24 * time.Hour

var userStats = expvar.NewMap("users")

// UserIndexer keeps a searchable projection of active users.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// EventPublisher puts user lifecycle events on the queue.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Service is the user application service. Index, Events and Avatars are
// optional; when nil the corresponding side effect is skipped.
type Service struct {
	Repo    repo.UserRepository
	Cipher  PasswordCipher
	Auth    *AuthService
	Policy  RollbackPolicy
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	Logger  *logrus.Logger
	Index   UserIndexer
	Events  EventPublisher
	Avatars AvatarUploader
	Now     func() time.Time
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewService(r repo.UserRepository, c PasswordCipher, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *Service {
	return &Service{
		Repo:   r,
		Cipher: c,
		Auth:   NewAuthService(r, c, logger),
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
		Now:    time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// NewBuilder returns a builder bound to this service's repository and cipher.
func (s *Service) NewBuilder() *UserBuilder {
	return NewUserBuilder(s.Repo, s.Cipher)
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Register     string
	BirthDate    *time.Time
	RegisterType entity.RegisterType
	ExternalID   string
}

// Register validates and persists a new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	u, err := s.NewBuilder().
		SetName(in.Name).
		SetEmail(in.Email).
		SetPassword(in.Password).
		SetRegister(in.Register).
		SetBirthDate(in.BirthDate).
		SetRegisterType(in.RegisterType).
		SetExternalID(in.ExternalID).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	userStats.Add("registered", 1)

	s.indexUser(ctx, u)
	s.publish(ctx, entity.EventUserRegistered, u)
	return u, nil
}

// GetProfile returns an active user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u == nil || !u.Active {
		return nil, errs.ErrUserNotFound
	}
	return u, nil
}

// UpdateInput carries a partial update. Empty fields keep the stored value.
type UpdateInput struct {
	Name       string
	Email      string
	Password   string
	Register   string
	BirthDate  *time.Time
	ExternalID string
}

// Update merges in over the stored user and re-validates the result.
// An omitted password keeps the stored ciphertext unchanged.
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*entity.User, error) {
	existing, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	b := s.NewBuilder().
		SetID(existing.ID).
		SetActive(existing.Active).
		SetRegisterType(existing.RegisterType).
		SetName(coalesce(in.Name, existing.Name)).
		SetEmail(coalesce(in.Email, existing.Email)).
		SetRegister(coalesce(in.Register, existing.Register)).
		SetExternalID(coalesce(in.ExternalID, existing.ExternalID))
	if in.BirthDate != nil {
		b.SetBirthDate(in.BirthDate)
	} else {
		b.SetBirthDate(existing.BirthDate)
	}
	if in.Password != "" {
		b.SetPassword(in.Password)
	} else {
		b.SetEncryptedPassword(existing.Password)
	}

	u, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = existing.AvatarURL
	u.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	userStats.Add("updated", 1)

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		n, eErr := s.Redis.Exists(ctx, key).Result()
		if eErr != nil && s.Logger != nil {
			s.Logger.WithError(eErr).WithField("key", key).Warn("redis session lookup failed")
		}
		if n > 0 {
			pipe := s.Redis.Pipeline()
			pipe.HSet(ctx, key, map[string]any{
				"email":      u.Email,
				"name":       u.Name,
				"updated_at": nowRFC3339(),
			})
			if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
				s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
			}
		}
	}

	s.indexUser(ctx, u)
	s.publish(ctx, entity.EventUserUpdated, u)
	return u, nil
}

// Remove soft-deletes an active user and ends their session.
func (s *Service) Remove(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetActive(ctx, u.ID, false); err != nil {
		return nil, err
	}
	u.Active = false
	userStats.Add("removed", 1)

	s.endSession(ctx, u.ID)
	s.unindexUser(ctx, u.ID)
	s.publish(ctx, entity.EventUserRemoved, u)
	return u, nil
}

// Rollback hard-deletes a user created within the rollback window.
func (s *Service) Rollback(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if err := s.Policy.Check(u, s.now()); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	userStats.Add("rolled_back", 1)

	s.endSession(ctx, u.ID)
	s.unindexUser(ctx, u.ID)
	s.publish(ctx, entity.EventUserRolledBack, u)
	return nil
}

type LoginResponse struct {
	UserID       string              `json:"user_id"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	RegisterType entity.RegisterType `json:"register_type"`
}

// Login authenticates and opens a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResponse, TokenPair, error) {
	u, err := s.Auth.Authenticate(ctx, in)
	if err != nil {
		userStats.Add("login_failed", 1)
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	userStats.Add("login", 1)
	return &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, RegisterType: u.RegisterType}, pair, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":       u.ID,
			"email":         u.Email,
			"name":          u.Name,
			"register_type": string(u.RegisterType),
			"sid":           sid,
			"created_at":    nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, nil
}

// Refresh rotates the session id and both tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", errs.ErrInvalidCredentials
	}
	u, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", errs.ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, helpers.SessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", errs.ErrInvalidCredentials
		}
	}

	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, sessionTTL)
		if _, pErr := pipe.Exec(ctx); pErr != nil {
			if s.Logger != nil {
				s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
			}
			return TokenPair{}, "", fmt.Errorf("store session: %w", pErr)
		}
	}
	return pair, u.ID, nil
}

// Logout drops the user's session.
func (s *Service) Logout(ctx context.Context, userID string) {
	s.endSession(ctx, userID)
}

// UploadAvatar stores the image and records its URL on the user.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.Avatars == nil {
		return "", helpers.ErrStorageNotConfigured
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := s.Avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", err
	}
	s.indexUser(ctx, u)
	return url, nil
}

// SearchUsers queries the user index. Without an index it returns nothing.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	return s.Index.Search(ctx, q, size)
}

func (s *Service) signPair(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) endSession(ctx context.Context, userID string) {
	if err := helpers.RedisDel(ctx, s.Redis, helpers.SessionKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}

func (s *Service) unindexUser(ctx context.Context, userID string) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Delete(ctx, userID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("unindex user failed")
	}
}

func (s *Service) publish(ctx context.Context, t entity.UserEventType, u *entity.User) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, entity.NewUserEvent(t, u, s.now())); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "event": t}).Warn("publish event failed")
	}
}

func coalesce(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
