package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	repo "github.com/oksasatya/go-event-locator/internal/domain/repository"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
)

// SessionService is the session authority: JWT cookies backed by a Redis hash
// per account. A token is only honored while its sid matches the hash.
type SessionService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	TTL    time.Duration
}

func NewSessionService(repo repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{Repo: repo, JWT: jwt, Redis: rdb, Logger: logger, TTL: ttl}
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Establish issues a fresh token pair and records the session in Redis.
// Without the Redis record the tokens would be rejected, so a write failure is returned.
func (s *SessionService) Establish(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.issue(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	fields := map[string]any{
		"user_id":    u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"sid":        sid,
		"logged_in":  true,
		"created_at": nowRFC3339(),
	}
	key := SessionKey(u.ID)
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, fmt.Errorf("store session: %w", err)
	}
	return pair, nil
}

func (s *SessionService) issue(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{SessionID: sid, AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Login checks username/password and establishes a new session.
func (s *SessionService) Login(ctx context.Context, username, password string) (*entity.User, TokenPair, error) {
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.Establish(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Resolve turns an access token into the caller identity.
func (s *SessionService) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	data, err := s.Redis.HGetAll(ctx, SessionKey(claims.UserID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, ErrUnauthorized
	}
	return &Identity{UserID: data["user_id"], Username: data["username"]}, nil
}

// Refresh rotates the session id and both tokens.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	key := SessionKey(claims.UserID)
	data, err := s.Redis.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
		return TokenPair{}, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	pair, err := s.issue(claims.UserID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"sid":        sid,
		"updated_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return TokenPair{}, "", fmt.Errorf("rotate session: %w", err)
	}
	return pair, claims.UserID, nil
}

// Revoke drops the session so outstanding tokens stop working.
func (s *SessionService) Revoke(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, SessionKey(userID)).Err()
}

// SyncProfile refreshes cached display fields, preserving the session TTL.
func (s *SessionService) SyncProfile(ctx context.Context, u *entity.User) {
	key := SessionKey(u.ID)
	ttl, err := s.Redis.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		// no live session to update
		return
	}
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, ttl)
	if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}

var (
	_ SessionAuthority   = (*SessionService)(nil)
	_ ProfileSessionSync = (*SessionService)(nil)
)
