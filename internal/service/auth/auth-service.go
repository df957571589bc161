// Package auth resolves API tokens to callers. Keys live in the store;
// resolved tokens are cached in memory so the hot path skips the
// database.
package auth

import (
	"log/slog"
	"sync"

	"MarketChat/entity"
	"MarketChat/internal/lib/sl"
)

type Repository interface {
	CheckApiKey(key string) (string, error)
	GenerateApiKey(username string) (string, error)
}

type Service struct {
	repository Repository

	mu    sync.RWMutex
	cache map[string]string // token -> username

	log *slog.Logger
}

func NewAuthService(logger *slog.Logger) *Service {
	return &Service{
		cache: make(map[string]string),
		log:   logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

// AuthenticateByToken resolves a token to the user it was issued for.
func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "" {
		return nil, entity.Unauthorized("empty token")
	}

	s.mu.RLock()
	username, ok := s.cache[token]
	s.mu.RUnlock()
	if ok {
		return &entity.UserAuth{Username: username, Token: token}, nil
	}

	username, err := s.repository.CheckApiKey(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[token] = username
	s.mu.Unlock()

	return &entity.UserAuth{Username: username, Token: token}, nil
}

// IssueKey returns the existing key for a username or creates a new one.
func (s *Service) IssueKey(username string) (string, error) {
	if username == "" {
		return "", entity.InvalidInput("username required")
	}

	key, err := s.repository.GenerateApiKey(username)
	if err != nil {
		return "", err
	}

	s.log.With(
		slog.String("username", username),
		sl.Secret("key", key),
	).Debug("api key issued")

	return key, nil
}
