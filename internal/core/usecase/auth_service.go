package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthService resolves an API token into the (principal, role) pair the
// registry requires on every mutating call.
type AuthService struct {
	repo ports.APIKeyRepository
}

func NewAuthService(repo ports.APIKeyRepository) *AuthService {
	return &AuthService{repo: repo}
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, ErrUnauthorized
	}

	key, err := s.repo.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, ErrUnauthorized
		}
		return domain.Principal{}, err
	}
	if !key.Active || !key.Role.Valid() {
		return domain.Principal{}, ErrUnauthorized
	}
	return domain.Principal{Name: key.Principal, Role: key.Role}, nil
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
