package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/utils"
)

// AuthService issues access tokens for existing accounts.
type AuthService struct {
	users  UserStore
	secret string // HMAC key
	ttlMin int    // token lifetime in minutes
}

// NewAuthService creates an AuthService issuing HS256 access tokens
// signed with secret and valid for ttlMin minutes.
func NewAuthService(users UserStore, secret string, ttlMin int) *AuthService {
	return &AuthService{users: users, secret: secret, ttlMin: ttlMin}
}

// Login checks the credentials and returns a signed access token.  Unknown
// emails, wrong passwords and disabled accounts all yield
// booking.ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, email, password string) (utils.AccessToken, *model.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return utils.AccessToken{}, nil, booking.ErrUnauthenticated
		}
		return utils.AccessToken{}, nil, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return utils.AccessToken{}, nil, booking.ErrUnauthenticated
	}
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Role, s.ttlMin)
	if err != nil {
		return utils.AccessToken{}, nil, err
	}
	return tok, u, nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, caller booking.Caller) (*model.User, error) {
	if !caller.Authenticated() {
		return nil, booking.ErrUnauthenticated
	}
	return s.users.GetUser(ctx, caller.ID)
}
