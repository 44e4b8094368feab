package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/pkg/errors"
)

const tokenByteLength = 32

// TokenService issues and resolves the capability tokens that gate booking
// management. Tokens are opaque random strings; possession is the only
// credential, there are no user accounts.
type TokenService struct {
	bookingRepo repositories.BookingRepository
}

// NewTokenService creates a new token service
func NewTokenService(bookingRepo repositories.BookingRepository) *TokenService {
	return &TokenService{
		bookingRepo: bookingRepo,
	}
}

// Issue generates a fresh access token. Tokens carry no embedded claims, so
// they stay valid until replaced by a reschedule.
func (s *TokenService) Issue() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.NewInternalError("failed to generate access token", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Resolve maps a token to its booking. Unknown and superseded tokens are
// indistinguishable from the caller's point of view.
func (s *TokenService) Resolve(ctx context.Context, token string) (*entities.Booking, error) {
	if token == "" {
		return nil, errors.NewUnauthorizedError("access token is required")
	}

	booking, err := s.bookingRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil, errors.NewUnauthorizedError("invalid access token")
		}
		return nil, err
	}
	return booking, nil
}
