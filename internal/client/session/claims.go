package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from its own access token.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is before now. A token without
// an exp claim never expires locally.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// Claims reads the stored access token without verifying its signature.
// The server remains the authority; this is for display only.
func (m *Manager) Claims(ctx context.Context) (TokenInfo, error) {
	access := m.token(ctx, m.store.AccessToken, common.AccessTokenKey)
	if access == "" {
		return TokenInfo{}, ErrMissingCredentials
	}
	return ParseClaims(access)
}

func ParseClaims(token string) (TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
