package session

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("please login again: access token or refresh token not found")
	ErrRefreshExpired     = errors.New("refresh token expired")
)

// RefreshError is a refresh failure other than an expired refresh token.
type RefreshError struct {
	Message string
	Err     error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("refresh failed: %s: %v", e.Message, e.Err)
	}
	return "refresh failed: " + e.Message
}

func (e *RefreshError) Unwrap() error { return e.Err }
