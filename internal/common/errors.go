// Package common defines shared constants and sentinel errors used across
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

// ErrInvalidToken means a token could not be parsed.
var ErrInvalidToken = errors.New("invalid token")
