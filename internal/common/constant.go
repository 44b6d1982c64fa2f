// Package common contains shared constants and sentinel errors used across
// the whatbmphotos client components.
package common

// Outbound HTTP header names.
const (
	AuthorizationHeaderName = "Authorization"
	RefreshTokenHeaderName  = "x-refresh-token"
	RequestIDHeaderName     = "X-Request-ID"
)

// BearerPrefix is prepended to the access token in the Authorization header.
const BearerPrefix = "Bearer "

// Keys used in the local metadata store.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	LanguageKey     = "language"
	KDFSaltKey      = "kdf_salt"
)

// DeepLinkScheme is the custom URI scheme the OAuth provider redirects to.
const DeepLinkScheme = "whatbmphotos"
