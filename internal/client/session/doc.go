// Package session owns the client's authentication state.
//
// Manager wraps every authenticated API call: it attaches the stored access
// token, and on HTTP 401 runs the refresh protocol once and replays the call
// once. Tokens live only in the CredentialStore; the manager keeps no copy,
// so every call reads storage.
//
// Refresh outcomes:
//   - ErrMissingCredentials: a token is absent, no network call was made.
//   - ErrRefreshExpired: the server rejected the refresh token with 401. The
//     access token is removed from storage, the refresh token is kept.
//   - *RefreshError: any other failure; storage is untouched.
//
// The authenticated flag is observable through State and Subscribe.
package session
