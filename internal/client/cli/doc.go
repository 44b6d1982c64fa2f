// Package cli provides the interactive whatbmphotos command-line client.
//
// NewApp wires configuration, the encrypted credential store, the API
// client behind the session manager, and the gallery views. App.Run checks
// the stored session and then starts a REPL that blocks until the user
// exits.
//
// Key features:
//   - Sign-in with an emailed one-time password or with Google
//   - Home view of faces and photos with paging
//   - Face albums: rename, delete, delete and download photos
//   - Linking photos to faces
//   - Upload, language selection, logout and account deletion
//
// A server 401 that survives a token refresh signs the user out once,
// wherever it happened. See runREPL for the command set.
package cli
