// Package client contains the HTTP building blocks of the whatbmphotos client.
//
// # Overview
//
// The package provides:
//  1. Transport, which sends a Request against the API base URL with a JSON,
//     query or multipart payload, tags it with a request id and reads the
//     whole Response.
//  2. API, the typed endpoint methods. Public endpoints (OTP and Google
//     sign-in) go straight through the Transport; the rest go through an
//     Authenticator, normally the session manager, which adds the bearer
//     token and handles 401s.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations): an SQLite
//     database with embedded goose migrations.
//
// # Error Handling
//
// Failures fall into a small taxonomy callers can match with errors.Is and
// errors.As:
//
//   - *TransportError: no usable response; matches ErrUnavailable.
//   - *RequestError: a non-2xx status, rendered "Error <status>: <message>".
//   - *RejectedError: a 2xx body with success=false.
//   - *ValidationError: bad user input caught before the network.
//   - ErrUnauthorized: wrapped by the session layer once a 401 could not be
//     recovered.
//
// Message picks the text to show the user for any of them.
package client
