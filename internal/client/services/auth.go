// Package services contains the application services of the whatbmphotos
// client: sign-in flows, account housekeeping, settings and photo
// upload/download. User input is validated here, before any network call.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/client"
	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

// Input length limits, counted in characters.
const (
	MinEmailLen = 3
	MaxEmailLen = 100
	MinOTPLen   = 4
	MaxOTPLen   = 10
	MinNameLen  = 1
	MaxNameLen  = 50
)

// ErrInvalidDeepLink is returned for callback URLs that are not a Google
// sign-in result or lack a token.
var ErrInvalidDeepLink = errors.New("login failed")

// AuthAPI is the part of the API client used by AuthService.
type AuthAPI interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) (*client.VerifyOTPResponse, error)
	GoogleAuthURL(ctx context.Context) (string, error)
	ChangeName(ctx context.Context, name string) error
	Logout(ctx context.Context, allDevices bool) error
	DeleteAccount(ctx context.Context) (string, error)
}

// Session stores and drops the token pair and publishes the auth state.
type Session interface {
	SignIn(ctx context.Context, access, refresh string) error
	SignOut(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

// Translator resolves user-facing message keys.
type Translator interface {
	T(key string) string
	Tf(key string, args ...any) string
}

// AuthService defines the sign-in and account operations.
//
// Contract:
//   - SendOTP / VerifyOTP: email one-time-password sign-in. VerifyOTP stores
//     the tokens and reports whether the account still needs a name.
//   - GoogleAuthURL / HandleDeepLink: browser-based Google sign-in.
//   - Logout: best effort on the server, always local.
//   - DeleteAccount: local credentials go only after the server agreed.
type AuthService interface {
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) (needName bool, err error)
	ChangeName(ctx context.Context, name string) error
	GoogleAuthURL(ctx context.Context) (string, error)
	HandleDeepLink(ctx context.Context, rawURL string) error
	IsAuthenticated(ctx context.Context) bool
	Logout(ctx context.Context, allDevices bool) error
	DeleteAccount(ctx context.Context) (string, error)
}

type authService struct {
	api     AuthAPI
	session Session
	tr      Translator
	log     logging.Logger
}

func NewAuthService(api AuthAPI, session Session, tr Translator, log logging.Logger) AuthService {
	return &authService{api: api, session: session, tr: tr, log: log.With("component", "auth")}
}

func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

func (s *authService) validateEmail(email string) error {
	if !between(email, MinEmailLen, MaxEmailLen) {
		return &client.ValidationError{Field: "email", Message: s.tr.T("login.invalidEmail")}
	}
	return nil
}

func (s *authService) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := s.validateEmail(email); err != nil {
		return err
	}
	return s.api.SendOTP(ctx, email)
}

func (s *authService) VerifyOTP(ctx context.Context, email, otp string) (bool, error) {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if err := s.validateEmail(email); err != nil {
		return false, err
	}
	if !between(otp, MinOTPLen, MaxOTPLen) {
		return false, &client.ValidationError{Field: "otp", Message: s.tr.T("login.invalidOtp")}
	}

	resp, err := s.api.VerifyOTP(ctx, email, otp)
	if err != nil {
		return false, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return false, &client.RejectedError{Message: s.tr.T("login.somethingWentWrong")}
	}
	if err := s.session.SignIn(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return false, err
	}
	s.log.Info(ctx, "signed in", "method", "otp", "need_name", resp.NeedNameUpdate)
	return resp.NeedNameUpdate, nil
}

func (s *authService) ChangeName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !between(name, MinNameLen, MaxNameLen) {
		return &client.ValidationError{Field: "name", Message: s.tr.T("login.invalidName")}
	}
	return s.api.ChangeName(ctx, name)
}

func (s *authService) GoogleAuthURL(ctx context.Context) (string, error) {
	return s.api.GoogleAuthURL(ctx)
}

// HandleDeepLink completes Google sign-in from a callback URL of the form
// whatbmphotos://google-auth/callback?access_token=...&refresh_token=...
func (s *authService) HandleDeepLink(ctx context.Context, rawURL string) error {
	access, refresh, err := ParseDeepLink(rawURL)
	if err != nil {
		return err
	}
	if err := s.session.SignIn(ctx, access, refresh); err != nil {
		return err
	}
	s.log.Info(ctx, "signed in", "method", "google")
	return nil
}

// ParseDeepLink extracts the token pair from a Google callback URL.
func ParseDeepLink(rawURL string) (access, refresh string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidDeepLink, err)
	}
	if u.Scheme != common.DeepLinkScheme || u.Host != "google-auth" || strings.TrimSuffix(u.Path, "/") != "/callback" {
		return "", "", ErrInvalidDeepLink
	}
	q := u.Query()
	access, refresh = q.Get("access_token"), q.Get("refresh_token")
	if access == "" || refresh == "" {
		return "", "", ErrInvalidDeepLink
	}
	return access, refresh, nil
}

func (s *authService) IsAuthenticated(ctx context.Context) bool {
	return s.session.IsAuthenticated(ctx)
}

// Logout tells the server and then drops the local tokens whatever the
// server said.
func (s *authService) Logout(ctx context.Context, allDevices bool) error {
	if err := s.api.Logout(ctx, allDevices); err != nil {
		s.log.Warn(ctx, "server logout failed", "all_devices", allDevices, "error", err)
	}
	return s.session.SignOut(ctx)
}

// DeleteAccount deletes the account and, on success, the local tokens. It
// returns the server's message.
func (s *authService) DeleteAccount(ctx context.Context) (string, error) {
	msg, err := s.api.DeleteAccount(ctx)
	if err != nil {
		return "", err
	}
	if err := s.session.SignOut(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}
