package cli

import (
	"context"
	"errors"
	"io"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Login runs the email one-time-password flow: ask for the email, send the
// code, read it without echo and verify it. Accounts without a name are
// asked for one before the gallery is shown.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.tr.T("login.email_placeholder"), a.out)
	if err != nil {
		return err
	}
	if err := a.authService.SendOTP(ctx, email); err != nil {
		a.rep.Fail(ctx, err, a.tr.T("login.anErrorOccurred"))
		return err
	}
	a.rep.Info(a.tr.T("login.otpSent"))

	otp, err := getSecret(a.reader, a.tr.T("login.otp_placeholder"), a.out)
	if err != nil {
		return err
	}
	needName, err := a.authService.VerifyOTP(ctx, email, otp)
	if err != nil {
		a.rep.Fail(ctx, err, a.tr.T("login.anErrorOccurred"))
		return err
	}

	if needName {
		if err := a.Name(ctx); err != nil {
			a.log.Warn(ctx, "name not set after sign-in", "error", err)
		}
	}
	return a.signedIn(ctx)
}

// Name asks for the account holder's name and saves it.
func (a *App) Name(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	name, err := getSimpleText(a.reader, a.tr.T("login.name_placeholder"), a.out)
	if err != nil {
		return err
	}
	if err := a.authService.ChangeName(ctx, name); err != nil {
		a.rep.Fail(ctx, err, a.tr.T("login.anErrorOccurred"))
		return err
	}
	return nil
}

// Google prints the Google sign-in URL and waits for the callback URL the
// browser was redirected to.
func (a *App) Google(ctx context.Context) error {
	u, err := a.authService.GoogleAuthURL(ctx)
	if err != nil {
		a.rep.Fail(ctx, err, a.tr.T("login.somethingWentWrong"))
		return err
	}
	a.printf("%s\n%s\n", a.tr.T("login.openInBrowser"), u)

	callback, err := getSimpleText(a.reader, "Callback URL", a.out)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if callback == "" {
		return nil
	}
	return a.Callback(ctx, callback)
}

// Callback completes Google sign-in from a whatbmphotos:// callback URL.
func (a *App) Callback(ctx context.Context, rawURL string) error {
	if err := a.authService.HandleDeepLink(ctx, rawURL); err != nil {
		a.rep.Fail(ctx, err, a.tr.T("login.somethingWentWrong"))
		return err
	}
	return a.signedIn(ctx)
}

func (a *App) signedIn(ctx context.Context) error {
	a.rep.Success(a.tr.T("login.welcome"))
	return a.Home(ctx)
}

// Logout signs out on the server, best effort, and always locally.
func (a *App) Logout(ctx context.Context, allDevices bool) error {
	err := a.authService.Logout(ctx, allDevices)
	a.closeViews()
	if err != nil {
		a.log.Error(ctx, "logout", "error", err)
		return err
	}
	a.rep.Success(a.tr.T("settings.logoutSuccess"))
	return nil
}

// DeleteAccount asks for confirmation and deletes the account. Local
// credentials are kept when the server refuses.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	if !Confirm(a.reader, "Delete your account and all photos?", a.out) {
		return nil
	}
	msg, err := a.authService.DeleteAccount(ctx)
	if err != nil {
		a.rep.Fail(ctx, err, a.tr.T("settings.deleteAccountFailed"))
		return err
	}
	a.closeViews()
	if msg == "" {
		msg = a.tr.T("settings.accountDeleted")
	}
	a.rep.Success(msg)
	return nil
}
