package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/client/session"
	"github.com/dmitrijs2005/whatbmphotos/internal/i18n"
)

// Status asks the server whether the stored session is valid and prints
// what the access token says about it.
func (a *App) Status(ctx context.Context) error {
	ok := a.authService.IsAuthenticated(ctx)
	a.printf("authenticated: %t\n", ok)
	a.printf("server: %s\n", a.config.BaseURL)
	a.printf("language: %s\n", a.settingsService.Language())

	info, err := a.session.Claims(ctx)
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		return nil
	case err != nil:
		a.log.Warn(ctx, "access token unreadable", "error", err)
		return nil
	}
	if info.Subject != "" {
		a.printf("user: %s\n", info.Subject)
	}
	switch {
	case info.Expired(time.Now()):
		a.printf("token expired: %s\n", info.ExpiresAt.Local().Format(time.RFC3339))
	case !info.ExpiresAt.IsZero():
		a.printf("token expires: %s\n", info.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}

// Lang prints the languages when code is empty, otherwise switches to code
// and remembers it.
func (a *App) Lang(ctx context.Context, code string) error {
	if code == "" {
		current := a.settingsService.Language()
		for _, l := range i18n.Languages {
			mark := " "
			if l.Code == current {
				mark = "*"
			}
			a.printf("%s %-4s %s\n", mark, l.Code, l.Name)
		}
		return nil
	}

	if err := a.settingsService.SetLanguage(ctx, code); err != nil {
		a.rep.Fail(ctx, err, err.Error())
		return err
	}
	a.rep.Success(a.tr.T("settings.language") + ": " + code)
	return nil
}
