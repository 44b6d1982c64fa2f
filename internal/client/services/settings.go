package services

import (
	"context"

	"github.com/dmitrijs2005/whatbmphotos/internal/i18n"
)

// Preferences persists the UI language.
type Preferences interface {
	Language(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, lang string) error
}

type SettingsService interface {
	// Language returns the active language code.
	Language() string
	// SetLanguage switches and persists the language.
	SetLanguage(ctx context.Context, code string) error
	// Restore applies the persisted language, if any.
	Restore(ctx context.Context) error
}

type settingsService struct {
	prefs Preferences
	tr    *i18n.Translator
}

func NewSettingsService(prefs Preferences, tr *i18n.Translator) SettingsService {
	return &settingsService{prefs: prefs, tr: tr}
}

func (s *settingsService) Language() string {
	return s.tr.Language()
}

func (s *settingsService) SetLanguage(ctx context.Context, code string) error {
	if err := s.tr.SetLanguage(code); err != nil {
		return err
	}
	return s.prefs.SetLanguage(ctx, code)
}

func (s *settingsService) Restore(ctx context.Context) error {
	code, err := s.prefs.Language(ctx)
	if err != nil {
		return err
	}
	if code == "" || !i18n.Supported(code) {
		return nil
	}
	return s.tr.SetLanguage(code)
}
