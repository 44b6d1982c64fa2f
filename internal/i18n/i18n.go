// Package i18n looks up user-facing strings by dotted key.
//
// Lookup tries the current language, then English, then returns the key
// itself.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// DefaultLanguage is the fallback catalog.
const DefaultLanguage = "en"

var ErrUnknownLanguage = errors.New("unknown language")

// Language is a selectable UI language.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported languages in display order.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hin", Name: "Hinglish"},
	{Code: "hi", Name: "हिंदी"},
}

type catalog map[string]string

var (
	loadOnce sync.Once
	catalogs map[string]catalog
	loadErr  error
)

func load() (map[string]catalog, error) {
	loadOnce.Do(func() {
		catalogs = make(map[string]catalog, len(Languages))
		for _, l := range Languages {
			raw, err := locales.ReadFile("locales/" + l.Code + ".yaml")
			if err != nil {
				loadErr = fmt.Errorf("i18n: %s: %w", l.Code, err)
				return
			}
			c, err := parse(raw)
			if err != nil {
				loadErr = fmt.Errorf("i18n: %s: %w", l.Code, err)
				return
			}
			catalogs[l.Code] = c
		}
	})
	return catalogs, loadErr
}

// parse flattens nested YAML maps into dotted keys.
func parse(raw []byte) (catalog, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	out := catalog{}
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out catalog) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case string:
			out[key] = v
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// Supported reports whether code names a known language.
func Supported(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Translator resolves keys for the selected language. It is safe for
// concurrent use.
type Translator struct {
	mu       sync.RWMutex
	lang     string
	catalogs map[string]catalog
}

// New returns a Translator for lang. An empty or unknown code selects
// DefaultLanguage.
func New(lang string) (*Translator, error) {
	c, err := load()
	if err != nil {
		return nil, err
	}
	if !Supported(lang) {
		lang = DefaultLanguage
	}
	return &Translator{lang: lang, catalogs: c}, nil
}

func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

func (t *Translator) SetLanguage(code string) error {
	if !Supported(code) {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	t.mu.Lock()
	t.lang = code
	t.mu.Unlock()
	return nil
}

func (t *Translator) T(key string) string {
	t.mu.RLock()
	lang := t.lang
	t.mu.RUnlock()

	if v, ok := t.catalogs[lang][key]; ok {
		return v
	}
	if v, ok := t.catalogs[DefaultLanguage][key]; ok {
		return v
	}
	return key
}

// Tf formats the translation of key with args.
func (t *Translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

// Keys returns the sorted keys of a language catalog.
func (t *Translator) Keys(code string) []string {
	keys := make([]string, 0, len(t.catalogs[code]))
	for k := range t.catalogs[code] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
