package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	LangEN = "en"
	LangES = "es"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// EmbeddedLocales returns the locale files compiled into the binary.
func EmbeddedLocales() fs.FS {
	locales, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		panic(err)
	}
	return locales
}

// Manager holds one catalog per language, each already merged over English.
// Catalogs are shared and must be treated as read-only.
type Manager struct {
	defaultLanguage string
	catalogs        map[string]map[string]string
	supported       []string
	matcher         language.Matcher
	matchOrder      []string
}

// NewManager loads every <language>.json file at the root of locales.
// English is required because every other catalog falls back to it.
func NewManager(defaultLanguage string, locales fs.FS) (*Manager, error) {
	raw, err := readCatalogs(locales)
	if err != nil {
		return nil, err
	}
	english, ok := raw[LangEN]
	if !ok {
		return nil, fmt.Errorf("required locale %q missing", LangEN)
	}

	manager := &Manager{catalogs: make(map[string]map[string]string, len(raw))}
	for name, messages := range raw {
		merged := make(map[string]string, len(english))
		for key, value := range english {
			merged[key] = value
		}
		for key, value := range messages {
			if strings.TrimSpace(value) != "" {
				merged[key] = value
			}
		}
		manager.catalogs[name] = merged
		manager.supported = append(manager.supported, name)
	}
	sort.Strings(manager.supported)

	// English leads the matcher list so unmatched preferences resolve to it.
	tags := []language.Tag{language.English}
	manager.matchOrder = []string{LangEN}
	for _, name := range manager.supported {
		if name != LangEN {
			tags = append(tags, language.Make(name))
			manager.matchOrder = append(manager.matchOrder, name)
		}
	}
	manager.matcher = language.NewMatcher(tags)

	manager.defaultLanguage = LangEN
	manager.defaultLanguage = manager.NormalizeLanguage(defaultLanguage)
	return manager, nil
}

func readCatalogs(locales fs.FS) (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(locales, ".")
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	catalogs := map[string]map[string]string{}
	for _, entry := range entries {
		extension := path.Ext(entry.Name())
		if entry.IsDir() || extension != ".json" {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(entry.Name(), extension))

		content, err := fs.ReadFile(locales, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		messages := map[string]string{}
		if err := json.Unmarshal(content, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		if len(messages) == 0 {
			return nil, fmt.Errorf("locale %s is empty", name)
		}
		catalogs[name] = messages
	}
	if len(catalogs) == 0 {
		return nil, errors.New("no locales found")
	}
	return catalogs, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	return append([]string(nil), manager.supported...)
}

// NormalizeLanguage maps tags like "es-MX" or "ES_mx" onto a loaded catalog.
func (manager *Manager) NormalizeLanguage(raw string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
	if err != nil {
		return manager.defaultLanguage
	}
	base, _ := tag.Base()
	if _, ok := manager.catalogs[base.String()]; ok {
		return base.String()
	}
	return manager.defaultLanguage
}

// DetectFromAcceptLanguage honours q-weights and returns the default when
// nothing supported is requested.
func (manager *Manager) DetectFromAcceptLanguage(header string) string {
	preferred, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(preferred) == 0 {
		return manager.defaultLanguage
	}
	_, index, confidence := manager.matcher.Match(preferred...)
	if confidence == language.No {
		return manager.defaultLanguage
	}
	return manager.matchOrder[index]
}

func (manager *Manager) Messages(lang string) map[string]string {
	return manager.catalogs[manager.NormalizeLanguage(lang)]
}

func (manager *Manager) Translate(lang string, key string) string {
	if value, ok := manager.Messages(lang)[key]; ok {
		return value
	}
	return key
}
