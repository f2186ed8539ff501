// Package i18n holds the user-facing strings for each supported language.
package i18n

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iammorganparry/feel/internal/models"
)

//go:embed messages.yaml
var rawMessages []byte

var catalog = mustParse(rawMessages)

func mustParse(data []byte) map[models.Language]map[string]string {
	var out map[models.Language]map[string]string
	if err := yaml.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("i18n: parse messages.yaml: %v", err))
	}
	return out
}

// T returns the message for key in lang, formatted with args. Unknown
// languages fall back to the default language; unknown keys return the key.
func T(lang models.Language, key string, args ...any) string {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[models.DefaultLanguage]
	}
	msg, ok := msgs[key]
	if !ok {
		msg, ok = catalog[models.DefaultLanguage][key]
		if !ok {
			return key
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Keys returns every key defined for lang.
func Keys(lang models.Language) []string {
	keys := make([]string, 0, len(catalog[lang]))
	for k := range catalog[lang] {
		keys = append(keys, k)
	}
	return keys
}
