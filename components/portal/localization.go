package portal

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// ResolveLocalizedValue picks the closest translation for locale using BCP 47
// matching ("es-mx" falls back to "es"), then the "default" entry, then
// fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	if requested := normalizeLocale(locale); requested != "" {
		keys := make([]string, 0, len(values))
		for key, value := range values {
			if key != "default" && value != "" {
				keys = append(keys, key)
			}
		}
		slices.Sort(keys)
		tags := make([]language.Tag, 0, len(keys))
		supported := make([]string, 0, len(keys))
		for _, key := range keys {
			tag, err := language.Parse(key)
			if err != nil {
				continue
			}
			tags = append(tags, tag)
			supported = append(supported, key)
		}
		if want, err := language.Parse(requested); err == nil && len(tags) > 0 {
			_, idx, conf := language.NewMatcher(tags).Match(want)
			if conf != language.No && idx < len(supported) {
				return values[supported[idx]]
			}
		}
	}
	if value := values["default"]; value != "" {
		return value
	}
	return fallback
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(locale)), "_", "-")
}
