// Package locale detects the user's preferred UI language.
package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Fallback is reported when no system locale can be determined.
const Fallback = "en"

// envKeys are consulted in POSIX precedence order.
var envKeys = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Default returns the system locale as a BCP 47 tag such as "de-DE",
// or Fallback when nothing usable is configured.
func Default() string {
	return detect(os.Getenv, platformLocale)
}

func detect(getenv func(string) string, platform func() string) string {
	for _, key := range envKeys {
		if tag, ok := Parse(getenv(key)); ok {
			return tag
		}
	}
	if tag, ok := Parse(platform()); ok {
		return tag
	}
	return Fallback
}

// Parse normalizes a POSIX locale name ("de_DE.UTF-8", "sr_RS@latin") or a
// BCP 47 tag into canonical BCP 47 form. The "C" and "POSIX" locales carry
// no language and are reported as not ok.
func Parse(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return "", false
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// Match returns the entry of supported that best serves tag. The first
// supported entry wins when tag is unparsable or nothing matches.
func Match(tag string, supported []string) string {
	if len(supported) == 0 {
		return ""
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}

	want, err := language.Parse(tag)
	if err != nil {
		return supported[0]
	}

	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}
