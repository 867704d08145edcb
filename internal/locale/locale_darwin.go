//go:build darwin

package locale

import (
	"os/exec"
	"strings"
)

// platformLocale reads the AppleLocale user default (e.g. "en_US").
func platformLocale() string {
	out, err := exec.Command("defaults", "read", "-g", "AppleLocale").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
