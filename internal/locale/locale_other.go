//go:build !darwin

package locale

func platformLocale() string {
	return ""
}
