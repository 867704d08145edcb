package locale

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"de_DE.UTF-8", "de-DE", true},
		{"en_US", "en-US", true},
		{"en", "en", true},
		{"pt-BR", "pt-BR", true},
		{"sr_RS@latin", "sr-RS", true},
		{"en_US@rg=dezzzz", "en-US", true},
		{"C", "", false},
		{"C.UTF-8", "", false},
		{"POSIX", "", false},
		{"", "", false},
		{"!!", "", false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Parse(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDetect_EnvPrecedence(t *testing.T) {
	env := map[string]string{
		"LC_ALL":      "",
		"LC_MESSAGES": "de_DE.UTF-8",
		"LANG":        "en_US.UTF-8",
	}
	getenv := func(k string) string { return env[k] }

	if got := detect(getenv, func() string { return "fr_FR" }); got != "de-DE" {
		t.Errorf("detect = %q, want %q", got, "de-DE")
	}

	env["LC_ALL"] = "it_IT"
	if got := detect(getenv, func() string { return "" }); got != "it-IT" {
		t.Errorf("detect = %q, want %q", got, "it-IT")
	}
}

func TestDetect_PlatformFallback(t *testing.T) {
	getenv := func(string) string { return "C" }

	if got := detect(getenv, func() string { return "fr_FR" }); got != "fr-FR" {
		t.Errorf("detect = %q, want %q", got, "fr-FR")
	}
	if got := detect(getenv, func() string { return "" }); got != Fallback {
		t.Errorf("detect = %q, want %q", got, Fallback)
	}
}

func TestMatch(t *testing.T) {
	supported := []string{"en", "de"}

	tests := map[string]string{
		"de-DE":   "de",
		"de-AT":   "de",
		"en-GB":   "en",
		"fr-FR":   "en",
		"garbage": "en",
	}
	for in, want := range tests {
		if got := Match(in, supported); got != want {
			t.Errorf("Match(%q) = %q, want %q", in, got, want)
		}
	}

	if got := Match("de", nil); got != "" {
		t.Errorf("Match with no supported languages = %q, want empty", got)
	}
}
