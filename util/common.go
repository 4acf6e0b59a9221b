package util

import (
	"net/url"
	"strings"

	"github.com/pterm/pterm"
)

func Contains(list []string, str string) bool {
	for _, v := range list {
		if v == str {
			return true
		}
	}
	return false
}

func Fatal(err error) {
	if err != nil {
		pterm.Fatal.Println(err)
	}
}

// SanitizeInstanceId turns a versions/ folder name into an instance id.
// Every rune outside [A-Za-z0-9_-] becomes '_'. Distinct folders may collide
// ("1.20.1" and "1_20_1" both give "ver_1_20_1"); that is accepted.
func SanitizeInstanceId(folder string) string {
	var b strings.Builder
	b.WriteString("ver_")
	for _, r := range folder {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SafeFileName reports whether name can be used as a leaf inside an instance subdirectory.
func SafeFileName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// UsableUrl reports whether raw is an absolute http or https url with a host.
func UsableUrl(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")
}
