package mode

import (
	"regexp"
	"strings"
)

// Mode is the light/dark display theme of the page.
type Mode int

const (
	Light Mode = iota
	Dark
)

// CookieName is the cookie that persists the display mode across sessions.
const CookieName = "mode"

const (
	lightValue = "light"
	darkValue  = "dark"
)

// Presentation defaults for the mode stylesheet link and toggle icon.
const (
	DefaultDarkStylesheet = "/assets/css/nightmode.css"
	SunIcon               = "fas fa-sun"
	MoonIcon              = "fas fa-moon"
)

func (m Mode) String() string {
	if m == Dark {
		return darkValue
	}
	return lightValue
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Parse maps a persisted value to a Mode. Only "dark" selects Dark.
func Parse(v string) Mode {
	if v == darkValue {
		return Dark
	}
	return Light
}

// CookieJar reads and writes cookies by name.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string)
}

// Read returns the persisted mode. The bool is false when no cookie is present,
// in which case the mode is Light.
func Read(jar CookieJar) (Mode, bool) {
	v, ok := jar.Get(CookieName)
	if !ok {
		return Light, false
	}
	return Parse(v), true
}

// Write persists m.
func Write(jar CookieJar, m Mode) {
	jar.Set(CookieName, m.String())
}

// CookieValue extracts the value for name from a raw Cookie header string.
// The bool reports whether the key is present at all; a present key may
// still carry an empty value.
func CookieValue(raw, name string) (string, bool) {
	if raw == "" || name == "" {
		return "", false
	}
	re := cookiePattern(name)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

var patternCache = map[string]*regexp.Regexp{
	CookieName: compileCookiePattern(CookieName),
}

func cookiePattern(name string) *regexp.Regexp {
	if re, ok := patternCache[name]; ok {
		return re
	}
	return compileCookiePattern(name)
}

func compileCookiePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|;)\s*` + regexp.QuoteMeta(name) + `=([^;]*)`)
}
