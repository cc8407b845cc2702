package mode

import (
	"net/http"
	"strings"
	"time"
)

// CookieOptions controls the attributes of cookies written by HTTPJar.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

const defaultCookieMaxAge = 365 * 24 * time.Hour

// HTTPJar is a CookieJar scoped to one request. Reads come from the request's
// Cookie header; writes emit Set-Cookie and are visible to later reads on the
// same jar.
type HTTPJar struct {
	w       http.ResponseWriter
	raw     string
	opts    CookieOptions
	written map[string]string
}

// NewHTTPJar builds a jar for the request/response pair.
func NewHTTPJar(w http.ResponseWriter, r *http.Request, opts CookieOptions) *HTTPJar {
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultCookieMaxAge
	}
	return &HTTPJar{
		w:       w,
		raw:     strings.Join(r.Header.Values("Cookie"), "; "),
		opts:    opts,
		written: map[string]string{},
	}
}

// Get implements CookieJar.
func (j *HTTPJar) Get(name string) (string, bool) {
	if v, ok := j.written[name]; ok {
		return v, true
	}
	return CookieValue(j.raw, name)
}

// Set implements CookieJar. The cookie stays readable from scripts so the
// page can pick the stylesheet before first paint.
func (j *HTTPJar) Set(name, value string) {
	j.written[name] = value
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(j.opts.MaxAge / time.Second),
		Secure:   j.opts.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
