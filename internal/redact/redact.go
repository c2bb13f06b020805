// Package redact masks credentials before values reach logs or error text.
package redact

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const mask = "<redacted>"

var patterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)Authorization:\s*(?:Bearer|Basic)\s+[^\r\n\s]+`), "Authorization: " + mask},
	{regexp.MustCompile(`(?i)Cookie:\s*[^\r\n]+`), "Cookie: " + mask},
	{regexp.MustCompile(`(?i)Set-Cookie:\s*[^\r\n]+`), "Set-Cookie: " + mask},
	{regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-\._~\+/=]+`), "Bearer " + mask},
	{regexp.MustCompile(`([a-z][a-z0-9+\-.]*://)([^\s:@/]+):([^\s@/]+)@`), `$1` + mask + `@`},
	{regexp.MustCompile(`(?i)([?&](?:token|access[_-]?token|refresh[_-]?token|password|signature|api[_-]?key)=)([^&\s]+)`), `$1` + mask},
	{regexp.MustCompile(`(?i)"(access_token|refresh_token|token|password|signature|api_?key|secret)"\s*:\s*"[^"]*"`), `"$1":"` + mask + `"`},
}

// Secrets masks bearer tokens, cookies, URL credentials, secret query
// parameters and JSON secret fields. Idempotent.
func Secrets(s string) string {
	if s == "" {
		return s
	}
	out := s
	for _, p := range patterns {
		out = p.re.ReplaceAllString(out, p.repl)
	}
	return out
}

var sensitiveHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
}

// Headers returns a copy of h with sensitive headers replaced by a mask.
// The input is not mutated.
func Headers(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	out := make(http.Header, len(h))
	for k, vals := range h {
		ck := http.CanonicalHeaderKey(k)
		if _, ok := sensitiveHeaders[ck]; ok {
			out[ck] = []string{mask}
			continue
		}
		cpy := make([]string, len(vals))
		for i, v := range vals {
			cpy[i] = Secrets(v)
		}
		out[ck] = cpy
	}
	return out
}

// URL renders u without userinfo and with secret query values masked.
func URL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	return Secrets(strings.TrimSpace(c.String()))
}
