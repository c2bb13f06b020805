package credentials

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CookieName is the cookie slot used by CookieStore.
const CookieName = "access_token"

// CookieStore keeps the credential as a cookie in jar, scoped to the API
// base URL. The jar serialises access, which makes Set an atomic replace.
type CookieStore struct {
	jar  http.CookieJar
	base *url.URL
}

func NewCookieStore(jar http.CookieJar, baseURL string) (*CookieStore, error) {
	if jar == nil {
		return nil, fmt.Errorf("cookie store: nil jar")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("cookie store: parse base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("cookie store: base url %q has no host", baseURL)
	}
	root := *u
	root.Path = "/"
	root.RawQuery = ""
	root.Fragment = ""
	return &CookieStore{jar: jar, base: &root}, nil
}

func (s *CookieStore) Get(ctx context.Context) (Credential, bool, error) {
	for _, c := range s.jar.Cookies(s.base) {
		if c.Name == CookieName && c.Value != "" {
			return Credential(c.Value), true, nil
		}
	}
	return "", false, nil
}

func (s *CookieStore) Set(ctx context.Context, c Credential) error {
	if c == "" {
		return ErrEmptyCredential
	}
	s.jar.SetCookies(s.base, []*http.Cookie{{
		Name:     CookieName,
		Value:    string(c),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}})
	return nil
}

func (s *CookieStore) Clear(ctx context.Context) error {
	s.jar.SetCookies(s.base, []*http.Cookie{{
		Name:   CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}})
	return nil
}
