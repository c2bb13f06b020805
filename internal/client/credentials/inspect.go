package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is what Inspect can tell about a credential without verifying it.
type Info struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]any
}

// Expired reports whether the token's exp claim lies before now. Zero
// ExpiresAt (no claim) never counts as expired.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the JWT claims of c without checking the signature. It is
// meant for display (whoami); nothing in the request path relies on it.
func Inspect(c Credential) (Info, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(c), claims); err != nil {
		return Info{}, fmt.Errorf("inspect credential: %w", err)
	}

	info := Info{Claims: map[string]any(claims)}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
