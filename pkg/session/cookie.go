package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Cookies issues and reads the opaque session cookie.
type Cookies struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Ensure returns the request's session id, minting a new one when the request
// carries none or a malformed one. The cookie is written on every call so its
// expiry slides with the redis binding.
func (c Cookies) Ensure(w http.ResponseWriter, r *http.Request) string {
	id, ok := c.Read(r)
	if !ok {
		id = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.TTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Read returns the session id from the cookie when it is a valid uuid.
func (c Cookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return "", false
	}
	parsed, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessionID)
}

func IDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
