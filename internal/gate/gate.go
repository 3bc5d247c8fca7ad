// Package gate keeps unauthenticated shoppers out of the protected views.
package gate

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultProtected are the view prefixes that need a signed-in shopper.
var DefaultProtected = []string{"/cart", "/checkout", "/orders", "/admin"}

const LoginPath = "/login"

// Authenticator reports whether a shopper is signed in.
type Authenticator interface {
	IsAuthenticated() bool
}

// Decision is the outcome for one path.
type Decision struct {
	Allow    bool
	Redirect string
}

type Gate struct {
	auth      Authenticator
	protected []string
}

func New(auth Authenticator, protected ...string) *Gate {
	if len(protected) == 0 {
		protected = DefaultProtected
	}
	cleaned := make([]string, 0, len(protected))
	for _, p := range protected {
		cleaned = append(cleaned, "/"+strings.Trim(p, "/"))
	}
	return &Gate{auth: auth, protected: cleaned}
}

// Protected reports whether path lies under a guarded prefix. Matching is
// by whole path segments, so "/cartography" is not "/cart".
func (g *Gate) Protected(path string) bool {
	if path == "" {
		path = "/"
	}
	for _, prefix := range g.protected {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Decide allows public paths and signed-in shoppers; anything else is sent
// to the login view with the requested path kept in "next".
func (g *Gate) Decide(path string) Decision {
	if !g.Protected(path) || g.auth.IsAuthenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: LoginPath + "?next=" + url.QueryEscape(path)}
}

// Middleware applies Decide to every request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r.URL.Path)
		if !d.Allow {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NextPath returns a safe local path to continue to after login.
// Anything that is not a plain local path falls back to "/".
func NextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
