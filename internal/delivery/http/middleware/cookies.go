package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// AuthCookieName carries the session token.
	AuthCookieName = "auth_token"
	// HintCookieName is the client-readable "was signed in" cache.
	HintCookieName = "authenticated"
	// FreshLoginCookieName marks the first page load after signing in.
	FreshLoginCookieName = "fresh_login"
)

type Cookies struct {
	Secure bool
	Domain string
}

// SetSession stores the token and marks the next page load as a fresh login.
func (k Cookies) SetSession(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, maxAge, "/", k.Domain, k.Secure, true)
	c.SetCookie(HintCookieName, "true", maxAge, "/", k.Domain, k.Secure, false)
	c.SetCookie(FreshLoginCookieName, "true", 300, "/", k.Domain, k.Secure, false)
}

func (k Cookies) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, "", -1, "/", k.Domain, k.Secure, true)
	c.SetCookie(HintCookieName, "", -1, "/", k.Domain, k.Secure, false)
	c.SetCookie(FreshLoginCookieName, "", -1, "/", k.Domain, k.Secure, false)
}

func (k Cookies) setHint(c *gin.Context, authenticated bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	if authenticated {
		c.SetCookie(HintCookieName, "true", 0, "/", k.Domain, k.Secure, false)
		return
	}
	c.SetCookie(HintCookieName, "", -1, "/", k.Domain, k.Secure, false)
}

func (k Cookies) consumeFreshLogin(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FreshLoginCookieName, "", -1, "/", k.Domain, k.Secure, false)
}
