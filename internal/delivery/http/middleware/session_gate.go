package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/session"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/logger"
	"github.com/divyadhiman22/MyNotes/pkg/security"

	"github.com/gin-gonic/gin"
)

type GateMode int

const (
	// GateOptional resolves the session but never blocks.
	GateOptional GateMode = iota
	// GatePage applies the navigation policy with redirects.
	GatePage
	// GateAPI requires a live session and answers 401 otherwise.
	GateAPI
)

type SessionGate struct {
	auth        domain.AuthUsecase
	registry    *session.Registry
	cookies     Cookies
	loadTimeout time.Duration
	audit       *security.SecurityLogger
}

func NewSessionGate(auth domain.AuthUsecase, registry *session.Registry, cookies Cookies, loadTimeout time.Duration, audit *security.SecurityLogger) *SessionGate {
	if loadTimeout <= 0 {
		loadTimeout = 3 * time.Second
	}
	return &SessionGate{auth: auth, registry: registry, cookies: cookies, loadTimeout: loadTimeout, audit: audit}
}

// Handle gates requests on the live session state. The hint cookie is never
// trusted for access; it is rewritten whenever it disagrees with the stream.
func (g *SessionGate) Handle(mode GateMode) gin.HandlerFunc {
	policy := g.registry.Policy()

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		state, ws, claims, err := g.resolve(c)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		if state.IsLoading && (mode == GateAPI || (mode == GatePage && policy.IsProtected(path))) {
			c.Header("Retry-After", "1")
			c.Error(apperror.Unavailable("Your session is still loading. Please try again."))
			c.Abort()
			return
		}

		fresh := hasCookie(c, FreshLoginCookieName)
		decision := policy.Decide(state, path, fresh)

		// Bearer clients keep no cookies to reconcile.
		if !state.IsLoading && !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			if hasCookie(c, HintCookieName) != state.IsAuthenticated {
				g.cookies.setHint(c, state.IsAuthenticated)
			}
			if !state.IsAuthenticated && hasCookie(c, AuthCookieName) {
				c.SetCookie(AuthCookieName, "", -1, "/", g.cookies.Domain, g.cookies.Secure, true)
			}
			if fresh && mode == GatePage {
				g.cookies.consumeFreshLogin(c)
			}
		}

		if !state.IsAuthenticated && !state.IsLoading {
			switch {
			case mode == GateAPI:
				g.logUnauthorized(c, path)
				c.Error(apperror.Unauthorized("Please sign in to continue"))
				c.Abort()
				return
			case mode == GatePage && decision.Redirect != "":
				g.logUnauthorized(c, path)
			}
		}

		if mode == GatePage && decision.Redirect != "" {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}

		c.Set(string(domain.KeySession), state)
		c.Set(string(domain.KeyDecision), decision)
		if state.IsAuthenticated {
			c.Set(string(domain.KeyUserID), state.UserID)
			c.Set(string(domain.KeyUserEmail), state.Email)
			c.Set(string(domain.KeySessionID), claims.SessionID)
			c.Set(string(domain.KeyWorkspace), ws)
		}
		c.Next()
	}
}

var signedOut = domain.SessionState{}

func (g *SessionGate) resolve(c *gin.Context) (domain.SessionState, *session.Workspace, *domain.TokenClaims, error) {
	token := SessionToken(c)
	if token == "" {
		return signedOut, nil, nil, nil
	}
	claims, err := g.auth.ParseToken(token)
	if err != nil || claims.SessionID == "" {
		return signedOut, nil, nil, nil
	}

	ws, err := g.registry.Acquire(c.Request.Context(), claims.SessionID, hasCookie(c, HintCookieName))
	if err != nil {
		logger.Log.Error("session subscribe failed", "session_id", claims.SessionID, "error", err)
		return signedOut, nil, nil, apperror.Remote(err)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), g.loadTimeout)
	defer cancel()
	if err := ws.Guard.AwaitLoaded(ctx); err != nil {
		return domain.SessionState{IsLoading: true}, nil, claims, nil
	}

	state := ws.Guard.State()
	if state.IsAuthenticated && state.UserID != claims.UserID {
		return signedOut, nil, nil, nil
	}
	return state, ws, claims, nil
}

func (g *SessionGate) logUnauthorized(c *gin.Context, path string) {
	reqID, _ := c.Get("RequestID")
	reqIDStr, _ := reqID.(string)
	g.audit.Log(c.Request.Context(), security.SecurityEvent{
		Event:     security.EventUnauthorizedAccess,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: reqIDStr,
		Details:   map[string]interface{}{"path": path},
	})
}

// SessionToken reads the bearer header first, then the auth cookie.
func SessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	v, _ := c.Cookie(AuthCookieName)
	return v
}

// WorkspaceFrom returns the workspace set by the gate, or nil.
func WorkspaceFrom(c *gin.Context) *session.Workspace {
	v, ok := c.Get(string(domain.KeyWorkspace))
	if !ok {
		return nil
	}
	ws, _ := v.(*session.Workspace)
	return ws
}

func DecisionFrom(c *gin.Context) session.Decision {
	v, _ := c.Get(string(domain.KeyDecision))
	d, _ := v.(session.Decision)
	return d
}

func SessionStateFrom(c *gin.Context) domain.SessionState {
	v, _ := c.Get(string(domain.KeySession))
	st, _ := v.(domain.SessionState)
	return st
}
