package v1

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/response"
	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC      domain.AuthUsecase
	cookies     middleware.Cookies
	frontendURL string
	publicEntry string
}

type AuthHandlerConfig struct {
	Cookies     middleware.Cookies
	FrontendURL string
	PublicEntry string
}

// NewAuthHandler registers the auth routes. public carries the auth rate
// limit; optional resolves the session without requiring it.
func NewAuthHandler(public, optional, protected *gin.RouterGroup, authUC domain.AuthUsecase, cfg AuthHandlerConfig) {
	handler := &AuthHandler{
		authUC:      authUC,
		cookies:     cfg.Cookies,
		frontendURL: cfg.FrontendURL,
		publicEntry: cfg.PublicEntry,
	}

	publicAuth := public.Group("/auth")
	{
		publicAuth.POST("/signup", handler.SignUp)
		publicAuth.POST("/login", handler.Login)
		publicAuth.GET("/google", handler.Google)
		publicAuth.GET("/google/callback", handler.GoogleCallback)
	}

	optional.POST("/auth/logout", handler.Logout)
	optional.GET("/auth/session", handler.Session)

	protected.GET("/auth/me", handler.Me)
}

type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
}

type SessionResponse struct {
	Session  domain.SessionState `json:"session"`
	Redirect string              `json:"redirect,omitempty"`
	Nav      bool                `json:"show_auth_nav"`
}

func clientMeta(c *gin.Context) domain.ClientMeta {
	return domain.ClientMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *AuthHandler) respondAuth(c *gin.Context, code int, message string, res *domain.AuthResult) {
	h.cookies.SetSession(c, res.Token, res.ExpiresAt)
	response.Success(c, code, message, AuthResponse{
		User:      res.User,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// SignUp godoc
// @Summary      Sign up with email and password
// @Description  Creates the account and opens a session. The password needs 8 to 15 characters with an uppercase letter, a lowercase letter and a special character.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.SignUpInput  true  "Credentials"
// @Success      201   {object}  response.Response{data=AuthResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req domain.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email, password and confirmation are required"))
		return
	}

	res, err := h.authUC.SignUp(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		c.Error(err)
		return
	}
	h.respondAuth(c, http.StatusCreated, "Account created", res)
}

// Login godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.SignInInput  true  "Credentials"
// @Success      200   {object}  response.Response{data=AuthResponse}
// @Failure      401   {object}  response.Response
// @Failure      429   {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.SignInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email and password are required"))
		return
	}

	res, err := h.authUC.SignIn(c.Request.Context(), req, clientMeta(c))
	if err != nil {
		c.Error(err)
		return
	}
	h.respondAuth(c, http.StatusOK, "Signed in", res)
}

// Google godoc
// @Summary      Start Google sign-in
// @Description  Redirects to Google's account chooser.
// @Tags         auth
// @Success      302
// @Failure      503  {object}  response.Response
// @Router       /auth/google [get]
func (h *AuthHandler) Google(c *gin.Context) {
	target, err := h.authUC.ProviderAuthURL(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback godoc
// @Summary      Finish Google sign-in
// @Description  Verifies the state, exchanges the code and redirects to the app with a session cookie.
// @Tags         auth
// @Param        state  query  string  true  "One-time state"
// @Param        code   query  string  true  "Authorization code"
// @Success      302
// @Router       /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.redirectWithError(c, "Google sign-in was cancelled.")
		return
	}

	res, err := h.authUC.SignInWithProvider(c.Request.Context(), c.Query("state"), c.Query("code"), clientMeta(c))
	if err != nil {
		logger.Log.Warn("google callback failed", "error", err)
		msg := "Something went wrong. Please try again."
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		h.redirectWithError(c, msg)
		return
	}

	h.cookies.SetSession(c, res.Token, res.ExpiresAt)
	c.Redirect(http.StatusFound, h.frontendURL+"/")
}

func (h *AuthHandler) redirectWithError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, h.frontendURL+h.publicEntry+"?error="+url.QueryEscape(msg))
}

// Logout godoc
// @Summary      Sign out
// @Description  Revokes the session and clears the session cookies. Signing out twice is not an error.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearSession(c)

	sessionID := c.GetString(string(domain.KeySessionID))
	if sessionID == "" {
		if token := middleware.SessionToken(c); token != "" {
			if claims, err := h.authUC.ParseToken(token); err == nil {
				sessionID = claims.SessionID
			}
		}
	}
	if sessionID != "" {
		if err := h.authUC.SignOut(c.Request.Context(), sessionID, clientMeta(c)); err != nil {
			c.Error(err)
			return
		}
	}
	response.Success(c, http.StatusOK, "Signed out", nil)
}

// Session godoc
// @Summary      Current session state
// @Description  Live session state as seen by the route guard, including loading.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=SessionResponse}
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	decision := middleware.DecisionFrom(c)
	response.Success(c, http.StatusOK, "Session state", SessionResponse{
		Session:  middleware.SessionStateFrom(c),
		Redirect: decision.Redirect,
		Nav:      decision.ShowAuthNav,
	})
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.User}
// @Failure      401  {object}  response.Response
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentUser(c.Request.Context(), c.GetString(string(domain.KeyUserID)))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "User profile", user)
}
