package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/service"
)

// AuthHandler owns every way into (and out of) a session: local
// register/login, the three social channels, logout, and the identity
// lookups the frontend polls.
//
// DEPENDENCY CHAIN:
//   - identity  *service.IdentityService → the single user-record upsert/lookup
//   - sessions  *auth.SessionService     → issues and clears the session cookie
//   - google/microsoft/github            → verify provider credentials
type AuthHandler struct {
	identity  *service.IdentityService
	sessions  *auth.SessionService
	google    *auth.GoogleProvider
	microsoft *auth.MicrosoftProvider
	github    *auth.GitHubProvider
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	identity *service.IdentityService,
	sessions *auth.SessionService,
	google *auth.GoogleProvider,
	microsoft *auth.MicrosoftProvider,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		identity:  identity,
		sessions:  sessions,
		google:    google,
		microsoft: microsoft,
		github:    github,
		logger:    logger,
	}
}

// profile is the public slice of a user record returned by login responses
// and GET /api/user.
type profile struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Google      bool   `json:"google,omitempty"`
	Microsoft   bool   `json:"microsoft,omitempty"`
	GitHub      bool   `json:"github,omitempty"`
}

func profileOf(u *model.User) profile {
	return profile{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Picture:     u.Picture,
		Google:      u.Google,
		Microsoft:   u.Microsoft,
		GitHub:      u.GitHub,
	}
}

// HandleRegister creates a password account and signs the caller in.
//
// HTTP: POST /api/auth/register {"username","email","password"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.identity.RegisterLocal(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Establish(w, user.Username); err != nil {
		h.logger.Error("register: establishing session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"username": user.Username,
		"profile":  profileOf(user),
	})
}

// HandleLogin authenticates a password account. The client may send a
// username, an email, or both — the service tries username first.
//
// HTTP: POST /api/auth/login {"username"|"email","password"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.identity.LoginLocal(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Establish(w, user.Username); err != nil {
		h.logger.Error("login: establishing session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"username": user.Username,
	})
}

// HandleLogout clears the session cookie. Idempotent — logging out twice is
// fine, and no authentication is required to log out.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// HandleGoogle signs in with a Google ID token obtained client-side.
//
// HTTP: POST /api/auth/google {"credential":"<id token>"}
func (h *AuthHandler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := h.google.Verify(r.Context(), req.Credential)
	if err != nil {
		h.logger.Warn("google login failed", slog.String("error", err.Error()))
		writeError(w, apperror.Auth("google verification failed"))
		return
	}

	h.finishSocial(w, r, identity)
}

// HandleMicrosoft signs in with an MSAL access token obtained client-side.
//
// HTTP: POST /api/auth/microsoft {"access_token":"..."}
func (h *AuthHandler) HandleMicrosoft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := h.microsoft.Verify(r.Context(), req.AccessToken)
	if err != nil {
		h.logger.Warn("microsoft login failed", slog.String("error", err.Error()))
		writeError(w, apperror.Auth("microsoft verification failed"))
		return
	}

	h.finishSocial(w, r, identity)
}

// finishSocial is the convergence point of the token-based social channels:
// upsert the user record, establish the session, answer with the profile.
func (h *AuthHandler) finishSocial(w http.ResponseWriter, r *http.Request, identity *auth.Identity) {
	user, err := h.identity.LoginSocial(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Establish(w, user.Username); err != nil {
		h.logger.Error("social login: establishing session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"username": user.Username,
		"profile":  profileOf(user),
	})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if !h.github.Configured() {
		writeError(w, apperror.Upstream("github", "GitHub login not configured"))
		return
	}

	// Random, unguessable state value
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a verified identity
//  3. Upsert the user record
//  4. Establish the session cookie
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: invalid state")
		writeError(w, apperror.Auth("invalid state"))
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub sends error= when the user denied authorization
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.Auth("missing OAuth code"))
		return
	}

	identity, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Auth("github authentication failed"))
		return
	}

	user, err := h.identity.LoginSocial(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.Establish(w, user.Username); err != nil {
		h.logger.Error("github callback: establishing session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe reports who is logged in. Anonymous requests get
// {"username": null} with a 200 — the frontend polls this on load and a 401
// would just be noise in the console.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"username": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"username": username})
}

// HandleUser returns the caller's own profile. Anonymous callers and stale
// sessions whose record has vanished get an empty object, not an error.
//
// HTTP: GET /api/user
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())

	user, err := h.identity.Get(r.Context(), username)
	if err != nil {
		// Stale session for a deleted record — the original answered {}.
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}

	out := map[string]interface{}{
		"username": user.Username,
		"profile":  profileOf(user),
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleUsers lists the user directory for the messaging recipient picker.
//
// HTTP: GET /api/users
func (h *AuthHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
