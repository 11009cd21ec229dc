package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"stego-server/internal/database"
	"stego-server/internal/metrics"
)

// SignupRequest creates an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest authenticates with email and password.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response from authentication endpoints
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"` // Seconds until session expires
}

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "stego_session"

	minPasswordLength = 6
	// bcrypt ignores bytes past 72
	maxPasswordLength = 72
	maxAuthBodyBytes  = 1 << 16
)

type userKey struct{}

// UserFromContext returns the user attached by AuthMiddleware, or nil.
func UserFromContext(ctx context.Context) *database.User {
	user, _ := ctx.Value(userKey{}).(*database.User)
	return user
}

func withUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func validatePassword(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return "Password must be at least 6 characters"
	case len(password) > maxPasswordLength:
		return "Password must not exceed 72 characters"
	}
	return ""
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// Signup creates an account and signs it in.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	user, err := h.db.CreateUser(ctx, req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, database.ErrInvalidInput):
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failure").Inc()
		writeJSONError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	case errors.Is(err, database.ErrEmailTaken):
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failure").Inc()
		writeJSONError(w, "Email already registered", http.StatusConflict)
		return
	case err != nil:
		log.Error("Failed to create user: %v", err)
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()
	log.Info("User %d signed up", user.ID)
	h.startSession(w, r, user, "Successfully signed up!")
}

// Signin authenticates with email and password.
func (h *Handlers) Signin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SigninRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.db.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signin", "failure").Inc()
		if !errors.Is(err, database.ErrInvalidCredentials) {
			log.Error("Failed to validate credentials: %v", err)
			writeJSONError(w, "Failed to sign in", http.StatusInternalServerError)
			return
		}
		log.Warn("Failed sign in attempt")
		writeJSONError(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signin", "success").Inc()
	h.startSession(w, r, user, "Successfully signed in!")
}

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request, user *database.User, message string) {
	session, err := h.db.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Error("Failed to create session: %v", err)
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:   true,
		Message:   message,
		Name:      user.Name,
		Email:     user.Email,
		ExpiresIn: int(time.Until(session.ExpiresAt).Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Signout ends the current session
func (h *Handlers) Signout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		// Best-effort session cleanup - don't fail signout if this errors
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			log.Error("failed to delete session during signout: %v", err)
		}
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed out",
	})
}

// sessionUser resolves the session cookie. Invalid cookies are cleared.
func (h *Handlers) sessionUser(w http.ResponseWriter, r *http.Request) (*database.User, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	user, err := h.db.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, database.ErrInvalidSession) {
			log.Error("Failed to validate session: %v", err)
		}
		clearSessionCookie(w)
		return nil, false
	}
	return user, true
}

// CheckAuth reports the signed-in user.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Name:    user.Name,
		Email:   user.Email,
	})
}

// isPublicPath reports paths served without a session.
func isPublicPath(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		// Static UI, result downloads and health checks
		return true
	}
	return strings.HasPrefix(path, "/api/auth/")
}

// AuthMiddleware attaches the session user to the request context and, when
// authentication is required, rejects API requests without one.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		user, ok := h.sessionUser(w, r)
		if ok {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
			return
		}

		if h.authRequired && !isPublicPath(r.URL.Path) {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
