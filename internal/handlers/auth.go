package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"linkdeck/internal/middleware"
	"linkdeck/internal/session"
	"linkdeck/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions     *session.Store
	userStore    *store.UserStore
	profileStore *store.ProfileStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore, profileStore *store.ProfileStore) *Auth {
	return &Auth{
		sessions:     sessions,
		userStore:    userStore,
		profileStore: profileStore,
	}
}

// account is the public view of a session.
type account struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
}

func accountOf(d *session.Data) account {
	return account{Email: d.Email, DisplayName: d.DisplayName, Username: d.Username}
}

// Login checks credentials and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := a.userStore.FindByEmail(strings.TrimSpace(in.Email))
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, in.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	profile, err := a.profileStore.FindByUserID(user.ID)
	if err != nil || profile == nil {
		serverError(w, "login profile lookup failed", err)
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Username:    profile.Username,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		serverError(w, "session create failed", err)
		return
	}
	slog.Info("user signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, accountOf(data))
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the signed-in account, or 401. Clients also call it to
// obtain the CSRF cookie before their first mutation.
func (a *Auth) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, accountOf(sess))
}
