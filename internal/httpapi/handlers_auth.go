package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"carikerja/listing-service/internal/auth"
)

// login handles POST /auth/login
//
// A rejected sign-in is an inline 401, not a fatal error; the previous
// session state is left untouched.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		jsonError(w, "body must contain email and password", http.StatusBadRequest)
		return
	}

	sess, err := h.manager.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			jsonError(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("sign-in failed", "err", err)
		jsonError(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	jsonOK(w, map[string]any{"token": sess.Token, "user": sess.User})
}

// logout handles POST /auth/logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token != "" {
		if err := h.manager.SignOut(r.Context(), token); err != nil {
			h.logger.Warn("sign-out failed", "err", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
	jsonOK(w, map[string]string{"status": "signed out"})
}

// session handles GET /auth/session — the {user, loading} pair the
// presentation layer renders from.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	if h.manager.Loading() {
		jsonOK(w, map[string]any{"user": nil, "loading": true})
		return
	}

	var user *auth.User
	if sess := h.manager.Resolve(r.Context(), auth.TokenFromRequest(r)); sess != nil {
		user = &sess.User
	}
	jsonOK(w, map[string]any{"user": user, "loading": false})
}
