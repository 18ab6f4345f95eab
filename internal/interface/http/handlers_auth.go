package http

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
	"github.com/gametime-hub/steam-gametime-hub/internal/infrastructure/auth"
	"github.com/gametime-hub/steam-gametime-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION HANDLERS
// The refresh token lives in an http-only cookie scoped to the auth
// routes; the access token goes to the SPA in the response body and
// never touches a cookie.
// ══════════════════════════════════════════════════════════════════════════════

const refreshCookieName = "gth_refresh"

// sessionResponse is the body of every endpoint that mints a session.
type sessionResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	SteamID64   string    `json:"steamId64"`
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token auth.RefreshToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token.Token,
		Path:     "/auth/steam",
		Domain:   s.config.CookieDomain,
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth/steam",
		Domain:   s.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// issueSession mints the refresh cookie and access token pair.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, steamID string) {
	refresh, err := s.deps.Refresh.Issue(r.Context(), steamID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	access, expires, err := s.deps.Tokens.Issue(steamID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.setRefreshCookie(w, refresh)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: access,
		ExpiresAt:   expires,
		SteamID64:   steamID,
	})
}

// handleRefresh serves POST /auth/steam/refresh. The refresh token
// rotates on every use; a replayed old token gets 401.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, s.logger, shared.ErrUnauthorized)
		return
	}

	rotated, err := s.deps.Refresh.Rotate(r.Context(), cookie.Value)
	if err != nil {
		s.clearRefreshCookie(w)
		writeError(w, s.logger, err)
		return
	}

	access, expires, err := s.deps.Tokens.Issue(rotated.SteamID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.setRefreshCookie(w, rotated)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: access,
		ExpiresAt:   expires,
		SteamID64:   rotated.SteamID,
	})
}

// handleLogout serves POST /auth/steam/logout. Always succeeds: a
// missing or unknown cookie still leaves the client logged out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := s.deps.Refresh.Revoke(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("refresh revocation failed", logger.Err(err))
		}
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe serves GET /auth/steam/me behind auth: the SPA's cheap
// "am I still logged in" probe.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"steamId64": steamIDFromContext(r.Context()),
	})
}

// handleDevLogin serves POST /auth/steam/dev-login. Only routed when
// DevLoginEnabled is set; stands in for the Steam OpenID return leg
// during local development.
func (s *Server) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SteamID64 string `json:"steamId64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SteamID64 == "" {
		writeError(w, s.logger, shared.ErrInvalidInput)
		return
	}
	s.issueSession(w, r, body.SteamID64)
}
