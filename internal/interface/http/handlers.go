package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gametime-hub/steam-gametime-hub/internal/application/query"
	"github.com/gametime-hub/steam-gametime-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// API HANDLERS
// Thin request parsing around the query handlers; all aggregation
// logic lives in the application layer.
// ══════════════════════════════════════════════════════════════════════════════

// handleLeaderboard serves GET /api/steam/friends/leaderboard?appid=N.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{SteamID: steamIDFromContext(r.Context())}

	if raw := r.URL.Query().Get("appid"); raw != "" {
		appID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, s.logger, shared.ErrInvalidInput)
			return
		}
		q.AppID = &appID
	}

	board, err := s.deps.Leaderboard.Handle(r.Context(), q)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleFriendsList serves GET /api/steam/friends/list?includeSelf=1.
func (s *Server) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	includeSelf := false
	switch r.URL.Query().Get("includeSelf") {
	case "1", "true":
		includeSelf = true
	}

	list, err := s.deps.FriendsList.Handle(r.Context(), query.GetFriendsListQuery{
		SteamID:     steamIDFromContext(r.Context()),
		IncludeSelf: includeSelf,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleProfile serves GET /api/steam/profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.deps.Profile.Handle(r.Context(), query.GetProfileQuery{
		SteamID: steamIDFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleGames serves GET /api/steam/games?q=&sort=&page=&pageSize=.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := query.GetGamesQuery{
		SteamID: steamIDFromContext(r.Context()),
		Q:       params.Get("q"),
		Sort:    params.Get("sort"),
	}
	if raw := params.Get("page"); raw != "" {
		q.Page, _ = strconv.Atoi(raw)
	}
	if raw := params.Get("pageSize"); raw != "" {
		q.PageSize, _ = strconv.Atoi(raw)
	}

	page, err := s.deps.Games.Handle(r.Context(), q)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGameDetails serves GET /api/steam/games/{appid}/gamedetails.
func (s *Server) handleGameDetails(w http.ResponseWriter, r *http.Request) {
	appID, err := strconv.Atoi(chi.URLParam(r, "appid"))
	if err != nil {
		writeError(w, s.logger, shared.ErrInvalidInput)
		return
	}

	details, err := s.deps.GameDetails.Handle(r.Context(), query.GetGameDetailsQuery{
		SteamID: steamIDFromContext(r.Context()),
		AppID:   appID,
		Lang:    r.URL.Query().Get("l"),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
