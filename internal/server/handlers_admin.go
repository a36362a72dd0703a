package server

import (
	"net/http"

	"github.com/mmcdole/lunastream/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if !s.deps.Credentials.Check(req.Username, req.Password) {
		s.logger.Warn("admin login rejected", "username", req.Username, "requestID", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid username or password"})
		return
	}

	token, err := s.deps.Issuer.Issue(req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("admin logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}

func (s *Server) handleAdminData(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	stats := s.deps.Profile.Stats()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome, " + username,
		"secretData": map[string]any{
			"userId":         s.deps.Profile.UserID(),
			"sessions":       len(s.deps.Profile.Sessions()),
			"totalWatchTime": stats.TotalWatchTime,
			"moviesWatched":  stats.MoviesWatched,
			"showsWatched":   stats.ShowsWatched,
		},
	})
}

func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	s.deps.Metadata.ClearCache()
	s.deps.Recommendations.ClearCache()
	s.deps.Genres.ClearCache()

	username, _ := auth.UsernameFromContext(r.Context())
	s.logger.Info("caches cleared", "by", username)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
