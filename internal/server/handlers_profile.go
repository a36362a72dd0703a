package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmcdole/lunastream/internal/domain"
)

// The profile service reports failures as a bool. Handlers validate the
// merged value first so a false result after that means the store failed.

func (s *Server) persistenceFailed(w http.ResponseWriter, r *http.Request, op string) {
	s.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrPersistence, op))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Profile.Preferences())
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var u domain.PreferencesUpdate
	if err := decodeBody(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Profile.Preferences().Apply(u).Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.deps.Profile.UpdatePreferences(u) {
		s.persistenceFailed(w, r, "update preferences")
		return
	}
	s.deps.Recommendations.ClearCache()
	writeJSON(w, http.StatusOK, s.deps.Profile.Preferences())
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Profile.Stats())
}

func (s *Server) handleUpdateStats(w http.ResponseWriter, r *http.Request) {
	var u domain.StatsUpdate
	if err := decodeBody(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := s.deps.Profile.Stats().Apply(u)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.deps.Profile.UpdateStats(u) {
		s.persistenceFailed(w, r, "update stats")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Profile.Stats())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.deps.Profile.Sessions()})
}

func (s *Server) handleAddSession(w http.ResponseWriter, r *http.Request) {
	var n domain.NewSession
	if err := decodeBody(w, r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := n.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, ok := s.deps.Profile.AddSession(n)
	if !ok {
		s.persistenceFailed(w, r, "add session")
		return
	}
	s.deps.Recommendations.ClearCache()
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var u domain.SessionUpdate
	if err := decodeBody(w, r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}

	current, found := findSession(s.deps.Profile.Sessions(), id)
	if !found {
		s.writeError(w, r, fmt.Errorf("%w: session %q", domain.ErrNotFound, id))
		return
	}
	if err := current.Apply(u).Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !s.deps.Profile.UpdateSession(id, u) {
		s.persistenceFailed(w, r, "update session")
		return
	}

	updated, _ := findSession(s.deps.Profile.Sessions(), id)
	writeJSON(w, http.StatusOK, updated)
}

func findSession(sessions []domain.ViewingSession, id string) (domain.ViewingSession, bool) {
	for _, session := range sessions {
		if session.ID == id {
			return session, true
		}
	}
	return domain.ViewingSession{}, false
}

// historyEntry is a session with the title positions matched by a filter
type historyEntry struct {
	domain.ViewingSession
	MatchedIndexes []int `json:"matchedIndexes,omitempty"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	matches := s.deps.Profile.FilterHistory(r.URL.Query().Get("q"), limit)
	entries := make([]historyEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, historyEntry{ViewingSession: m.Session, MatchedIndexes: m.MatchedIndexes})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleProfileGenres(w http.ResponseWriter, r *http.Request) {
	stats := s.deps.Genres.Annotate(r.Context(), s.deps.Profile.GenreStats())
	writeJSON(w, http.StatusOK, map[string]any{"genres": stats})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="lunastream-profile.json"`)
	writeJSON(w, http.StatusOK, s.deps.Profile.ExportData())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// valid fields are written even when others are skipped
	ok := s.deps.Profile.ImportData(raw)
	s.deps.Recommendations.ClearCache()
	if !ok {
		writeErrorCode(w, r, http.StatusUnprocessableEntity, "IMPORT_INCOMPLETE",
			"Some fields of the snapshot were invalid and were not imported")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Profile.ClearAllData() {
		s.persistenceFailed(w, r, "clear profile")
		return
	}
	s.deps.Recommendations.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
