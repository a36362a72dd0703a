package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/lunastream/internal/domain"
)

// Store keys, one per aggregate
const (
	KeyPreferences = "lunastream-preferences"
	KeyStats       = "lunastream-stats"
	KeySessions    = "lunastream-sessions"
	KeyUserID      = "lunastream-user-id"
)

const (
	defaultHistoryLimit = 20
	recentForRecommend  = 10
)

var errMissing = errors.New("key not present")

// HistoryMatch is a session matched by FilterHistory, with the matched title positions
type HistoryMatch struct {
	Session        domain.ViewingSession
	MatchedIndexes []int
	Score          int
}

// historyIndex implements sahilm/fuzzy.Source over session titles
type historyIndex []domain.ViewingSession

func (h historyIndex) String(i int) string { return h[i].Title }
func (h historyIndex) Len() int            { return len(h) }

// ProfileService is the single writer of the local profile: preferences, stats,
// viewing sessions and the user id. Accessors never fail; mutators report success
// as a bool and leave the previous value in place on failure.
type ProfileService struct {
	store  domain.KeyValueStore
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewProfileService creates the service and records a visit
func NewProfileService(store domain.KeyValueStore, logger *slog.Logger) *ProfileService {
	return newProfileService(store, logger, time.Now)
}

func newProfileService(store domain.KeyValueStore, logger *slog.Logger, now func() time.Time) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProfileService{
		store:  store,
		logger: logger,
		now:    now,
	}

	s.mu.Lock()
	s.initializeUser()
	s.mu.Unlock()

	return s
}

// initializeUser mints missing aggregates and records a visit. Caller holds mu.
func (s *ProfileService) initializeUser() {
	var id string
	if err := s.load(KeyUserID, &id); err != nil || id == "" {
		id = "user_" + uuid.NewString()
		if err := s.save(map[string]any{KeyUserID: id}); err != nil {
			s.logger.Error("failed to store user id", "error", err)
		}
		s.logger.Info("created user profile", "userID", id)
	}

	s.preferences()

	stats := s.stats()
	stats.LastVisit = s.now()
	stats.SessionsCount++
	if err := s.save(map[string]any{KeyStats: stats}); err != nil {
		s.logger.Error("failed to record visit", "error", err)
	}
}

// === Accessors ===

// UserID returns the opaque profile id
func (s *ProfileService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	if err := s.load(KeyUserID, &id); err != nil {
		return ""
	}
	return id
}

// Preferences returns the stored preferences, or defaults when absent or unreadable
func (s *ProfileService) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences()
}

func (s *ProfileService) preferences() domain.Preferences {
	p := domain.DefaultPreferences()
	if err := s.load(KeyPreferences, &p); err != nil {
		defaults := domain.DefaultPreferences()
		if errors.Is(err, errMissing) {
			if err := s.save(map[string]any{KeyPreferences: defaults}); err != nil {
				s.logger.Error("failed to store default preferences", "error", err)
			}
		}
		return defaults
	}
	if p.FavoriteGenres == nil {
		p.FavoriteGenres = []int{}
	}
	return p
}

// Stats returns the stored statistics, or defaults when absent or unreadable
func (s *ProfileService) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats()
}

func (s *ProfileService) stats() domain.Stats {
	var st domain.Stats
	if err := s.load(KeyStats, &st); err != nil {
		defaults := domain.DefaultStats(s.now())
		if errors.Is(err, errMissing) {
			if err := s.save(map[string]any{KeyStats: defaults}); err != nil {
				s.logger.Error("failed to store default stats", "error", err)
			}
		}
		return defaults
	}
	return st
}

// Sessions returns the session collection, most recent first
func (s *ProfileService) Sessions() []domain.ViewingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions()
}

func (s *ProfileService) sessions() []domain.ViewingSession {
	var sessions []domain.ViewingSession
	if err := s.load(KeySessions, &sessions); err != nil || sessions == nil {
		return []domain.ViewingSession{}
	}
	return sessions
}

// === Mutators ===

// UpdatePreferences merges u onto the stored preferences
func (s *ProfileService) UpdatePreferences(u domain.PreferencesUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.preferences().Apply(u)
	if err := next.Validate(); err != nil {
		s.logger.Warn("rejected preferences update", "error", err)
		return false
	}
	if err := s.save(map[string]any{KeyPreferences: next}); err != nil {
		s.logger.Error("failed to update preferences", "error", err)
		return false
	}
	return true
}

// UpdateStats merges u onto the stored stats. Counters may not decrease.
func (s *ProfileService) UpdateStats(u domain.StatsUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.stats().Apply(u)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		s.logger.Warn("rejected stats update", "error", err)
		return false
	}
	if err := s.save(map[string]any{KeyStats: next}); err != nil {
		s.logger.Error("failed to update stats", "error", err)
		return false
	}
	return true
}

// AddSession records a new viewing session and updates stats in the same write.
// The collection keeps the MaxSessions most recent sessions.
func (s *ProfileService) AddSession(n domain.NewSession) (domain.ViewingSession, bool) {
	if err := n.Validate(); err != nil {
		s.logger.Warn("rejected session", "error", err)
		return domain.ViewingSession{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := domain.ViewingSession{
		ID:          "session_" + uuid.NewString(),
		MediaType:   n.MediaType,
		MediaID:     n.MediaID,
		Title:       n.Title,
		CurrentTime: n.CurrentTime,
		Duration:    n.Duration,
		WatchedAt:   s.now(),
		Completed:   n.Completed,
		GenreIDs:    n.GenreIDs,
	}

	sessions := append([]domain.ViewingSession{session}, s.sessions()...)
	if len(sessions) > domain.MaxSessions {
		sessions = sessions[:domain.MaxSessions]
	}

	stats := s.stats()
	addWatchTime(&stats, wholeSeconds(n.CurrentTime))
	if n.Completed {
		countCompleted(&stats, n.MediaType)
	}

	if err := s.save(map[string]any{KeySessions: sessions, KeyStats: stats}); err != nil {
		s.logger.Error("failed to add session", "error", err)
		return domain.ViewingSession{}, false
	}

	s.logger.Debug("added session", "id", session.ID, "mediaType", session.MediaType, "mediaID", session.MediaID)
	return session, true
}

// UpdateSession merges u onto the session with the given id.
// Forward progress is added to TotalWatchTime and a first completion is counted;
// stats never decrease.
func (s *ProfileService) UpdateSession(id string, u domain.SessionUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions()
	idx := -1
	for i := range sessions {
		if sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	prev := sessions[idx]
	next := prev.Apply(u)
	if err := next.Validate(); err != nil {
		s.logger.Warn("rejected session update", "id", id, "error", err)
		return false
	}
	sessions[idx] = next

	stats := s.stats()
	// whole-second positions keep fractional progress exact across updates
	if delta := wholeSeconds(next.CurrentTime) - wholeSeconds(prev.CurrentTime); delta > 0 {
		addWatchTime(&stats, delta)
	}
	if next.Completed && !prev.Completed {
		countCompleted(&stats, next.MediaType)
	}

	if err := s.save(map[string]any{KeySessions: sessions, KeyStats: stats}); err != nil {
		s.logger.Error("failed to update session", "id", id, "error", err)
		return false
	}
	return true
}

func wholeSeconds(t float64) int64 {
	return int64(math.Floor(t))
}

// addWatchTime adds secs to the total, saturating at math.MaxInt64
func addWatchTime(stats *domain.Stats, secs int64) {
	if secs <= 0 {
		return
	}
	if stats.TotalWatchTime > math.MaxInt64-secs {
		stats.TotalWatchTime = math.MaxInt64
		return
	}
	stats.TotalWatchTime += secs
}

func countCompleted(stats *domain.Stats, mediaType domain.MediaType) {
	switch mediaType {
	case domain.MediaTypeMovie:
		stats.MoviesWatched++
	case domain.MediaTypeTV:
		stats.ShowsWatched++
	}
}

// === Derived views ===

// ViewingHistory returns sessions sorted by WatchedAt descending.
// limit <= 0 selects the default of 20.
func (s *ProfileService) ViewingHistory(limit int) []domain.ViewingSession {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	sessions := s.Sessions()
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].WatchedAt.After(sessions[j].WatchedAt)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

// FilterHistory fuzzy-matches query against session titles, best match first.
// An empty query returns the plain history.
func (s *ProfileService) FilterHistory(query string, limit int) []HistoryMatch {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	history := s.ViewingHistory(domain.MaxSessions)
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]HistoryMatch, 0, min(limit, len(history)))
		for _, h := range history[:min(limit, len(history))] {
			out = append(out, HistoryMatch{Session: h})
		}
		return out
	}

	matches := fuzzy.FindFrom(query, historyIndex(history))
	out := make([]HistoryMatch, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, HistoryMatch{
			Session:        history[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}
	return out
}

// GenreStats counts recorded genre ids across sessions, most frequent first.
// Names are left empty; GenreService.Annotate fills them.
func (s *ProfileService) GenreStats() []domain.GenreStat {
	counts := make(map[int]int)
	for _, session := range s.Sessions() {
		for _, g := range session.GenreIDs {
			counts[g]++
		}
	}

	stats := make([]domain.GenreStat, 0, len(counts))
	for id, n := range counts {
		stats = append(stats, domain.GenreStat{ID: id, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].ID < stats[j].ID
	})
	return stats
}

// RecommendationData returns the read-only view used by RecommendationService
func (s *ProfileService) RecommendationData() domain.RecommendationData {
	prefs := s.Preferences()
	stats := s.Stats()
	return domain.RecommendationData{
		FavoriteGenres:    prefs.FavoriteGenres,
		RecentlyWatched:   s.ViewingHistory(recentForRecommend),
		TotalWatchTime:    stats.TotalWatchTime,
		PreferredLanguage: prefs.PreferredLanguage,
		AdultContent:      prefs.AdultContent,
	}
}

// === Export / import ===

// ExportData returns a snapshot of the whole profile
func (s *ProfileService) ExportData() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	_ = s.load(KeyUserID, &id)

	return domain.Snapshot{
		UserID:      id,
		Preferences: s.preferences(),
		Stats:       s.stats(),
		Sessions:    s.sessions(),
		ExportedAt:  s.now(),
	}
}

// ImportData overwrites preferences, stats and sessions with the fields present in raw.
// Each field is validated on its own; an invalid field is skipped and the others are
// still applied. Returns false if raw is not an object, a field was skipped, or the
// write failed.
func (s *ProfileService) ImportData(raw []byte) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		s.logger.Warn("rejected import: not a JSON object", "error", err)
		return false
	}

	ok := true
	values := make(map[string]any)

	if data, present := doc["preferences"]; present {
		p := domain.DefaultPreferences()
		if err := decodeField(data, &p, func() error { return p.Validate() }); err != nil {
			s.logger.Warn("skipping imported preferences", "error", err)
			ok = false
		} else {
			values[KeyPreferences] = p
		}
	}

	if data, present := doc["stats"]; present {
		var st domain.Stats
		if err := decodeField(data, &st, func() error { return st.Validate() }); err != nil {
			s.logger.Warn("skipping imported stats", "error", err)
			ok = false
		} else {
			values[KeyStats] = st
		}
	}

	if data, present := doc["sessions"]; present {
		var sessions []domain.ViewingSession
		if err := decodeField(data, &sessions, func() error { return validateSessions(sessions) }); err != nil {
			s.logger.Warn("skipping imported sessions", "error", err)
			ok = false
		} else {
			if sessions == nil {
				sessions = []domain.ViewingSession{}
			}
			if len(sessions) > domain.MaxSessions {
				sessions = sessions[:domain.MaxSessions]
			}
			values[KeySessions] = sessions
		}
	}

	if len(values) == 0 {
		return ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(values); err != nil {
		s.logger.Error("failed to import profile", "error", err)
		return false
	}
	s.logger.Info("imported profile", "fields", len(values))
	return ok
}

func decodeField(data json.RawMessage, dst any, validate func() error) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return validate()
}

func validateSessions(sessions []domain.ViewingSession) error {
	for i, session := range sessions {
		if err := session.Validate(); err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
	}
	return nil
}

// ClearAllData removes every aggregate and the user id, then starts a fresh profile
func (s *ProfileService) ClearAllData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(KeyPreferences, KeyStats, KeySessions, KeyUserID); err != nil {
		s.logger.Error("failed to clear profile", "error", err)
		return false
	}
	s.initializeUser()
	s.logger.Info("cleared profile data")
	return true
}

// === Persistence helpers ===

// load decodes key into dst. Returns errMissing when the key is absent.
func (s *ProfileService) load(key string, dst any) error {
	data, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("failed to read profile data", "key", key, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return errMissing
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("malformed profile data, using defaults", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

// save encodes and writes all values in one transaction
func (s *ProfileService) save(values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		encoded[k] = data
	}
	if err := s.store.SetMany(encoded); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
