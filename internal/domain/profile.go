package domain

import (
	"fmt"
	"math"
	"time"
)

// MaxSessions is the retention cap of the viewing session collection
const MaxSessions = 100

// Quality is the preferred playback quality
type Quality string

const (
	QualityAuto  Quality = "auto"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
)

// Valid reports whether q is a known quality
func (q Quality) Valid() bool {
	switch q {
	case QualityAuto, Quality1080p, Quality720p, Quality480p:
		return true
	}
	return false
}

// Theme is the UI color scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// NotificationFlags toggles the notification kinds
type NotificationFlags struct {
	NewReleases      bool `json:"newReleases"`
	Recommendations  bool `json:"recommendations"`
	WatchlistUpdates bool `json:"watchlistUpdates"`
}

// Preferences holds the user's settings
type Preferences struct {
	FavoriteGenres    []int             `json:"favoriteGenres"`
	PreferredLanguage string            `json:"preferredLanguage"`
	AdultContent      bool              `json:"adultContent"`
	Autoplay          bool              `json:"autoplay"`
	Quality           Quality           `json:"quality"`
	Theme             Theme             `json:"theme"`
	Notifications     NotificationFlags `json:"notifications"`
}

// DefaultPreferences returns the preferences of a fresh profile
func DefaultPreferences() Preferences {
	return Preferences{
		FavoriteGenres:    []int{},
		PreferredLanguage: "en",
		AdultContent:      false,
		Autoplay:          true,
		Quality:           QualityAuto,
		Theme:             ThemeAuto,
		Notifications: NotificationFlags{
			NewReleases:      true,
			Recommendations:  true,
			WatchlistUpdates: true,
		},
	}
}

// Validate checks enum fields
func (p Preferences) Validate() error {
	if !p.Quality.Valid() {
		return fmt.Errorf("%w: quality %q", ErrValidation, p.Quality)
	}
	if !p.Theme.Valid() {
		return fmt.Errorf("%w: theme %q", ErrValidation, p.Theme)
	}
	return nil
}

// NotificationsUpdate is a partial update of NotificationFlags. Nil fields are retained.
type NotificationsUpdate struct {
	NewReleases      *bool `json:"newReleases,omitempty"`
	Recommendations  *bool `json:"recommendations,omitempty"`
	WatchlistUpdates *bool `json:"watchlistUpdates,omitempty"`
}

// PreferencesUpdate is a partial update of Preferences. Nil fields are retained.
type PreferencesUpdate struct {
	FavoriteGenres    *[]int               `json:"favoriteGenres,omitempty"`
	PreferredLanguage *string              `json:"preferredLanguage,omitempty"`
	AdultContent      *bool                `json:"adultContent,omitempty"`
	Autoplay          *bool                `json:"autoplay,omitempty"`
	Quality           *Quality             `json:"quality,omitempty"`
	Theme             *Theme               `json:"theme,omitempty"`
	Notifications     *NotificationsUpdate `json:"notifications,omitempty"`
}

// Apply merges u onto p field by field; notifications are merged one level deep
func (p Preferences) Apply(u PreferencesUpdate) Preferences {
	if u.FavoriteGenres != nil {
		p.FavoriteGenres = append([]int{}, (*u.FavoriteGenres)...)
	}
	if u.PreferredLanguage != nil {
		p.PreferredLanguage = *u.PreferredLanguage
	}
	if u.AdultContent != nil {
		p.AdultContent = *u.AdultContent
	}
	if u.Autoplay != nil {
		p.Autoplay = *u.Autoplay
	}
	if u.Quality != nil {
		p.Quality = *u.Quality
	}
	if u.Theme != nil {
		p.Theme = *u.Theme
	}
	if n := u.Notifications; n != nil {
		if n.NewReleases != nil {
			p.Notifications.NewReleases = *n.NewReleases
		}
		if n.Recommendations != nil {
			p.Notifications.Recommendations = *n.Recommendations
		}
		if n.WatchlistUpdates != nil {
			p.Notifications.WatchlistUpdates = *n.WatchlistUpdates
		}
	}
	return p
}

// Stats holds aggregate viewing statistics. TotalWatchTime is in seconds.
type Stats struct {
	TotalWatchTime int64     `json:"totalWatchTime"`
	MoviesWatched  int       `json:"moviesWatched"`
	ShowsWatched   int       `json:"showsWatched"`
	FirstVisit     time.Time `json:"firstVisit"`
	LastVisit      time.Time `json:"lastVisit"`
	SessionsCount  int       `json:"sessionsCount"`
}

// DefaultStats returns the statistics of a fresh profile
func DefaultStats(now time.Time) Stats {
	return Stats{FirstVisit: now, LastVisit: now}
}

// Validate rejects negative counters
func (s Stats) Validate() error {
	if s.TotalWatchTime < 0 || s.MoviesWatched < 0 || s.ShowsWatched < 0 || s.SessionsCount < 0 {
		return fmt.Errorf("%w: negative counter in stats", ErrValidation)
	}
	return nil
}

// StatsUpdate is a partial update of Stats. Nil fields are retained.
type StatsUpdate struct {
	TotalWatchTime *int64     `json:"totalWatchTime,omitempty"`
	MoviesWatched  *int       `json:"moviesWatched,omitempty"`
	ShowsWatched   *int       `json:"showsWatched,omitempty"`
	FirstVisit     *time.Time `json:"firstVisit,omitempty"`
	LastVisit      *time.Time `json:"lastVisit,omitempty"`
	SessionsCount  *int       `json:"sessionsCount,omitempty"`
}

// Apply merges u onto s. Counters may only grow.
func (s Stats) Apply(u StatsUpdate) (Stats, error) {
	next := s
	if u.TotalWatchTime != nil {
		next.TotalWatchTime = *u.TotalWatchTime
	}
	if u.MoviesWatched != nil {
		next.MoviesWatched = *u.MoviesWatched
	}
	if u.ShowsWatched != nil {
		next.ShowsWatched = *u.ShowsWatched
	}
	if u.FirstVisit != nil {
		next.FirstVisit = *u.FirstVisit
	}
	if u.LastVisit != nil {
		next.LastVisit = *u.LastVisit
	}
	if u.SessionsCount != nil {
		next.SessionsCount = *u.SessionsCount
	}
	if next.TotalWatchTime < s.TotalWatchTime || next.MoviesWatched < s.MoviesWatched ||
		next.ShowsWatched < s.ShowsWatched || next.SessionsCount < s.SessionsCount {
		return s, fmt.Errorf("%w: stats counters cannot decrease", ErrValidation)
	}
	return next, nil
}

// ViewingSession records one playback of a movie or series
type ViewingSession struct {
	ID          string    `json:"id"`
	MediaType   MediaType `json:"mediaType"`
	MediaID     int       `json:"mediaId"`
	Title       string    `json:"title"`
	CurrentTime float64   `json:"currentTime"`
	Duration    float64   `json:"duration"`
	WatchedAt   time.Time `json:"watchedAt"`
	Completed   bool      `json:"completed"`
	GenreIDs    []int     `json:"genreIds,omitempty"`
}

// Validate checks a stored or imported session
func (s ViewingSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: session without id", ErrValidation)
	}
	return NewSession{
		MediaType:   s.MediaType,
		MediaID:     s.MediaID,
		CurrentTime: s.CurrentTime,
		Duration:    s.Duration,
	}.Validate()
}

// MaxSessionDuration bounds a session's duration in seconds (one week)
const MaxSessionDuration = 7 * 24 * 60 * 60

// NewSession is a session as started by the player, before id and timestamp are assigned
type NewSession struct {
	MediaType   MediaType `json:"mediaType"`
	MediaID     int       `json:"mediaId"`
	Title       string    `json:"title"`
	CurrentTime float64   `json:"currentTime"`
	Duration    float64   `json:"duration"`
	Completed   bool      `json:"completed"`
	GenreIDs    []int     `json:"genreIds,omitempty"`
}

// Validate checks the playback invariants
func (n NewSession) Validate() error {
	if !n.MediaType.Valid() {
		return fmt.Errorf("%w: media type %q", ErrValidation, n.MediaType)
	}
	if math.IsNaN(n.Duration) || n.Duration <= 0 || n.Duration > MaxSessionDuration {
		return fmt.Errorf("%w: duration must be in (0, %d]", ErrValidation, MaxSessionDuration)
	}
	if math.IsNaN(n.CurrentTime) || n.CurrentTime < 0 {
		return fmt.Errorf("%w: current time must not be negative", ErrValidation)
	}
	if n.CurrentTime > n.Duration {
		return fmt.Errorf("%w: current time exceeds duration", ErrValidation)
	}
	return nil
}

// SessionUpdate is a partial update of a ViewingSession. Nil fields are retained.
type SessionUpdate struct {
	Title       *string  `json:"title,omitempty"`
	CurrentTime *float64 `json:"currentTime,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	Completed   *bool    `json:"completed,omitempty"`
}

// Apply merges u onto s
func (s ViewingSession) Apply(u SessionUpdate) ViewingSession {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.CurrentTime != nil {
		s.CurrentTime = *u.CurrentTime
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	if u.Completed != nil {
		s.Completed = *u.Completed
	}
	return s
}

// GenreStat counts sessions per genre
type GenreStat struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RecommendationData is the read-only profile view consumed by the recommendation service
type RecommendationData struct {
	FavoriteGenres    []int
	RecentlyWatched   []ViewingSession
	TotalWatchTime    int64
	PreferredLanguage string
	AdultContent      bool
}

// Snapshot is the export format of a profile
type Snapshot struct {
	UserID      string           `json:"userId"`
	Preferences Preferences      `json:"preferences"`
	Stats       Stats            `json:"stats"`
	Sessions    []ViewingSession `json:"sessions"`
	ExportedAt  time.Time        `json:"exportedAt"`
}
