package service

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/store"
)

func newTestProfile(t *testing.T) (*ProfileService, *testClock) {
	t.Helper()
	kv, err := store.NewProfileStore("")
	require.NoError(t, err)
	clock := newTestClock()
	return newProfileService(kv, nil, clock.Now), clock
}

func movieSession(title string, completed bool) domain.NewSession {
	return domain.NewSession{
		MediaType:   domain.MediaTypeMovie,
		MediaID:     1,
		Title:       title,
		CurrentTime: 60,
		Duration:    5400,
		Completed:   completed,
	}
}

func ptr[T any](v T) *T { return &v }

func TestProfile_InitializesDefaults(t *testing.T) {
	p, clock := newTestProfile(t)

	assert.True(t, strings.HasPrefix(p.UserID(), "user_"))
	assert.Equal(t, domain.DefaultPreferences(), p.Preferences())

	stats := p.Stats()
	assert.Equal(t, 1, stats.SessionsCount)
	assert.Equal(t, clock.Now(), stats.FirstVisit)
	assert.Equal(t, clock.Now(), stats.LastVisit)
	assert.Empty(t, p.Sessions())
}

func TestProfile_VisitRecordedOnEveryStart(t *testing.T) {
	kv, err := store.NewProfileStore("")
	require.NoError(t, err)
	clock := newTestClock()

	first := newProfileService(kv, nil, clock.Now)
	id := first.UserID()

	clock.Advance(time.Hour)
	second := newProfileService(kv, nil, clock.Now)

	assert.Equal(t, id, second.UserID())
	stats := second.Stats()
	assert.Equal(t, 2, stats.SessionsCount)
	assert.Equal(t, t0, stats.FirstVisit)
	assert.Equal(t, t0.Add(time.Hour), stats.LastVisit)
}

func TestProfile_PartialPreferenceMerge(t *testing.T) {
	p, _ := newTestProfile(t)

	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{Quality: ptr(domain.Quality720p)}))

	want := domain.DefaultPreferences()
	want.Quality = domain.Quality720p
	assert.Equal(t, want, p.Preferences())
	assert.True(t, p.Preferences().Autoplay)
}

func TestProfile_NotificationsMergedOneLevel(t *testing.T) {
	p, _ := newTestProfile(t)

	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{
		Notifications: &domain.NotificationsUpdate{NewReleases: ptr(false)},
	}))

	n := p.Preferences().Notifications
	assert.False(t, n.NewReleases)
	assert.True(t, n.Recommendations)
	assert.True(t, n.WatchlistUpdates)
}

func TestProfile_InvalidPreferencesRejected(t *testing.T) {
	p, _ := newTestProfile(t)

	assert.False(t, p.UpdatePreferences(domain.PreferencesUpdate{Theme: ptr(domain.Theme("neon"))}))
	assert.Equal(t, domain.ThemeAuto, p.Preferences().Theme)
}

func TestProfile_WriteFailureKeepsPreviousValue(t *testing.T) {
	kv := newFailingStore()
	p := newProfileService(kv, nil, newTestClock().Now)
	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{PreferredLanguage: ptr("fr")}))

	kv.failWrites = true
	assert.False(t, p.UpdatePreferences(domain.PreferencesUpdate{PreferredLanguage: ptr("de")}))
	_, ok := p.AddSession(movieSession("Alien", true))
	assert.False(t, ok)
	assert.False(t, p.ClearAllData())

	assert.Equal(t, "fr", p.Preferences().PreferredLanguage)
	assert.Empty(t, p.Sessions())
	assert.Zero(t, p.Stats().MoviesWatched)
}

func TestProfile_ReadFailureDegradesToDefaults(t *testing.T) {
	kv := newFailingStore()
	p := newProfileService(kv, nil, newTestClock().Now)
	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{PreferredLanguage: ptr("fr")}))

	kv.failReads = true
	assert.Equal(t, domain.DefaultPreferences(), p.Preferences())
	assert.Empty(t, p.Sessions())
	assert.Zero(t, p.Stats().TotalWatchTime)
}

func TestProfile_MalformedDataDegradesToDefaults(t *testing.T) {
	kv, err := store.NewProfileStore("")
	require.NoError(t, err)
	require.NoError(t, kv.Set(KeyPreferences, []byte(`{"quality": 12`)))
	require.NoError(t, kv.Set(KeySessions, []byte(`"not a list"`)))

	p := newProfileService(kv, nil, newTestClock().Now)

	assert.Equal(t, domain.DefaultPreferences(), p.Preferences())
	assert.Empty(t, p.Sessions())
}

func TestProfile_SessionRetentionCap(t *testing.T) {
	p, clock := newTestProfile(t)

	for i := 0; i < domain.MaxSessions+1; i++ {
		clock.Advance(time.Second)
		_, ok := p.AddSession(movieSession(fmt.Sprintf("movie %d", i), false))
		require.True(t, ok)
	}

	sessions := p.Sessions()
	require.Len(t, sessions, domain.MaxSessions)
	assert.Equal(t, "movie 100", sessions[0].Title)
	assert.Equal(t, "movie 1", sessions[len(sessions)-1].Title)
}

func TestProfile_AddSessionAssignsIDAndTime(t *testing.T) {
	p, clock := newTestProfile(t)

	s, ok := p.AddSession(movieSession("Alien", false))
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(s.ID, "session_"))
	assert.Equal(t, clock.Now(), s.WatchedAt)

	other, _ := p.AddSession(movieSession("Alien", false))
	assert.NotEqual(t, s.ID, other.ID)
}

func TestProfile_AddSessionValidates(t *testing.T) {
	p, _ := newTestProfile(t)

	bad := []domain.NewSession{
		{MediaType: "book", Duration: 10},
		{MediaType: domain.MediaTypeMovie, Duration: 0},
		{MediaType: domain.MediaTypeTV, Duration: 10, CurrentTime: -1},
		{MediaType: domain.MediaTypeMovie, Duration: 100, CurrentTime: 101},
		{MediaType: domain.MediaTypeMovie, Duration: 1e19, CurrentTime: 1e19},
		{MediaType: domain.MediaTypeMovie, Duration: math.NaN()},
		{MediaType: domain.MediaTypeMovie, Duration: math.Inf(1)},
	}
	for _, n := range bad {
		_, ok := p.AddSession(n)
		assert.False(t, ok)
	}
	assert.Empty(t, p.Sessions())
}

func TestProfile_CompletedCountMonotonic(t *testing.T) {
	p, _ := newTestProfile(t)

	for i := 1; i <= 5; i++ {
		_, ok := p.AddSession(movieSession("done", true))
		require.True(t, ok)
		assert.Equal(t, i, p.Stats().MoviesWatched)

		_, ok = p.AddSession(movieSession("abandoned", false))
		require.True(t, ok)
		assert.Equal(t, i, p.Stats().MoviesWatched)
	}
	assert.Zero(t, p.Stats().ShowsWatched)
	assert.EqualValues(t, 10*60, p.Stats().TotalWatchTime)
}

func TestProfile_UpdateSession(t *testing.T) {
	p, _ := newTestProfile(t)

	assert.False(t, p.UpdateSession("session_missing", domain.SessionUpdate{Completed: ptr(true)}))

	s, ok := p.AddSession(domain.NewSession{
		MediaType: domain.MediaTypeTV, MediaID: 9, Title: "Pilot", CurrentTime: 100, Duration: 1800,
	})
	require.True(t, ok)

	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(400.0)}))
	assert.EqualValues(t, 400, p.Stats().TotalWatchTime)

	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{Completed: ptr(true)}))
	assert.Equal(t, 1, p.Stats().ShowsWatched)

	// completing again or un-completing never changes the count
	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{Completed: ptr(true)}))
	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{Completed: ptr(false), CurrentTime: ptr(50.0)}))
	stats := p.Stats()
	assert.Equal(t, 1, stats.ShowsWatched)
	assert.EqualValues(t, 400, stats.TotalWatchTime)

	got := p.Sessions()[0]
	assert.Equal(t, "Pilot", got.Title)
	assert.False(t, got.Completed)
	assert.Equal(t, 50.0, got.CurrentTime)

	assert.False(t, p.UpdateSession(s.ID, domain.SessionUpdate{Duration: ptr(0.0)}))
}

func TestProfile_UpdateSessionRejectsPositionPastDuration(t *testing.T) {
	p, _ := newTestProfile(t)
	s, ok := p.AddSession(movieSession("Heat", false))
	require.True(t, ok)

	assert.False(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(1e19)}))
	assert.False(t, p.UpdateSession(s.ID, domain.SessionUpdate{Duration: ptr(float64(domain.MaxSessionDuration + 1))}))
	assert.EqualValues(t, 60, p.Stats().TotalWatchTime)
}

func TestProfile_FractionalProgressAccumulates(t *testing.T) {
	p, _ := newTestProfile(t)
	s, ok := p.AddSession(domain.NewSession{MediaType: domain.MediaTypeMovie, MediaID: 7, Title: "Ran", Duration: 600})
	require.True(t, ok)

	for i := 1; i <= 60; i++ {
		require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(float64(i) * 0.5)}))
	}
	assert.EqualValues(t, 30, p.Stats().TotalWatchTime)

	// seeking back and replaying counts the replayed seconds once more
	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(10.7)}))
	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(12.2)}))
	assert.EqualValues(t, 32, p.Stats().TotalWatchTime)
}

func TestProfile_WatchTimeSaturates(t *testing.T) {
	p, _ := newTestProfile(t)
	require.True(t, p.UpdateStats(domain.StatsUpdate{TotalWatchTime: ptr(int64(math.MaxInt64 - 10))}))

	s, ok := p.AddSession(movieSession("Shoah", false))
	require.True(t, ok)
	assert.EqualValues(t, int64(math.MaxInt64), p.Stats().TotalWatchTime)

	require.True(t, p.UpdateSession(s.ID, domain.SessionUpdate{CurrentTime: ptr(3600.0)}))
	stats := p.Stats()
	assert.EqualValues(t, int64(math.MaxInt64), stats.TotalWatchTime)
	require.NoError(t, stats.Validate())

	raw, err := json.Marshal(p.ExportData())
	require.NoError(t, err)
	assert.True(t, p.ImportData(raw))
	assert.EqualValues(t, int64(math.MaxInt64), p.Stats().TotalWatchTime)
}

func TestProfile_UpdateStatsRejectsDecrease(t *testing.T) {
	p, _ := newTestProfile(t)

	require.True(t, p.UpdateStats(domain.StatsUpdate{TotalWatchTime: ptr(int64(500))}))
	assert.False(t, p.UpdateStats(domain.StatsUpdate{TotalWatchTime: ptr(int64(100))}))
	assert.EqualValues(t, 500, p.Stats().TotalWatchTime)
	assert.Equal(t, 1, p.Stats().SessionsCount)
}

func TestProfile_ViewingHistory(t *testing.T) {
	p, clock := newTestProfile(t)

	for i := 0; i < 25; i++ {
		clock.Advance(time.Minute)
		p.AddSession(movieSession(fmt.Sprintf("m%d", i), false))
	}

	history := p.ViewingHistory(0)
	require.Len(t, history, 20)
	assert.Equal(t, "m24", history[0].Title)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].WatchedAt.After(history[i-1].WatchedAt))
	}

	assert.Len(t, p.ViewingHistory(3), 3)
}

func TestProfile_FilterHistory(t *testing.T) {
	p, clock := newTestProfile(t)
	for _, title := range []string{"Alien", "Aliens", "The Godfather", "Blade Runner"} {
		clock.Advance(time.Minute)
		p.AddSession(movieSession(title, false))
	}

	matches := p.FilterHistory("alien", 10)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Contains(t, m.Session.Title, "Alien")
		assert.NotEmpty(t, m.MatchedIndexes)
	}

	assert.Len(t, p.FilterHistory("", 2), 2)
	assert.Empty(t, p.FilterHistory("zzz", 10))
	assert.Len(t, p.FilterHistory("ALIEN", 10), 2)
}

func TestProfile_FilterHistoryOffsetsIndexOriginalTitle(t *testing.T) {
	p, _ := newTestProfile(t)
	// the lowercase form of İ is one byte longer
	p.AddSession(movieSession("İstanbul Hatırası", false))

	const query = "stanbul"
	matches := p.FilterHistory(query, 10)
	require.Len(t, matches, 1)

	title := matches[0].Session.Title
	require.Len(t, matches[0].MatchedIndexes, len(query))
	for k, i := range matches[0].MatchedIndexes {
		r, _ := utf8.DecodeRuneInString(title[i:])
		assert.Equal(t, rune(query[k]), unicode.ToLower(r), "offset %d", i)
	}
}

func TestProfile_GenreStats(t *testing.T) {
	p, _ := newTestProfile(t)

	add := func(genres ...int) {
		n := movieSession("x", false)
		n.GenreIDs = genres
		_, ok := p.AddSession(n)
		require.True(t, ok)
	}
	add(28, 12)
	add(28)
	add(35)

	assert.Equal(t, []domain.GenreStat{
		{ID: 28, Count: 2},
		{ID: 12, Count: 1},
		{ID: 35, Count: 1},
	}, p.GenreStats())
}

func TestProfile_RecommendationData(t *testing.T) {
	p, clock := newTestProfile(t)
	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{FavoriteGenres: ptr([]int{18})}))
	for i := 0; i < 12; i++ {
		clock.Advance(time.Minute)
		p.AddSession(movieSession(fmt.Sprintf("m%d", i), false))
	}

	data := p.RecommendationData()
	assert.Equal(t, []int{18}, data.FavoriteGenres)
	require.Len(t, data.RecentlyWatched, 10)
	assert.Equal(t, "m11", data.RecentlyWatched[0].Title)
	assert.EqualValues(t, 12*60, data.TotalWatchTime)
	assert.Equal(t, "en", data.PreferredLanguage)
}

func TestProfile_ExportImportRoundTrip(t *testing.T) {
	p, _ := newTestProfile(t)
	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{
		FavoriteGenres: ptr([]int{28, 35}),
		Theme:          ptr(domain.ThemeDark),
	}))
	p.AddSession(movieSession("Alien", true))
	p.AddSession(domain.NewSession{MediaType: domain.MediaTypeTV, MediaID: 3, Title: "Pilot", Duration: 60, GenreIDs: []int{18}})

	prefs, stats, sessions := p.Preferences(), p.Stats(), p.Sessions()

	snapshot := p.ExportData()
	assert.Equal(t, p.UserID(), snapshot.UserID)

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.True(t, p.ImportData(raw))

	assert.Equal(t, prefs, p.Preferences())
	assert.Equal(t, stats, p.Stats())
	assert.Equal(t, sessions, p.Sessions())
}

func TestProfile_ImportIntoFreshProfile(t *testing.T) {
	src, _ := newTestProfile(t)
	require.True(t, src.UpdatePreferences(domain.PreferencesUpdate{Quality: ptr(domain.Quality1080p)}))
	src.AddSession(movieSession("Alien", true))
	raw, err := json.Marshal(src.ExportData())
	require.NoError(t, err)

	dst, _ := newTestProfile(t)
	require.True(t, dst.ImportData(raw))

	assert.Equal(t, src.Preferences(), dst.Preferences())
	assert.Equal(t, src.Stats(), dst.Stats())
	assert.Equal(t, src.Sessions(), dst.Sessions())
	assert.NotEqual(t, src.UserID(), dst.UserID())
}

func TestProfile_ImportSkipsInvalidField(t *testing.T) {
	p, _ := newTestProfile(t)
	before := p.Stats()

	ok := p.ImportData([]byte(`{
		"preferences": {"theme": "dark", "quality": "480p"},
		"stats": {"totalWatchTime": -5}
	}`))
	assert.False(t, ok)

	assert.Equal(t, domain.ThemeDark, p.Preferences().Theme)
	assert.Equal(t, domain.Quality480p, p.Preferences().Quality)
	assert.Equal(t, before, p.Stats())
}

func TestProfile_ImportLeavesAbsentFields(t *testing.T) {
	p, _ := newTestProfile(t)
	p.AddSession(movieSession("Alien", false))

	require.True(t, p.ImportData([]byte(`{"preferences": {"theme": "light"}}`)))
	assert.Len(t, p.Sessions(), 1)
	assert.Equal(t, domain.ThemeLight, p.Preferences().Theme)
}

func TestProfile_ImportRejectsNonObject(t *testing.T) {
	p, _ := newTestProfile(t)

	assert.False(t, p.ImportData([]byte(`[1,2,3]`)))
	assert.False(t, p.ImportData([]byte(`null`)))
	assert.False(t, p.ImportData([]byte(`{`)))
	assert.False(t, p.ImportData([]byte(`{"sessions": [{"id": "", "mediaType": "movie", "duration": 1}]}`)))
	assert.Empty(t, p.Sessions())
}

func TestProfile_ClearAllData(t *testing.T) {
	p, _ := newTestProfile(t)
	oldID := p.UserID()
	require.True(t, p.UpdatePreferences(domain.PreferencesUpdate{Autoplay: ptr(false)}))
	p.AddSession(movieSession("Alien", true))

	require.True(t, p.ClearAllData())

	assert.NotEqual(t, oldID, p.UserID())
	assert.Equal(t, domain.DefaultPreferences(), p.Preferences())
	assert.Empty(t, p.Sessions())
	stats := p.Stats()
	assert.Zero(t, stats.MoviesWatched)
	assert.Equal(t, 1, stats.SessionsCount)
}
