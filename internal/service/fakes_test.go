package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/store"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: t0} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeLists serves 10 movies or series per call, with ids offset per endpoint
type fakeLists struct {
	mu           sync.Mutex
	calls        map[string]int
	fail         map[string]bool
	lastDiscover []domain.DiscoverParams
}

func newFakeLists(failing ...string) *fakeLists {
	f := &fakeLists{calls: make(map[string]int), fail: make(map[string]bool)}
	for _, name := range failing {
		f.fail[name] = true
	}
	return f
}

func (f *fakeLists) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.fail[name] {
		return &domain.UpstreamError{Status: 500, Path: name}
	}
	return nil
}

func (f *fakeLists) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeLists) setFailing(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]bool)
	for _, name := range names {
		f.fail[name] = true
	}
}

func moviePage(base, n int) *domain.Page[domain.Movie] {
	p := &domain.Page[domain.Movie]{Page: 1, TotalPages: 1}
	for i := 0; i < n; i++ {
		p.Results = append(p.Results, domain.Movie{ID: base + i, Title: fmt.Sprintf("Movie %d", base+i)})
	}
	return p
}

func tvPage(base, n int) *domain.Page[domain.TVShow] {
	p := &domain.Page[domain.TVShow]{Page: 1, TotalPages: 1}
	for i := 0; i < n; i++ {
		p.Results = append(p.Results, domain.TVShow{ID: base + i, Name: fmt.Sprintf("Show %d", base+i)})
	}
	return p
}

func (f *fakeLists) TrendingMovies(ctx context.Context, w domain.TimeWindow) (*domain.Page[domain.Movie], error) {
	if err := f.record("TrendingMovies"); err != nil {
		return nil, err
	}
	return moviePage(100, 10), nil
}

func (f *fakeLists) TrendingTV(ctx context.Context, w domain.TimeWindow) (*domain.Page[domain.TVShow], error) {
	if err := f.record("TrendingTV"); err != nil {
		return nil, err
	}
	return tvPage(150, 10), nil
}

func (f *fakeLists) TopRatedMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error) {
	if err := f.record("TopRatedMovies"); err != nil {
		return nil, err
	}
	return moviePage(200, 10), nil
}

func (f *fakeLists) TopRatedTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error) {
	if err := f.record("TopRatedTV"); err != nil {
		return nil, err
	}
	return tvPage(250, 10), nil
}

func (f *fakeLists) PopularMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error) {
	if err := f.record("PopularMovies"); err != nil {
		return nil, err
	}
	return moviePage(300, 10), nil
}

func (f *fakeLists) PopularTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error) {
	if err := f.record("PopularTV"); err != nil {
		return nil, err
	}
	return tvPage(350, 10), nil
}

func (f *fakeLists) DiscoverMovies(ctx context.Context, params domain.DiscoverParams) (*domain.Page[domain.Movie], error) {
	f.mu.Lock()
	f.lastDiscover = append(f.lastDiscover, params)
	f.mu.Unlock()
	if err := f.record("DiscoverMovies"); err != nil {
		return nil, err
	}
	return moviePage(400, 10), nil
}

func (f *fakeLists) DiscoverTV(ctx context.Context, params domain.DiscoverParams) (*domain.Page[domain.TVShow], error) {
	if err := f.record("DiscoverTV"); err != nil {
		return nil, err
	}
	return tvPage(450, 10), nil
}

func (f *fakeLists) MovieRecommendations(ctx context.Context, movieID, page int) (*domain.Page[domain.Movie], error) {
	if err := f.record("MovieRecommendations"); err != nil {
		return nil, err
	}
	if movieID == 0 {
		return moviePage(500, 0), nil
	}
	return moviePage(500, 20), nil
}

func (f *fakeLists) TVRecommendations(ctx context.Context, tvID, page int) (*domain.Page[domain.TVShow], error) {
	if err := f.record("TVRecommendations"); err != nil {
		return nil, err
	}
	if tvID == 0 {
		return tvPage(600, 0), nil
	}
	return tvPage(600, 20), nil
}

func (f *fakeLists) SimilarMovies(ctx context.Context, movieID, page int) (*domain.Page[domain.Movie], error) {
	if err := f.record("SimilarMovies"); err != nil {
		return nil, err
	}
	return moviePage(700, 20), nil
}

func (f *fakeLists) SimilarTV(ctx context.Context, tvID, page int) (*domain.Page[domain.TVShow], error) {
	if err := f.record("SimilarTV"); err != nil {
		return nil, err
	}
	return tvPage(800, 20), nil
}

// fakeProfile returns fixed recommendation inputs
type fakeProfile struct {
	data domain.RecommendationData
}

func (p fakeProfile) RecommendationData() domain.RecommendationData { return p.data }

// failingStore wraps a memory store and can be switched to fail every write
type failingStore struct {
	*store.ProfileStore
	failWrites bool
	failReads  bool
}

var errDiskFull = errors.New("disk full")

func newFailingStore() *failingStore {
	s, _ := store.NewProfileStore("")
	return &failingStore{ProfileStore: s}
}

func (s *failingStore) Get(key string) ([]byte, bool, error) {
	if s.failReads {
		return nil, false, errDiskFull
	}
	return s.ProfileStore.Get(key)
}

func (s *failingStore) Set(key string, value []byte) error {
	if s.failWrites {
		return errDiskFull
	}
	return s.ProfileStore.Set(key, value)
}

func (s *failingStore) SetMany(values map[string][]byte) error {
	if s.failWrites {
		return errDiskFull
	}
	return s.ProfileStore.SetMany(values)
}

func (s *failingStore) Delete(keys ...string) error {
	if s.failWrites {
		return errDiskFull
	}
	return s.ProfileStore.Delete(keys...)
}

// fakeSearch serves fixed search results
type fakeSearch struct {
	movies   *domain.Page[domain.Movie]
	shows    *domain.Page[domain.TVShow]
	episodes []domain.EpisodeMatch
	err      error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSearch) SearchMovies(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Page[domain.Movie], error) {
	f.mu.Lock()
	f.calls = append(f.calls, "movie")
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.movies, nil
}

func (f *fakeSearch) SearchTV(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Page[domain.TVShow], error) {
	f.mu.Lock()
	f.calls = append(f.calls, "tv")
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.shows, nil
}

func (f *fakeSearch) SearchEpisodes(ctx context.Context, query string) ([]domain.EpisodeMatch, error) {
	return f.episodes, f.err
}

// fakeGenres serves fixed genre tables and counts calls
type fakeGenres struct {
	movie []domain.Genre
	tv    []domain.Genre
	err   error
	calls int
}

func (f *fakeGenres) MovieGenres(ctx context.Context) ([]domain.Genre, error) {
	f.calls++
	return f.movie, f.err
}

func (f *fakeGenres) TVGenres(ctx context.Context) ([]domain.Genre, error) {
	f.calls++
	return f.tv, f.err
}
