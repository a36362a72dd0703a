package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/lunastream/internal/domain"
)

func newTestRecommender(lists *fakeLists, data domain.RecommendationData) (*RecommendationService, *testClock, *int) {
	clock := newTestClock()
	shuffles := 0
	svc := NewRecommendationService(lists, fakeProfile{data: data}, nil)
	svc.now = clock.Now
	svc.shuffle = func([]domain.RecommendationItem) { shuffles++ }
	return svc, clock, &shuffles
}

func sectionTypes(sections []domain.RecommendationSection) []domain.SectionType {
	out := make([]domain.SectionType, len(sections))
	for i, s := range sections {
		out[i] = s.Type
	}
	return out
}

func fullProfile() domain.RecommendationData {
	return domain.RecommendationData{
		FavoriteGenres: []int{28, 35},
		RecentlyWatched: []domain.ViewingSession{
			{ID: "session_1", MediaType: domain.MediaTypeMovie, MediaID: 42, Title: "Alien"},
			{ID: "session_0", MediaType: domain.MediaTypeTV, MediaID: 7, Title: "Older"},
		},
	}
}

func TestPersonalized_EmptyProfileOmitsConditionalSections(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists(), domain.RecommendationData{})

	sections := svc.PersonalizedRecommendations(context.Background())

	assert.Equal(t, []domain.SectionType{
		domain.SectionTrending,
		domain.SectionNewReleases,
		domain.SectionTopRated,
		domain.SectionPopular,
	}, sectionTypes(sections))

	for _, s := range sections {
		assert.Len(t, s.Items, 12, s.Type)
	}
}

func TestPersonalized_AllSectionsInFixedOrder(t *testing.T) {
	lists := newFakeLists()
	svc, _, shuffles := newTestRecommender(lists, fullProfile())

	sections := svc.PersonalizedRecommendations(context.Background())

	require.Equal(t, []domain.SectionType{
		domain.SectionTrending,
		domain.SectionGenreBased,
		domain.SectionSimilar,
		domain.SectionNewReleases,
		domain.SectionTopRated,
		domain.SectionPopular,
	}, sectionTypes(sections))

	// every section except "similar" is shuffled
	assert.Equal(t, 5, *shuffles)

	// genre section filters by the first favorite genre only
	require.NotEmpty(t, lists.lastDiscover)
	assert.Equal(t, []int{28}, lists.lastDiscover[0].Genres)
	assert.Equal(t, "popularity.desc", lists.lastDiscover[0].SortBy)

	similar := sections[2]
	require.Len(t, similar.Items, 12)
	assert.Equal(t, 500, similar.Items[0].ID, "similar section keeps upstream order")
	assert.Equal(t, 1, lists.calls["MovieRecommendations"])
	assert.Zero(t, lists.calls["TVRecommendations"])
}

func TestPersonalized_ConfidenceAndReasons(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists(), fullProfile())

	want := map[domain.SectionType]struct {
		confidence float64
		reason     string
		title      string
	}{
		domain.SectionTrending:    {0.9, "Trending now", "Trending Now"},
		domain.SectionGenreBased:  {0.85, "Based on your favorite genres", "Because You Like These Genres"},
		domain.SectionSimilar:     {0.8, "Because you watched Alien", "Because You Watched"},
		domain.SectionNewReleases: {0.75, "New release", "New Releases"},
		domain.SectionTopRated:    {0.9, "Highly rated", "Top Rated"},
		domain.SectionPopular:     {0.8, "Popular this week", "Popular This Week"},
	}

	for _, s := range svc.PersonalizedRecommendations(context.Background()) {
		w := want[s.Type]
		assert.Equal(t, w.title, s.Title)
		assert.NotEmpty(t, s.Description)
		for _, it := range s.Items {
			assert.Equal(t, w.confidence, it.Confidence, s.Type)
			assert.Equal(t, w.reason, it.Reason, s.Type)
		}
	}
}

func TestPersonalized_MixedSectionTakesSixOfEach(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists(), domain.RecommendationData{})

	trending := svc.PersonalizedRecommendations(context.Background())[0]

	var movies, shows int
	for _, it := range trending.Items {
		switch it.MediaType {
		case domain.MediaTypeMovie:
			movies++
			assert.Less(t, it.ID, 106)
		case domain.MediaTypeTV:
			shows++
			assert.Less(t, it.ID, 156)
		}
	}
	assert.Equal(t, 6, movies)
	assert.Equal(t, 6, shows)
}

func TestPersonalized_NewReleasesWindow(t *testing.T) {
	lists := newFakeLists()
	svc, clock, _ := newTestRecommender(lists, domain.RecommendationData{})

	svc.PersonalizedRecommendations(context.Background())

	require.Len(t, lists.lastDiscover, 1)
	p := lists.lastDiscover[0]
	assert.Equal(t, clock.Now(), p.To)
	assert.Equal(t, clock.Now().Add(-30*24*time.Hour), p.From)
	assert.Empty(t, p.Genres)
}

func TestPersonalized_CachedForTTL(t *testing.T) {
	lists := newFakeLists()
	svc, clock, _ := newTestRecommender(lists, domain.RecommendationData{})

	first := svc.PersonalizedRecommendations(context.Background())
	calls := lists.totalCalls()
	require.Equal(t, 8, calls)

	clock.Advance(299 * time.Second)
	second := svc.PersonalizedRecommendations(context.Background())
	assert.Equal(t, calls, lists.totalCalls(), "served from cache")
	assert.Equal(t, first, second)

	clock.Advance(2 * time.Second)
	svc.PersonalizedRecommendations(context.Background())
	assert.Equal(t, 2*calls, lists.totalCalls(), "recomputed after expiry")
}

func TestPersonalized_CachedResultIsACopy(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists(), domain.RecommendationData{})

	first := svc.PersonalizedRecommendations(context.Background())
	first[0].Items[0].Title = "mutated"

	second := svc.PersonalizedRecommendations(context.Background())
	assert.NotEqual(t, "mutated", second[0].Items[0].Title)
}

func TestPersonalized_ClearCacheForcesRecompute(t *testing.T) {
	lists := newFakeLists()
	svc, _, _ := newTestRecommender(lists, domain.RecommendationData{})

	svc.PersonalizedRecommendations(context.Background())
	calls := lists.totalCalls()

	svc.ClearCache()
	svc.PersonalizedRecommendations(context.Background())
	assert.Equal(t, 2*calls, lists.totalCalls())
}

func TestPersonalized_FallbackToTrending(t *testing.T) {
	lists := newFakeLists(
		"TopRatedMovies", "TopRatedTV", "PopularMovies", "PopularTV",
		"DiscoverMovies", "DiscoverTV", "MovieRecommendations", "TVRecommendations",
	)
	svc, _, _ := newTestRecommender(lists, fullProfile())

	sections := svc.PersonalizedRecommendations(context.Background())

	require.Len(t, sections, 1)
	assert.Equal(t, domain.SectionTrending, sections[0].Type)
	assert.Len(t, sections[0].Items, 12)

	// the fallback is not cached
	lists.setFailing()
	sections = svc.PersonalizedRecommendations(context.Background())
	assert.Len(t, sections, 6)
}

func TestPersonalized_TrendingUnavailable(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists("TrendingMovies"), domain.RecommendationData{})

	sections := svc.PersonalizedRecommendations(context.Background())

	require.Len(t, sections, 1)
	assert.Equal(t, domain.SectionTrending, sections[0].Type)
	assert.NotNil(t, sections[0].Items)
	assert.Empty(t, sections[0].Items)
}

func TestPersonalized_SimilarFailureIsLocal(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists("MovieRecommendations"), fullProfile())

	sections := svc.PersonalizedRecommendations(context.Background())

	require.Len(t, sections, 6)
	assert.Equal(t, domain.SectionSimilar, sections[2].Type)
	assert.Empty(t, sections[2].Items)
}

func TestItemRecommendations(t *testing.T) {
	svc, _, _ := newTestRecommender(newFakeLists("MovieRecommendations"), domain.RecommendationData{})

	items := svc.ItemRecommendations(context.Background(), domain.MediaTypeTV, 7)
	require.Len(t, items, 12)
	for _, it := range items {
		assert.Equal(t, domain.MediaTypeTV, it.MediaType)
		assert.Equal(t, 0.8, it.Confidence)
		assert.Equal(t, "Similar content", it.Reason)
	}

	failed := svc.ItemRecommendations(context.Background(), domain.MediaTypeMovie, 1)
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestItemRecommendations_FallsBackToSimilar(t *testing.T) {
	lists := newFakeLists()
	svc, _, _ := newTestRecommender(lists, domain.RecommendationData{})

	items := svc.ItemRecommendations(context.Background(), domain.MediaTypeMovie, 0)
	require.Len(t, items, 12)
	assert.Equal(t, 700, items[0].ID)
	assert.Equal(t, 1, lists.calls["SimilarMovies"])

	svc.ItemRecommendations(context.Background(), domain.MediaTypeTV, 5)
	assert.Zero(t, lists.calls["SimilarTV"], "similar titles are only fetched when recommendations are empty")

	lists.setFailing("SimilarTV")
	assert.Empty(t, svc.ItemRecommendations(context.Background(), domain.MediaTypeTV, 0))
}

func TestShuffleItems_KeepsElements(t *testing.T) {
	items := make([]domain.RecommendationItem, 12)
	for i := range items {
		items[i].ID = i
	}
	shuffleItems(items)

	seen := make(map[int]bool)
	for _, it := range items {
		seen[it.ID] = true
	}
	assert.Len(t, seen, 12)
}
