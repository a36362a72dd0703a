package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/lunastream/internal/domain"
)

const (
	// RecommendationCacheTTL is the lifetime of the composed section list
	RecommendationCacheTTL = 5 * time.Minute

	sectionSize      = 12
	perTypeLimit     = 6
	newReleaseWindow = 30 * 24 * time.Hour
	trendingWindow   = domain.WindowWeek

	itemConfidence = 0.8
	itemReason     = "Similar content"
)

// sectionDef holds the fixed labels and score of a section
type sectionDef struct {
	Type        domain.SectionType
	Title       string
	Description string
	Confidence  float64
	Reason      string
}

var (
	trendingDef = sectionDef{
		Type:        domain.SectionTrending,
		Title:       "Trending Now",
		Description: "What everyone is watching right now",
		Confidence:  0.9,
		Reason:      "Trending now",
	}
	genreDef = sectionDef{
		Type:        domain.SectionGenreBased,
		Title:       "Because You Like These Genres",
		Description: "Recommendations based on your favorite genres",
		Confidence:  0.85,
		Reason:      "Based on your favorite genres",
	}
	similarDef = sectionDef{
		Type:        domain.SectionSimilar,
		Title:       "Because You Watched",
		Description: "Similar to your recent viewing history",
		Confidence:  0.8,
		Reason:      "Because you watched %s",
	}
	newReleasesDef = sectionDef{
		Type:        domain.SectionNewReleases,
		Title:       "New Releases",
		Description: "Fresh content from the past month",
		Confidence:  0.75,
		Reason:      "New release",
	}
	topRatedDef = sectionDef{
		Type:        domain.SectionTopRated,
		Title:       "Top Rated",
		Description: "Critically acclaimed movies and shows",
		Confidence:  0.9,
		Reason:      "Highly rated",
	}
	popularDef = sectionDef{
		Type:        domain.SectionPopular,
		Title:       "Popular This Week",
		Description: "What's popular among viewers",
		Confidence:  0.8,
		Reason:      "Popular this week",
	}
)

// cachedSections stores a composed result with its timestamp
type cachedSections struct {
	Sections  []domain.RecommendationSection
	FetchedAt time.Time
}

// RecommendationService composes labeled recommendation sections from the
// metadata lists and the profile. Section order is fixed; item order inside
// shuffled sections is random on every recomputation.
type RecommendationService struct {
	lists   domain.ListRepository
	profile domain.ProfileReader
	logger  *slog.Logger

	cache   map[string]cachedSections
	cacheMu sync.RWMutex

	now     func() time.Time
	shuffle func([]domain.RecommendationItem)
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(lists domain.ListRepository, profile domain.ProfileReader, logger *slog.Logger) *RecommendationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationService{
		lists:   lists,
		profile: profile,
		logger:  logger,
		cache:   make(map[string]cachedSections),
		now:     time.Now,
		shuffle: shuffleItems,
	}
}

// shuffleItems is a seed-free uniform shuffle
func shuffleItems(items []domain.RecommendationItem) {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// PersonalizedRecommendations returns the sections for the local profile in the order
// trending, genre-based, similar, new releases, top rated, popular. Genre-based and
// similar are omitted when the profile has no favorite genre or no history.
// It never fails: on error it returns the trending section alone, possibly empty.
func (s *RecommendationService) PersonalizedRecommendations(ctx context.Context) []domain.RecommendationSection {
	if cached, ok := s.getCached(KeyPersonalized); ok {
		s.logger.Debug("recommendations cache hit")
		return cached
	}

	sections, err := s.compose(ctx)
	if err == nil {
		s.setCache(KeyPersonalized, sections)
		return cloneSections(sections)
	}

	s.logger.Warn("recommendations failed, falling back to trending", "error", err)
	trending, err := s.trendingSection(ctx)
	if err != nil {
		s.logger.Error("trending fallback failed", "error", err)
		trending = newSection(trendingDef, nil)
	}
	return []domain.RecommendationSection{trending}
}

// compose builds every section sequentially. Sections without a local fallback
// abort the composition.
func (s *RecommendationService) compose(ctx context.Context) ([]domain.RecommendationSection, error) {
	data := s.profile.RecommendationData()
	sections := make([]domain.RecommendationSection, 0, 6)

	trending, err := s.trendingSection(ctx)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	sections = append(sections, trending)

	if len(data.FavoriteGenres) > 0 {
		genre, err := s.genreSection(ctx, data.FavoriteGenres[0])
		if err != nil {
			return nil, fmt.Errorf("genre-based: %w", err)
		}
		sections = append(sections, genre)
	}

	if len(data.RecentlyWatched) > 0 {
		sections = append(sections, s.similarSection(ctx, data.RecentlyWatched[0]))
	}

	now := s.now()
	discover := domain.DiscoverParams{
		SortBy: "popularity.desc",
		From:   now.Add(-newReleaseWindow),
		To:     now,
		Page:   1,
	}
	newReleases, err := s.mixedSection(ctx, newReleasesDef,
		func(ctx context.Context) (*domain.Page[domain.Movie], error) { return s.lists.DiscoverMovies(ctx, discover) },
		func(ctx context.Context) (*domain.Page[domain.TVShow], error) { return s.lists.DiscoverTV(ctx, discover) },
	)
	if err != nil {
		return nil, fmt.Errorf("new releases: %w", err)
	}
	sections = append(sections, newReleases)

	topRated, err := s.mixedSection(ctx, topRatedDef,
		func(ctx context.Context) (*domain.Page[domain.Movie], error) { return s.lists.TopRatedMovies(ctx, 1) },
		func(ctx context.Context) (*domain.Page[domain.TVShow], error) { return s.lists.TopRatedTV(ctx, 1) },
	)
	if err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}
	sections = append(sections, topRated)

	popular, err := s.mixedSection(ctx, popularDef,
		func(ctx context.Context) (*domain.Page[domain.Movie], error) { return s.lists.PopularMovies(ctx, 1) },
		func(ctx context.Context) (*domain.Page[domain.TVShow], error) { return s.lists.PopularTV(ctx, 1) },
	)
	if err != nil {
		return nil, fmt.Errorf("popular: %w", err)
	}
	sections = append(sections, popular)

	s.logger.Debug("composed recommendations", "sections", len(sections))
	return sections, nil
}

func (s *RecommendationService) trendingSection(ctx context.Context) (domain.RecommendationSection, error) {
	return s.mixedSection(ctx, trendingDef,
		func(ctx context.Context) (*domain.Page[domain.Movie], error) { return s.lists.TrendingMovies(ctx, trendingWindow) },
		func(ctx context.Context) (*domain.Page[domain.TVShow], error) { return s.lists.TrendingTV(ctx, trendingWindow) },
	)
}

func (s *RecommendationService) genreSection(ctx context.Context, genreID int) (domain.RecommendationSection, error) {
	params := domain.DiscoverParams{
		Genres: []int{genreID},
		SortBy: "popularity.desc",
		Page:   1,
	}
	return s.mixedSection(ctx, genreDef,
		func(ctx context.Context) (*domain.Page[domain.Movie], error) { return s.lists.DiscoverMovies(ctx, params) },
		func(ctx context.Context) (*domain.Page[domain.TVShow], error) { return s.lists.DiscoverTV(ctx, params) },
	)
}

// similarSection follows the most recent session. Upstream failure yields an empty section.
func (s *RecommendationService) similarSection(ctx context.Context, last domain.ViewingSession) domain.RecommendationSection {
	def := similarDef
	def.Reason = fmt.Sprintf(similarDef.Reason, last.Title)

	items, err := s.related(ctx, last.MediaType, last.MediaID, def.Confidence, def.Reason)
	if err != nil {
		s.logger.Warn("similar section failed", "mediaType", last.MediaType, "mediaID", last.MediaID, "error", err)
		items = nil
	}
	return newSection(def, items)
}

// ItemRecommendations returns up to 12 items related to one movie or series.
// Failures yield an empty list.
func (s *RecommendationService) ItemRecommendations(ctx context.Context, mediaType domain.MediaType, id int) []domain.RecommendationItem {
	items, err := s.related(ctx, mediaType, id, itemConfidence, itemReason)
	if err != nil {
		s.logger.Warn("item recommendations failed", "mediaType", mediaType, "mediaID", id, "error", err)
		return []domain.RecommendationItem{}
	}
	return items
}

// related fetches upstream recommendations for one item, unshuffled, capped at sectionSize.
// Items without recommendations fall back to similar titles.
func (s *RecommendationService) related(ctx context.Context, mediaType domain.MediaType, id int, confidence float64, reason string) ([]domain.RecommendationItem, error) {
	items := make([]domain.RecommendationItem, 0, sectionSize)

	switch mediaType {
	case domain.MediaTypeMovie:
		page, err := s.lists.MovieRecommendations(ctx, id, 1)
		if err == nil && len(movieResults(page)) == 0 {
			page, err = s.lists.SimilarMovies(ctx, id, 1)
		}
		if err != nil {
			return nil, err
		}
		for _, m := range head(movieResults(page), sectionSize) {
			items = append(items, domain.MovieItem(m, confidence, reason))
		}
	case domain.MediaTypeTV:
		page, err := s.lists.TVRecommendations(ctx, id, 1)
		if err == nil && len(tvResults(page)) == 0 {
			page, err = s.lists.SimilarTV(ctx, id, 1)
		}
		if err != nil {
			return nil, err
		}
		for _, t := range head(tvResults(page), sectionSize) {
			items = append(items, domain.TVItem(t, confidence, reason))
		}
	default:
		return nil, fmt.Errorf("%w: media type %q", domain.ErrValidation, mediaType)
	}
	return items, nil
}

// mixedSection fetches movies and series concurrently, keeps the first 6 of each,
// shuffles the merged list and truncates it to 12.
func (s *RecommendationService) mixedSection(
	ctx context.Context,
	def sectionDef,
	movies func(context.Context) (*domain.Page[domain.Movie], error),
	shows func(context.Context) (*domain.Page[domain.TVShow], error),
) (domain.RecommendationSection, error) {
	var moviePage *domain.Page[domain.Movie]
	var tvPage *domain.Page[domain.TVShow]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		moviePage, err = movies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tvPage, err = shows(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.RecommendationSection{}, err
	}

	items := make([]domain.RecommendationItem, 0, 2*perTypeLimit)
	for _, m := range head(movieResults(moviePage), perTypeLimit) {
		items = append(items, domain.MovieItem(m, def.Confidence, def.Reason))
	}
	for _, t := range head(tvResults(tvPage), perTypeLimit) {
		items = append(items, domain.TVItem(t, def.Confidence, def.Reason))
	}

	items = dedupe(items)
	s.shuffle(items)
	return newSection(def, head(items, sectionSize)), nil
}

// ClearCache drops the composed results only
func (s *RecommendationService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	for _, key := range RecommendationCacheKeys() {
		delete(s.cache, key)
	}
	s.logger.Info("cleared recommendation cache")
}

func (s *RecommendationService) getCached(key string) ([]domain.RecommendationSection, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	cached, ok := s.cache[key]
	if !ok || s.now().Sub(cached.FetchedAt) >= RecommendationCacheTTL {
		return nil, false
	}
	return cloneSections(cached.Sections), true
}

func (s *RecommendationService) setCache(key string, sections []domain.RecommendationSection) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache[key] = cachedSections{
		Sections:  cloneSections(sections),
		FetchedAt: s.now(),
	}
}

func newSection(def sectionDef, items []domain.RecommendationItem) domain.RecommendationSection {
	if items == nil {
		items = []domain.RecommendationItem{}
	}
	return domain.RecommendationSection{
		Title:       def.Title,
		Description: def.Description,
		Type:        def.Type,
		Items:       items,
	}
}

func cloneSections(sections []domain.RecommendationSection) []domain.RecommendationSection {
	out := make([]domain.RecommendationSection, len(sections))
	for i, sec := range sections {
		out[i] = sec
		out[i].Items = append([]domain.RecommendationItem{}, sec.Items...)
	}
	return out
}

// dedupe drops repeated (type, id) pairs, keeping the first
func dedupe(items []domain.RecommendationItem) []domain.RecommendationItem {
	type key struct {
		t  domain.MediaType
		id int
	}
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := key{it.MediaType, it.ID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func movieResults(p *domain.Page[domain.Movie]) []domain.Movie {
	if p == nil {
		return nil
	}
	return p.Results
}

func tvResults(p *domain.Page[domain.TVShow]) []domain.TVShow {
	if p == nil {
		return nil
	}
	return p.Results
}
