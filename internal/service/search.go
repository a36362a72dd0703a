package service

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/lunastream/internal/domain"
)

// SearchService runs combined movie and series searches with local filtering and sorting
type SearchService struct {
	repo   domain.SearchRepository
	logger *slog.Logger
}

// NewSearchService creates a new search service
func NewSearchService(repo domain.SearchRepository, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		repo:   repo,
		logger: logger,
	}
}

// Search queries the selected media types concurrently, then filters by genre and
// minimum rating and sorts the merged page. An empty query yields an empty result.
func (s *SearchService) Search(ctx context.Context, filters domain.SearchFilters) (domain.SearchResult, error) {
	f, err := filters.Normalize()
	if err != nil {
		return domain.SearchResult{}, err
	}
	if f.Query == "" {
		return domain.SearchResult{Items: []domain.SearchHit{}, Page: f.Page}, nil
	}

	s.logger.Debug("searching", "query", f.Query, "type", f.Type, "page", f.Page)

	opts := domain.SearchOptions{Year: f.Year, Page: f.Page}
	var movies *domain.Page[domain.Movie]
	var shows *domain.Page[domain.TVShow]

	g, gctx := errgroup.WithContext(ctx)
	if f.Type != domain.SearchTV {
		g.Go(func() error {
			var err error
			movies, err = s.repo.SearchMovies(gctx, f.Query, opts)
			return err
		})
	}
	if f.Type != domain.SearchMovie {
		g.Go(func() error {
			var err error
			shows, err = s.repo.SearchTV(gctx, f.Query, opts)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("search failed", "query", f.Query, "error", err)
		return domain.SearchResult{}, err
	}

	hits := make([]domain.SearchHit, 0)
	totalPages := 0
	if movies != nil {
		for _, m := range movies.Results {
			hits = append(hits, domain.MovieHit(m))
		}
		totalPages = max(totalPages, movies.TotalPages)
	}
	if shows != nil {
		for _, t := range shows.Results {
			hits = append(hits, domain.TVHit(t))
		}
		totalPages = max(totalPages, shows.TotalPages)
	}

	hits = filterHits(hits, f.Genre, f.MinRating)
	sortHits(hits, f.Query, f.SortBy, f.SortOrder)

	s.logger.Debug("search complete", "query", f.Query, "results", len(hits))
	return domain.SearchResult{
		Items:   hits,
		Page:    f.Page,
		HasMore: f.Page < totalPages,
	}, nil
}

// SearchEpisodes finds episodes by name or overview
func (s *SearchService) SearchEpisodes(ctx context.Context, query string) ([]domain.EpisodeMatch, error) {
	return s.repo.SearchEpisodes(ctx, query)
}

// filterHits keeps hits tagged with genre (0 = any) and rated at least minRating
func filterHits(hits []domain.SearchHit, genre int, minRating float64) []domain.SearchHit {
	out := hits[:0]
	for _, h := range hits {
		if genre != 0 && !slices.Contains(h.GenreIDs, genre) {
			continue
		}
		if h.VoteAverage < minRating {
			continue
		}
		out = append(out, h)
	}
	return out
}

// sortHits orders hits in place. Relevance ranks by fuzzy distance of the title to
// the query; titles that do not match rank last.
func sortHits(hits []domain.SearchHit, query string, field domain.SortField, order domain.SortOrder) {
	var compare func(a, b int) int

	switch field {
	case domain.SortRating:
		compare = func(a, b int) int { return cmp.Compare(hits[a].VoteAverage, hits[b].VoteAverage) }
	case domain.SortReleaseDate:
		compare = func(a, b int) int { return strings.Compare(hits[a].ReleaseDate, hits[b].ReleaseDate) }
	case domain.SortTitle:
		compare = func(a, b int) int {
			return strings.Compare(strings.ToLower(hits[a].Title), strings.ToLower(hits[b].Title))
		}
	case domain.SortRelevance:
		dist := relevance(hits, query)
		// smaller distance is more relevant
		compare = func(a, b int) int { return cmp.Compare(dist[b], dist[a]) }
	default:
		compare = func(a, b int) int { return cmp.Compare(hits[a].Popularity, hits[b].Popularity) }
	}

	// sort a permutation so compare can index the original positions
	perm := make([]int, len(hits))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		c := compare(perm[i], perm[j])
		if order == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})

	sorted := make([]domain.SearchHit, len(hits))
	for i, p := range perm {
		sorted[i] = hits[p]
	}
	copy(hits, sorted)
}

// relevance returns the fuzzy distance of each hit title to query
func relevance(hits []domain.SearchHit, query string) []int {
	titles := make([]string, len(hits))
	for i, h := range hits {
		titles[i] = h.Title
	}

	dist := make([]int, len(hits))
	for i := range dist {
		dist[i] = math.MaxInt
	}
	for _, r := range fuzzy.RankFindNormalizedFold(query, titles) {
		dist[r.OriginalIndex] = r.Distance
	}
	return dist
}
