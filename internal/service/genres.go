package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mmcdole/lunastream/internal/domain"
)

// GenreCacheTTL is how long a genre table is kept. The taxonomy changes rarely.
const GenreCacheTTL = 24 * time.Hour

// GenreService resolves genre ids to names
type GenreService struct {
	repo   domain.GenreRepository
	logger *slog.Logger
	cache  *expirable.LRU[domain.MediaType, []domain.Genre]
}

// NewGenreService creates a new genre service
func NewGenreService(repo domain.GenreRepository, logger *slog.Logger) *GenreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenreService{
		repo:   repo,
		logger: logger,
		cache:  expirable.NewLRU[domain.MediaType, []domain.Genre](2, nil, GenreCacheTTL),
	}
}

// Genres returns the genre table of one media type
func (s *GenreService) Genres(ctx context.Context, mediaType domain.MediaType) ([]domain.Genre, error) {
	if cached, ok := s.cache.Get(mediaType); ok {
		return append([]domain.Genre{}, cached...), nil
	}

	var genres []domain.Genre
	var err error
	switch mediaType {
	case domain.MediaTypeMovie:
		genres, err = s.repo.MovieGenres(ctx)
	case domain.MediaTypeTV:
		genres, err = s.repo.TVGenres(ctx)
	default:
		return nil, fmt.Errorf("%w: media type %q", domain.ErrValidation, mediaType)
	}
	if err != nil {
		return nil, err
	}

	s.cache.Add(mediaType, genres)
	s.logger.Debug("loaded genres", "mediaType", mediaType, "count", len(genres))
	return append([]domain.Genre{}, genres...), nil
}

// AllGenres returns movie and series genres merged by id, sorted by name
func (s *GenreService) AllGenres(ctx context.Context) ([]domain.Genre, error) {
	byID := make(map[int]domain.Genre)
	for _, mt := range []domain.MediaType{domain.MediaTypeMovie, domain.MediaTypeTV} {
		genres, err := s.Genres(ctx, mt)
		if err != nil {
			return nil, err
		}
		for _, g := range genres {
			if _, ok := byID[g.ID]; !ok {
				byID[g.ID] = g
			}
		}
	}

	all := make([]domain.Genre, 0, len(byID))
	for _, g := range byID {
		all = append(all, g)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name)
		if a != b {
			return a < b
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// Annotate fills genre names. Unknown ids, or all ids when the tables cannot be
// loaded, are named "Genre <id>".
func (s *GenreService) Annotate(ctx context.Context, stats []domain.GenreStat) []domain.GenreStat {
	names := make(map[int]string)
	if all, err := s.AllGenres(ctx); err != nil {
		s.logger.Warn("genre names unavailable", "error", err)
	} else {
		for _, g := range all {
			names[g.ID] = g.Name
		}
	}

	out := make([]domain.GenreStat, len(stats))
	for i, st := range stats {
		out[i] = st
		if name, ok := names[st.ID]; ok {
			out[i].Name = name
		} else {
			out[i].Name = fmt.Sprintf("Genre %d", st.ID)
		}
	}
	return out
}

// ClearCache drops the cached tables
func (s *GenreService) ClearCache() {
	s.cache.Purge()
}
