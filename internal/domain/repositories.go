package domain

import (
	"context"
	"time"
)

// TimeWindow is the trending aggregation window
type TimeWindow string

const (
	WindowDay  TimeWindow = "day"
	WindowWeek TimeWindow = "week"
)

// SearchOptions narrows a title search
type SearchOptions struct {
	Year int // primary_release_year for movies, first_air_date_year for series
	Page int
}

// DiscoverParams filters a discover query
type DiscoverParams struct {
	Genres    []int
	Year      int
	SortBy    string // e.g. "popularity.desc"
	MinRating float64
	From      time.Time // release / first air date lower bound (zero = open)
	To        time.Time // release / first air date upper bound (zero = open)
	Page      int
}

// ListRepository provides the paginated list endpoints used to compose recommendations
type ListRepository interface {
	TrendingMovies(ctx context.Context, window TimeWindow) (*Page[Movie], error)
	TrendingTV(ctx context.Context, window TimeWindow) (*Page[TVShow], error)
	TopRatedMovies(ctx context.Context, page int) (*Page[Movie], error)
	TopRatedTV(ctx context.Context, page int) (*Page[TVShow], error)
	PopularMovies(ctx context.Context, page int) (*Page[Movie], error)
	PopularTV(ctx context.Context, page int) (*Page[TVShow], error)
	DiscoverMovies(ctx context.Context, params DiscoverParams) (*Page[Movie], error)
	DiscoverTV(ctx context.Context, params DiscoverParams) (*Page[TVShow], error)
	MovieRecommendations(ctx context.Context, movieID, page int) (*Page[Movie], error)
	TVRecommendations(ctx context.Context, tvID, page int) (*Page[TVShow], error)
	SimilarMovies(ctx context.Context, movieID, page int) (*Page[Movie], error)
	SimilarTV(ctx context.Context, tvID, page int) (*Page[TVShow], error)
}

// SearchRepository provides title search
type SearchRepository interface {
	SearchMovies(ctx context.Context, query string, opts SearchOptions) (*Page[Movie], error)
	SearchTV(ctx context.Context, query string, opts SearchOptions) (*Page[TVShow], error)
	SearchEpisodes(ctx context.Context, query string) ([]EpisodeMatch, error)
}

// GenreRepository provides the genre taxonomy
type GenreRepository interface {
	MovieGenres(ctx context.Context) ([]Genre, error)
	TVGenres(ctx context.Context) ([]Genre, error)
}

// ProfileReader is the read-only profile view needed by the recommendation service
type ProfileReader interface {
	RecommendationData() RecommendationData
}
