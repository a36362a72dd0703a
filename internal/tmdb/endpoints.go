package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/lunastream/internal/domain"
)

const (
	imageBaseURL     = "https://image.tmdb.org/t/p/"
	placeholderImage = "https://images.pexels.com/photos/7991579/pexels-photo-7991579.jpeg?auto=compress&cs=tinysrgb&w=500&h=750&fit=crop"

	dateLayout = "2006-01-02"
)

// genreListResponse is the envelope of /genre/{type}/list
type genreListResponse struct {
	Genres []domain.Genre `json:"genres"`
}

// pageQuery returns query values with page set when > 0
func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// === Search ===

// SearchMovies searches movies by title
func (c *Client) SearchMovies(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Page[domain.Movie], error) {
	q := pageQuery(opts.Page)
	q.Set("query", query)
	if opts.Year > 0 {
		q.Set("year", strconv.Itoa(opts.Year))
	}
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/search/movie", Query: q})
}

// SearchTV searches series by name
func (c *Client) SearchTV(ctx context.Context, query string, opts domain.SearchOptions) (*domain.Page[domain.TVShow], error) {
	q := pageQuery(opts.Page)
	q.Set("query", query)
	if opts.Year > 0 {
		q.Set("first_air_date_year", strconv.Itoa(opts.Year))
	}
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/search/tv", Query: q})
}

// === Lists ===

// TrendingMovies returns the trending movies for a day or week window
func (c *Client) TrendingMovies(ctx context.Context, window domain.TimeWindow) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/trending/movie/" + string(windowOrWeek(window))})
}

// TrendingTV returns the trending series for a day or week window
func (c *Client) TrendingTV(ctx context.Context, window domain.TimeWindow) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/trending/tv/" + string(windowOrWeek(window))})
}

func windowOrWeek(w domain.TimeWindow) domain.TimeWindow {
	if w == domain.WindowDay {
		return w
	}
	return domain.WindowWeek
}

// TopRatedMovies returns the top rated movies
func (c *Client) TopRatedMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/movie/top_rated", Query: pageQuery(page)})
}

// TopRatedTV returns the top rated series
func (c *Client) TopRatedTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/tv/top_rated", Query: pageQuery(page)})
}

// PopularMovies returns the popular movies
func (c *Client) PopularMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/movie/popular", Query: pageQuery(page)})
}

// PopularTV returns the popular series
func (c *Client) PopularTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/tv/popular", Query: pageQuery(page)})
}

// NowPlayingMovies returns movies currently in theaters
func (c *Client) NowPlayingMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/movie/now_playing", Query: pageQuery(page)})
}

// OnTheAirTV returns series with an episode airing in the next 7 days
func (c *Client) OnTheAirTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/tv/on_the_air", Query: pageQuery(page)})
}

// === Discover ===

// DiscoverMovies runs a filtered movie discover query
func (c *Client) DiscoverMovies(ctx context.Context, params domain.DiscoverParams) (*domain.Page[domain.Movie], error) {
	q := discoverQuery(params)
	if params.Year > 0 {
		q.Set("primary_release_year", strconv.Itoa(params.Year))
	}
	if !params.From.IsZero() {
		q.Set("primary_release_date.gte", params.From.Format(dateLayout))
	}
	if !params.To.IsZero() {
		q.Set("primary_release_date.lte", params.To.Format(dateLayout))
	}
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: "/discover/movie", Query: q})
}

// DiscoverTV runs a filtered series discover query
func (c *Client) DiscoverTV(ctx context.Context, params domain.DiscoverParams) (*domain.Page[domain.TVShow], error) {
	q := discoverQuery(params)
	if params.Year > 0 {
		q.Set("first_air_date_year", strconv.Itoa(params.Year))
	}
	if !params.From.IsZero() {
		q.Set("first_air_date.gte", params.From.Format(dateLayout))
	}
	if !params.To.IsZero() {
		q.Set("first_air_date.lte", params.To.Format(dateLayout))
	}
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: "/discover/tv", Query: q})
}

// discoverQuery builds the parameters shared by movie and series discovery
func discoverQuery(params domain.DiscoverParams) url.Values {
	q := pageQuery(params.Page)
	if len(params.Genres) > 0 {
		ids := make([]string, len(params.Genres))
		for i, g := range params.Genres {
			ids[i] = strconv.Itoa(g)
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	if params.SortBy != "" {
		q.Set("sort_by", params.SortBy)
	}
	if params.MinRating > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(params.MinRating, 'f', -1, 64))
	}
	return q
}

// === Details ===

// MovieDetails returns the full record of a movie
func (c *Client) MovieDetails(ctx context.Context, id int) (*domain.MovieDetails, error) {
	return fetchInto[domain.MovieDetails](ctx, c, Endpoint{Path: fmt.Sprintf("/movie/%d", id)})
}

// TVDetails returns the full record of a series
func (c *Client) TVDetails(ctx context.Context, id int) (*domain.TVDetails, error) {
	return fetchInto[domain.TVDetails](ctx, c, Endpoint{Path: fmt.Sprintf("/tv/%d", id)})
}

// Season returns a season with its episodes
func (c *Client) Season(ctx context.Context, tvID, seasonNumber int) (*domain.Season, error) {
	return fetchInto[domain.Season](ctx, c, Endpoint{Path: fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber)})
}

// EpisodeDetails returns a single episode with crew and guest stars
func (c *Client) EpisodeDetails(ctx context.Context, tvID, seasonNumber, episodeNumber int) (*domain.Episode, error) {
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", tvID, seasonNumber, episodeNumber)
	return fetchInto[domain.Episode](ctx, c, Endpoint{Path: path})
}

// Credits returns cast and crew for a movie or series
func (c *Client) Credits(ctx context.Context, mediaType domain.MediaType, id int) (*domain.Credits, error) {
	return fetchInto[domain.Credits](ctx, c, Endpoint{Path: fmt.Sprintf("/%s/%d/credits", mediaType, id)})
}

// === Related content ===

// MovieRecommendations returns movies recommended for a movie
func (c *Client) MovieRecommendations(ctx context.Context, movieID, page int) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: fmt.Sprintf("/movie/%d/recommendations", movieID), Query: pageQuery(page)})
}

// TVRecommendations returns series recommended for a series
func (c *Client) TVRecommendations(ctx context.Context, tvID, page int) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: fmt.Sprintf("/tv/%d/recommendations", tvID), Query: pageQuery(page)})
}

// SimilarMovies returns movies similar to a movie
func (c *Client) SimilarMovies(ctx context.Context, movieID, page int) (*domain.Page[domain.Movie], error) {
	return fetchInto[domain.Page[domain.Movie]](ctx, c, Endpoint{Path: fmt.Sprintf("/movie/%d/similar", movieID), Query: pageQuery(page)})
}

// SimilarTV returns series similar to a series
func (c *Client) SimilarTV(ctx context.Context, tvID, page int) (*domain.Page[domain.TVShow], error) {
	return fetchInto[domain.Page[domain.TVShow]](ctx, c, Endpoint{Path: fmt.Sprintf("/tv/%d/similar", tvID), Query: pageQuery(page)})
}

// === Genres ===

// MovieGenres returns the movie genre taxonomy
func (c *Client) MovieGenres(ctx context.Context) ([]domain.Genre, error) {
	resp, err := fetchInto[genreListResponse](ctx, c, Endpoint{Path: "/genre/movie/list", CacheKey: "genres:movie"})
	if err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// TVGenres returns the series genre taxonomy
func (c *Client) TVGenres(ctx context.Context) ([]domain.Genre, error) {
	resp, err := fetchInto[genreListResponse](ctx, c, Endpoint{Path: "/genre/tv/list", CacheKey: "genres:tv"})
	if err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// === Images ===

// ImageURL returns the CDN URL of an image path at the given size (e.g. "w500").
// An empty path yields a placeholder image.
func ImageURL(path, size string) string {
	if path == "" {
		return placeholderImage
	}
	if size == "" {
		size = "w500"
	}
	return imageBaseURL + size + path
}
