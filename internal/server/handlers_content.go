package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/lunastream/internal/domain"
)

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		s.deps.Recommendations.ClearCache()
	}
	sections := s.deps.Recommendations.PersonalizedRecommendations(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleItemRecommendations(w http.ResponseWriter, r *http.Request) {
	mediaType, id, err := mediaRef(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := s.deps.Recommendations.ItemRecommendations(r.Context(), mediaType, id)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	filters, err := searchFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.deps.Search.Search(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// searchFilters reads SearchFilters from the query string
func searchFilters(r *http.Request) (domain.SearchFilters, error) {
	q := r.URL.Query()
	filters := domain.SearchFilters{
		Query:     q.Get("q"),
		Type:      domain.SearchType(q.Get("type")),
		SortBy:    domain.SortField(q.Get("sort")),
		SortOrder: domain.SortOrder(q.Get("order")),
	}

	var err error
	if filters.Genre, err = queryInt(r, "genre", 0); err != nil {
		return filters, err
	}
	if filters.Year, err = queryInt(r, "year", 0); err != nil {
		return filters, err
	}
	if filters.Page, err = queryInt(r, "page", 1); err != nil {
		return filters, err
	}
	if filters.MinRating, err = queryFloat(r, "min_rating"); err != nil {
		return filters, err
	}
	return filters, nil
}

func (s *Server) handleSearchEpisodes(w http.ResponseWriter, r *http.Request) {
	matches, err := s.deps.Search.SearchEpisodes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": matches})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	var (
		genres []domain.Genre
		err    error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		mediaType, parseErr := domain.ParseMediaType(raw)
		if parseErr != nil {
			s.writeError(w, r, parseErr)
			return
		}
		genres, err = s.deps.Genres.Genres(r.Context(), mediaType)
	} else {
		genres, err = s.deps.Genres.AllGenres(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": genres})
}

// nowPlaying lists movies in theaters and series currently airing
type nowPlaying struct {
	Movies []domain.Movie  `json:"movies"`
	TV     []domain.TVShow `json:"tv"`
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var movies *domain.Page[domain.Movie]
	var shows *domain.Page[domain.TVShow]
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		movies, err = s.deps.Metadata.NowPlayingMovies(ctx, page)
		return err
	})
	g.Go(func() error {
		var err error
		shows, err = s.deps.Metadata.OnTheAirTV(ctx, page)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := nowPlaying{Movies: []domain.Movie{}, TV: []domain.TVShow{}}
	if movies != nil && movies.Results != nil {
		resp.Movies = movies.Results
	}
	if shows != nil && shows.Results != nil {
		resp.TV = shows.Results
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	mediaType, id, err := mediaRef(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var details any
	if mediaType == domain.MediaTypeMovie {
		details, err = s.deps.Metadata.MovieDetails(r.Context(), id)
	} else {
		details, err = s.deps.Metadata.TVDetails(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	mediaType, id, err := mediaRef(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	credits, err := s.deps.Metadata.Credits(r.Context(), mediaType, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	tvID, err := pathInt(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	number, err := pathInt(r, "season")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	season, err := s.deps.Metadata.Season(r.Context(), tvID, number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, season)
}

func (s *Server) handleEpisode(w http.ResponseWriter, r *http.Request) {
	var nums [3]int
	for i, name := range []string{"id", "season", "episode"} {
		n, err := pathInt(r, name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		nums[i] = n
	}
	episode, err := s.deps.Metadata.EpisodeDetails(r.Context(), nums[0], nums[1], nums[2])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}

// mediaRef reads the {type} and {id} URL parameters
func mediaRef(r *http.Request) (domain.MediaType, int, error) {
	mediaType, err := domain.ParseMediaType(chi.URLParam(r, "type"))
	if err != nil {
		return "", 0, err
	}
	id, err := pathInt(r, "id")
	if err != nil {
		return "", 0, err
	}
	return mediaType, id, nil
}
