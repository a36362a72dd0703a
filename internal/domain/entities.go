package domain

import (
	"fmt"
	"strings"
)

// MediaType distinguishes the two kinds of top-level content
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether m is one of the known media types
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// ParseMediaType converts user input ("movie", "tv", "show") to a MediaType
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaTypeMovie, nil
	case "tv", "show", "shows":
		return MediaTypeTV, nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrValidation, s)
	}
}

// Movie is a movie as returned by list endpoints (search, trending, discover, ...)
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count,omitempty"`
	Popularity       float64 `json:"popularity"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult,omitempty"`
}

// TVShow is a series as returned by list endpoints
type TVShow struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	OriginalName     string   `json:"original_name,omitempty"`
	OriginalLanguage string   `json:"original_language,omitempty"`
	Overview         string   `json:"overview"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	FirstAirDate     string   `json:"first_air_date"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count,omitempty"`
	Popularity       float64  `json:"popularity"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginCountry    []string `json:"origin_country,omitempty"`
}

// Page is the envelope of every paginated list endpoint
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// Genre is one entry of the genre taxonomy
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record of a single movie
type MovieDetails struct {
	Movie
	Runtime             int       `json:"runtime"`
	Tagline             string    `json:"tagline,omitempty"`
	Status              string    `json:"status,omitempty"`
	Genres              []Genre   `json:"genres"`
	ProductionCompanies []Company `json:"production_companies"`
}

// TVDetails is the full record of a single series
type TVDetails struct {
	TVShow
	EpisodeRunTime   []int    `json:"episode_run_time"`
	NumberOfSeasons  int      `json:"number_of_seasons"`
	NumberOfEpisodes int      `json:"number_of_episodes"`
	Status           string   `json:"status,omitempty"`
	Genres           []Genre  `json:"genres"`
	Seasons          []Season `json:"seasons"`
}

// Season is a season of a series. Episodes is only filled by the season endpoint.
type Season struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview,omitempty"`
	SeasonNumber int       `json:"season_number"`
	EpisodeCount int       `json:"episode_count,omitempty"`
	AirDate      string    `json:"air_date"`
	PosterPath   string    `json:"poster_path"`
	Episodes     []Episode `json:"episodes,omitempty"`
}

// Episode is a single episode. Crew and GuestStars are only filled by the episode endpoint.
type Episode struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	EpisodeNumber int          `json:"episode_number"`
	SeasonNumber  int          `json:"season_number"`
	AirDate       string       `json:"air_date"`
	Overview      string       `json:"overview"`
	StillPath     string       `json:"still_path,omitempty"`
	VoteAverage   float64      `json:"vote_average,omitempty"`
	Runtime       int          `json:"runtime,omitempty"`
	Crew          []CrewMember `json:"crew,omitempty"`
	GuestStars    []CastMember `json:"guest_stars,omitempty"`
}

// EpisodeMatch is an episode found by title/overview search, with its show attached
type EpisodeMatch struct {
	Episode
	ShowID         int    `json:"show_id"`
	ShowName       string `json:"show_name"`
	ShowPosterPath string `json:"show_poster_path"`
}

// CastMember is an actor credit
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order,omitempty"`
}

// CrewMember is a crew credit
type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Credits lists the cast and crew of a movie or series
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}
