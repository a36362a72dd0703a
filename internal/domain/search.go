package domain

import (
	"fmt"
	"strings"
)

// SearchType restricts a search to one media type or both
type SearchType string

const (
	SearchAll   SearchType = "all"
	SearchMovie SearchType = "movie"
	SearchTV    SearchType = "tv"
)

// SortField selects the ordering of search results
type SortField string

const (
	SortPopularity  SortField = "popularity"
	SortRating      SortField = "rating"
	SortReleaseDate SortField = "release_date"
	SortTitle       SortField = "title"
	SortRelevance   SortField = "relevance"
)

// SortOrder is ascending or descending
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchFilters describes an advanced search request
type SearchFilters struct {
	Query     string
	Type      SearchType
	Genre     int     // 0 = any
	Year      int     // 0 = any
	MinRating float64 // vote average lower bound
	SortBy    SortField
	SortOrder SortOrder
	Page      int // 1-based
}

// Normalize fills defaults and validates enums
func (f SearchFilters) Normalize() (SearchFilters, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Type == "" {
		f.Type = SearchAll
	}
	if f.SortBy == "" {
		f.SortBy = SortPopularity
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.Page < 1 {
		f.Page = 1
	}
	switch f.Type {
	case SearchAll, SearchMovie, SearchTV:
	default:
		return f, fmt.Errorf("%w: search type %q", ErrValidation, f.Type)
	}
	switch f.SortBy {
	case SortPopularity, SortRating, SortReleaseDate, SortTitle, SortRelevance:
	default:
		return f, fmt.Errorf("%w: sort field %q", ErrValidation, f.SortBy)
	}
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		return f, fmt.Errorf("%w: sort order %q", ErrValidation, f.SortOrder)
	}
	return f, nil
}

// SearchHit is a movie or series matching a search
type SearchHit struct {
	ID          int       `json:"id"`
	MediaType   MediaType `json:"media_type"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	PosterPath  string    `json:"poster_path"`
	ReleaseDate string    `json:"release_date"`
	VoteAverage float64   `json:"vote_average"`
	Popularity  float64   `json:"popularity"`
	GenreIDs    []int     `json:"genre_ids"`
}

// SearchResult is one page of filtered, sorted hits
type SearchResult struct {
	Items   []SearchHit `json:"items"`
	Page    int         `json:"page"`
	HasMore bool        `json:"has_more"`
}

// MovieHit converts a movie list result to a search hit
func MovieHit(m Movie) SearchHit {
	return SearchHit{
		ID:          m.ID,
		MediaType:   MediaTypeMovie,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
		Popularity:  m.Popularity,
		GenreIDs:    m.GenreIDs,
	}
}

// TVHit converts a series list result to a search hit
func TVHit(s TVShow) SearchHit {
	return SearchHit{
		ID:          s.ID,
		MediaType:   MediaTypeTV,
		Title:       s.Name,
		Overview:    s.Overview,
		PosterPath:  s.PosterPath,
		ReleaseDate: s.FirstAirDate,
		VoteAverage: s.VoteAverage,
		Popularity:  s.Popularity,
		GenreIDs:    s.GenreIDs,
	}
}
