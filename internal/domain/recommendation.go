package domain

// SectionType identifies the generation strategy of a recommendation section
type SectionType string

const (
	SectionTrending    SectionType = "trending"
	SectionGenreBased  SectionType = "genre-based"
	SectionSimilar     SectionType = "similar"
	SectionNewReleases SectionType = "new-releases"
	SectionTopRated    SectionType = "top-rated"
	SectionPopular     SectionType = "popular"
)

// RecommendationItem is a movie or series inside a section.
// Confidence and Reason are assigned by the section that produced the item.
type RecommendationItem struct {
	ID           int       `json:"id"`
	MediaType    MediaType `json:"type"`
	Title        string    `json:"title"`
	PosterPath   string    `json:"poster_path"`
	BackdropPath string    `json:"backdrop_path"`
	Overview     string    `json:"overview"`
	VoteAverage  float64   `json:"vote_average"`
	ReleaseDate  string    `json:"release_date"`
	GenreIDs     []int     `json:"genre_ids"`
	Confidence   float64   `json:"confidence"`
	Reason       string    `json:"reason"`
}

// RecommendationSection is a titled group of items sharing a strategy and reason
type RecommendationSection struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        SectionType          `json:"type"`
	Items       []RecommendationItem `json:"items"`
}

// MovieItem converts a movie list result to a recommendation item
func MovieItem(m Movie, confidence float64, reason string) RecommendationItem {
	return RecommendationItem{
		ID:           m.ID,
		MediaType:    MediaTypeMovie,
		Title:        m.Title,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		Overview:     m.Overview,
		VoteAverage:  m.VoteAverage,
		ReleaseDate:  m.ReleaseDate,
		GenreIDs:     m.GenreIDs,
		Confidence:   confidence,
		Reason:       reason,
	}
}

// TVItem converts a series list result to a recommendation item
func TVItem(s TVShow, confidence float64, reason string) RecommendationItem {
	return RecommendationItem{
		ID:           s.ID,
		MediaType:    MediaTypeTV,
		Title:        s.Name,
		PosterPath:   s.PosterPath,
		BackdropPath: s.BackdropPath,
		Overview:     s.Overview,
		VoteAverage:  s.VoteAverage,
		ReleaseDate:  s.FirstAirDate,
		GenreIDs:     s.GenreIDs,
		Confidence:   confidence,
		Reason:       reason,
	}
}
