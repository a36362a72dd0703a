package domain

import (
	"fmt"
	"strconv"
)

// ListItem is the common display API for rows rendered in lists.
// RecommendationItem, SearchHit and ViewingSession implement it directly.
type ListItem interface {
	// GetID returns the metadata service id
	GetID() int

	// GetTitle returns the display title
	GetTitle() string

	// GetYear returns the release/air year (0 if unknown)
	GetYear() int

	// GetDescription returns secondary info for display
	GetDescription() string

	// GetItemType returns "movie" or "tv"
	GetItemType() MediaType
}

// yearOf extracts the year from a YYYY-MM-DD date
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func (r RecommendationItem) GetID() int             { return r.ID }
func (r RecommendationItem) GetTitle() string       { return r.Title }
func (r RecommendationItem) GetYear() int           { return yearOf(r.ReleaseDate) }
func (r RecommendationItem) GetItemType() MediaType { return r.MediaType }

// GetDescription returns the rating and the reason label
func (r RecommendationItem) GetDescription() string {
	return fmt.Sprintf("★ %.1f · %s", r.VoteAverage, r.Reason)
}

func (h SearchHit) GetID() int             { return h.ID }
func (h SearchHit) GetTitle() string       { return h.Title }
func (h SearchHit) GetYear() int           { return yearOf(h.ReleaseDate) }
func (h SearchHit) GetItemType() MediaType { return h.MediaType }

// GetDescription returns the rating
func (h SearchHit) GetDescription() string {
	return fmt.Sprintf("★ %.1f", h.VoteAverage)
}

func (s ViewingSession) GetID() int             { return s.MediaID }
func (s ViewingSession) GetTitle() string       { return s.Title }
func (s ViewingSession) GetYear() int           { return 0 }
func (s ViewingSession) GetItemType() MediaType { return s.MediaType }

// GetDescription returns watch progress, e.g. "42% · 2024-01-02"
func (s ViewingSession) GetDescription() string {
	if s.Completed {
		return "watched · " + s.WatchedAt.Format("2006-01-02")
	}
	pct := 0
	if s.Duration > 0 {
		pct = int(s.CurrentTime / s.Duration * 100)
	}
	return fmt.Sprintf("%d%% · %s", pct, s.WatchedAt.Format("2006-01-02"))
}
