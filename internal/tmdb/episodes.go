package tmdb

import (
	"context"
	"strings"

	"github.com/mmcdole/lunastream/internal/domain"
)

const (
	episodeSearchShows   = 5
	episodeSearchSeasons = 3
)

// SearchEpisodes finds episodes whose name or overview contains query.
// It looks at the first few matching series and their first seasons only.
// Failures on a single series are logged and skipped.
func (c *Client) SearchEpisodes(ctx context.Context, query string) ([]domain.EpisodeMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.EpisodeMatch{}, nil
	}

	shows, err := c.SearchTV(ctx, query, domain.SearchOptions{})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := []domain.EpisodeMatch{}

	for i, show := range shows.Results {
		if i >= episodeSearchShows {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		details, err := c.TVDetails(ctx, show.ID)
		if err != nil {
			c.logger.Warn("episode search: skipping show", "showID", show.ID, "error", err)
			continue
		}

		seasons := min(details.NumberOfSeasons, episodeSearchSeasons)
		for n := 1; n <= seasons; n++ {
			season, err := c.Season(ctx, show.ID, n)
			if err != nil {
				c.logger.Warn("episode search: skipping season", "showID", show.ID, "season", n, "error", err)
				continue
			}
			for _, ep := range season.Episodes {
				if !strings.Contains(strings.ToLower(ep.Name), needle) &&
					!strings.Contains(strings.ToLower(ep.Overview), needle) {
					continue
				}
				matches = append(matches, domain.EpisodeMatch{
					Episode:        ep,
					ShowID:         show.ID,
					ShowName:       show.Name,
					ShowPosterPath: show.PosterPath,
				})
			}
		}
	}

	return matches, nil
}
