package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/service"
)

func TestRenderer_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	r.sections([]domain.RecommendationSection{
		{
			Title:       "Trending Now",
			Description: "Popular this week",
			Type:        domain.SectionTrending,
			Items: []domain.RecommendationItem{
				{ID: 550, MediaType: domain.MediaTypeMovie, Title: "Fight Club", ReleaseDate: "1999-10-15", VoteAverage: 8.4, Reason: "Trending"},
			},
		},
		{Title: "Popular", Description: "Everyone is watching", Items: []domain.RecommendationItem{}},
	})

	out := buf.String()
	assert.Contains(t, out, "Trending Now\nPopular this week\n")
	assert.Contains(t, out, "  1. Fight Club (1999) [movie] ★ 8.4 · Trending")
	assert.Contains(t, out, "(nothing to show)")
	assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")
}

func TestRenderer_Hits(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	r.hits(domain.SearchResult{Page: 1, HasMore: true, Items: []domain.SearchHit{
		{ID: 1399, MediaType: domain.MediaTypeTV, Title: "Game of Thrones", ReleaseDate: "2011-04-17", VoteAverage: 8.4},
	}})
	assert.Contains(t, buf.String(), "Game of Thrones (2011) [tv]")
	assert.Contains(t, buf.String(), "--page 2")

	buf.Reset()
	r.hits(domain.SearchResult{})
	assert.Equal(t, "No results\n", buf.String())
}

func TestRenderer_History(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf)

	r.history([]service.HistoryMatch{
		{Session: domain.ViewingSession{MediaType: domain.MediaTypeMovie, Title: "Arrival", Completed: true}, MatchedIndexes: []int{0, 1}},
		{Session: domain.ViewingSession{MediaType: domain.MediaTypeTV, Title: "Dark"}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], CompletedChar+" Arrival")
	assert.Contains(t, lines[1], InProgressChar+" Dark")
}

func TestHighlight_PlainKeepsText(t *testing.T) {
	r := &renderer{st: plainStyles()}
	assert.Equal(t, "Amélie", r.highlight("Amélie", []int{0, 2}))
	assert.Equal(t, "Amélie", r.highlight("Amélie", nil))
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(&buf).json(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestReadPassword_Pipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(path, []byte("hunter2\n"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var prompt bytes.Buffer
	pw, err := readPassword(f, &prompt)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)
	assert.Empty(t, prompt.String())
}
