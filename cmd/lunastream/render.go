package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/service"
)

// renderer writes command output, styled when stdout is a terminal
type renderer struct {
	w  io.Writer
	st styles
}

func newRenderer(w io.Writer) *renderer {
	st := plainStyles()
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		st = colorStyles()
	}
	return &renderer{w: w, st: st}
}

func (r *renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *renderer) successf(format string, args ...any) {
	fmt.Fprintln(r.w, r.st.success.Render(fmt.Sprintf(format, args...)))
}

func (r *renderer) sections(sections []domain.RecommendationSection) {
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		fmt.Fprintln(r.w, r.st.section.Render(section.Title))
		fmt.Fprintln(r.w, r.st.subtitle.Render(section.Description))
		if len(section.Items) == 0 {
			fmt.Fprintln(r.w, r.st.dim.Render("  (nothing to show)"))
			continue
		}
		for j, item := range section.Items {
			r.row(j+1, item, r.st.title.Render(item.GetTitle()))
		}
	}
}

func (r *renderer) hits(result domain.SearchResult) {
	if len(result.Items) == 0 {
		fmt.Fprintln(r.w, r.st.dim.Render("No results"))
		return
	}
	for i, hit := range result.Items {
		r.row(i+1, hit, r.st.title.Render(hit.GetTitle()))
	}
	if result.HasMore {
		fmt.Fprintln(r.w, r.st.dim.Render(fmt.Sprintf("more results: --page %d", result.Page+1)))
	}
}

func (r *renderer) episodes(matches []domain.EpisodeMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(r.w, r.st.dim.Render("No episodes"))
		return
	}
	for _, m := range matches {
		code := fmt.Sprintf("S%02dE%02d", m.SeasonNumber, m.EpisodeNumber)
		fmt.Fprintf(r.w, "%s %s %s\n",
			r.st.accent.Render(code),
			r.st.title.Render(m.Name),
			r.st.dim.Render("· "+m.ShowName))
	}
}

func (r *renderer) history(matches []service.HistoryMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(r.w, r.st.dim.Render("No viewing history"))
		return
	}
	for i, m := range matches {
		status := InProgressChar
		if m.Session.Completed {
			status = CompletedChar
		}
		title := r.highlight(m.Session.GetTitle(), m.MatchedIndexes)
		r.row(i+1, m.Session, r.st.accent.Render(status)+" "+title)
	}
}

// row prints one numbered list line with the item's description
func (r *renderer) row(n int, item domain.ListItem, title string) {
	year := ""
	if y := item.GetYear(); y > 0 {
		year = fmt.Sprintf(" (%d)", y)
	}
	fmt.Fprintf(r.w, "%3d. %s%s %s %s\n",
		n,
		title,
		r.st.dim.Render(year),
		r.st.dim.Render("["+string(item.GetItemType())+"]"),
		r.st.dim.Render(item.GetDescription()))
}

// highlight styles the runes of s starting at the matched byte offsets
func (r *renderer) highlight(s string, indexes []int) string {
	if len(indexes) == 0 {
		return r.st.title.Render(s)
	}
	matched := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		matched[i] = true
	}

	var b strings.Builder
	for i, ch := range s {
		if matched[i] {
			b.WriteString(r.st.match.Render(string(ch)))
		} else {
			b.WriteString(r.st.title.Render(string(ch)))
		}
	}
	return b.String()
}
